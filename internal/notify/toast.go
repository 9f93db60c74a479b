// Package notify delivers transient user-facing messages ("toasts").
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toaster shows a one-off message to the user.
type Toaster interface {
	Success(msg string)
	Error(msg string)
}

// LogToaster emits toasts as log lines.
type LogToaster struct {
	logger zerolog.Logger
}

func NewLogToaster(logger zerolog.Logger) *LogToaster {
	return &LogToaster{logger: logger.With().Str("component", "toast").Logger()}
}

func (t *LogToaster) Success(msg string) {
	t.logger.Info().Str("toast", string(LevelSuccess)).Msg(msg)
}

func (t *LogToaster) Error(msg string) {
	t.logger.Error().Str("toast", string(LevelError)).Msg(msg)
}

// WriterToaster prints toasts to a terminal.
type WriterToaster struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

// NewWriterToaster prints successes to out and errors to errOut.
func NewWriterToaster(out, errOut io.Writer) *WriterToaster {
	return &WriterToaster{out: out, err: errOut}
}

func (t *WriterToaster) Success(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "✔ %s\n", msg)
}

func (t *WriterToaster) Error(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.err, "✘ %s\n", msg)
}

// Multi fans every toast out to each of toasters.
func Multi(toasters ...Toaster) Toaster {
	return multi(toasters)
}

type multi []Toaster

func (m multi) Success(msg string) {
	for _, t := range m {
		t.Success(msg)
	}
}

func (m multi) Error(msg string) {
	for _, t := range m {
		t.Error(msg)
	}
}

type Toast struct {
	Level   Level
	Message string
}

// Recorder keeps every toast in memory.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }

func (r *Recorder) Error(msg string) { r.add(LevelError, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Level: level, Message: msg})
}

// Toasts returns a copy of everything recorded so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}
