// Package store holds the client-side view of the event collection.
//
// A Store mirrors the remote events API: every operation calls the API and,
// on success, applies the result to the local sequence. Operations never
// return errors. Failures are recorded in State().Err, which is cleared when
// the next operation starts, and reported to the Notifier.
//
// State is published as immutable snapshots. Observers either poll State()
// or register with Subscribe.
package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/telemetry"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// EventAPI is the remote collection the store mirrors.
// *apiclient.Client satisfies it.
type EventAPI interface {
	ListEvents(ctx context.Context, params events.ListParams) (events.ListResult, error)
	CreateEvent(ctx context.Context, payload events.Payload) (events.Event, error)
	UpdateEvent(ctx context.Context, id string, payload events.Payload) (events.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// Notifier receives the outcome of each operation. Succeeded is not called
// for fetches.
type Notifier interface {
	Succeeded(op Op)
	Failed(op Op, err *Error)
}

// State is a snapshot of the store. Snapshots are never modified after they
// are published; treat Events as read-only.
type State struct {
	Events []events.Event
	// Meta is the pagination metadata of the last successful fetch, nil
	// when the API sent none.
	Meta    *events.Meta
	Loading bool
	Err     *Error
}

// ErrorMessage returns the user-facing text of Err, or "".
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Message()
}

type Store struct {
	api       EventAPI
	notifier  Notifier
	validator *validation.Validator
	logger    zerolog.Logger

	mu       sync.Mutex
	state    State
	inFlight int
	subs     map[int]func(State)
	nextSub  int

	// emitMu keeps subscriber callbacks in publish order; taken before mu
	emitMu sync.Mutex

	fetches singleflight.Group
	ids     *keyedMutex
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger.With().Str("component", "event_store").Logger()
	}
}

func WithValidator(v *validation.Validator) Option {
	return func(s *Store) {
		if v != nil {
			s.validator = v
		}
	}
}

// New creates an empty store backed by api.
func New(api EventAPI, opts ...Option) *Store {
	s := &Store{
		api:       api,
		notifier:  discardNotifier{},
		validator: validation.New(),
		logger:    zerolog.Nop(),
		state:     State{Events: []events.Event{}},
		subs:      make(map[int]func(State)),
		ids:       newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Events = slices.Clone(st.Events)
	return st
}

// Subscribe registers fn to receive every snapshot published after this
// call. fn runs on the goroutine that performed the operation, outside the
// store lock. It may call State but must not call store operations
// synchronously. The returned func unregisters fn.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// FetchEvents replaces the local sequence and metadata with a fresh page
// from the API. On failure the previous sequence is kept. Concurrent calls
// with equal params share one request.
func (s *Store) FetchEvents(ctx context.Context, params events.ListParams) {
	key := params.Key()
	op := s.begin(ctx, OpFetch, attribute.String("events.query", key))

	v, err, shared := s.fetches.Do(key, func() (any, error) {
		return s.api.ListEvents(op.ctx, params)
	})
	if err != nil {
		s.fail(op, err)
		return
	}
	res := v.(events.ListResult)
	data := res.Data
	if data == nil {
		data = []events.Event{}
	}

	s.succeed(op, func(st *State) {
		st.Events = data
		st.Meta = res.Meta
	})
	s.logger.Debug().Int("count", len(data)).Bool("shared", shared).Str("query", key).Msg("fetched events")
}

// AddEvent creates an event and puts the server's copy at the front of the
// sequence.
func (s *Store) AddEvent(ctx context.Context, payload events.Payload) {
	op := s.begin(ctx, OpCreate)

	payload = payload.Normalize()
	if err := payload.Validate(s.validator); err != nil {
		s.fail(op, err)
		return
	}

	created, err := s.api.CreateEvent(op.ctx, payload)
	if err != nil {
		s.fail(op, err)
		return
	}

	s.succeed(op, func(st *State) {
		next := make([]events.Event, 0, len(st.Events)+1)
		next = append(next, created)
		st.Events = append(next, st.Events...)
	})
	s.logger.Debug().Str("event_id", created.ID).Msg("created event")
}

// UpdateEvent replaces the event's fields on the server, then swaps every
// local entry with that id for the server's copy. Entries that are not held
// locally stay absent. Updates and deletes of the same id run one at a time.
func (s *Store) UpdateEvent(ctx context.Context, id string, payload events.Payload) {
	op := s.begin(ctx, OpUpdate, attribute.String("event.id", id))

	if strings.TrimSpace(id) == "" {
		s.fail(op, ErrEmptyID)
		return
	}
	payload = payload.Normalize()
	if err := payload.Validate(s.validator); err != nil {
		s.fail(op, err)
		return
	}

	unlock, err := s.ids.Lock(op.ctx, id)
	if err != nil {
		s.fail(op, err)
		return
	}
	defer unlock()

	updated, err := s.api.UpdateEvent(op.ctx, id, payload)
	if err != nil {
		s.fail(op, err)
		return
	}

	replaced := 0
	s.succeed(op, func(st *State) {
		next := make([]events.Event, len(st.Events))
		for i, e := range st.Events {
			if e.ID == id {
				next[i] = updated
				replaced++
				continue
			}
			next[i] = e
		}
		st.Events = next
	})
	if replaced == 0 {
		s.logger.Debug().Str("event_id", id).Msg("updated event is not held locally")
	}
}

// DeleteEvent removes the event on the server, then drops every local
// entry with that id.
func (s *Store) DeleteEvent(ctx context.Context, id string) {
	op := s.begin(ctx, OpDelete, attribute.String("event.id", id))

	if strings.TrimSpace(id) == "" {
		s.fail(op, ErrEmptyID)
		return
	}

	unlock, err := s.ids.Lock(op.ctx, id)
	if err != nil {
		s.fail(op, err)
		return
	}
	defer unlock()

	if err := s.api.DeleteEvent(op.ctx, id); err != nil {
		s.fail(op, err)
		return
	}

	s.succeed(op, func(st *State) {
		st.Events = slices.DeleteFunc(slices.Clone(st.Events), func(e events.Event) bool {
			return e.ID == id
		})
	})
	s.logger.Debug().Str("event_id", id).Msg("deleted event")
}

// operation tracks one call from begin to succeed/fail.
type operation struct {
	ctx   context.Context
	op    Op
	start time.Time
	end   func(error)
}

func (s *Store) begin(ctx context.Context, op Op, attrs ...attribute.KeyValue) *operation {
	ctx, span := telemetry.StartSpan(ctx, "store."+string(op), attrs...)

	s.publish(func(next *State) {
		s.inFlight++
		next.Loading = true
		next.Err = nil
	})

	metrics.StoreInFlight.Inc()
	return &operation{
		ctx:   ctx,
		op:    op,
		start: time.Now(),
		end:   func(err error) { telemetry.EndSpan(span, err) },
	}
}

func (s *Store) succeed(o *operation, apply func(*State)) {
	s.publish(func(next *State) {
		s.inFlight--
		apply(next)
		next.Loading = s.inFlight > 0
	})

	s.finish(o, nil)
	if o.op != OpFetch {
		s.notifier.Succeeded(o.op)
	}
}

func (s *Store) fail(o *operation, err error) {
	storeErr := classify(o.op, err)

	s.publish(func(next *State) {
		s.inFlight--
		next.Err = storeErr
		next.Loading = s.inFlight > 0
	})

	s.finish(o, storeErr)
	s.logger.Warn().
		Err(err).
		Str("operation", string(o.op)).
		Str("kind", string(storeErr.Kind)).
		Int("status", storeErr.Status).
		Msg("event store operation failed")
	s.notifier.Failed(o.op, storeErr)
}

func (s *Store) finish(o *operation, storeErr *Error) {
	metrics.StoreInFlight.Dec()
	outcome, kind := "success", ""
	var err error
	if storeErr != nil {
		outcome, kind = "failure", string(storeErr.Kind)
		err = storeErr
	}
	metrics.ObserveStoreOperation(string(o.op), outcome, kind, time.Since(o.start))
	o.end(err)
}

// publish applies change to a copy of the current state under s.mu, installs
// it and fans it out to subscribers outside s.mu. emitMu is always taken
// before s.mu, so subscribers may call State.
func (s *Store) publish(change func(next *State)) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	next := s.state
	change(&next)
	s.state = next
	fns := make([]func(State), 0, len(s.subs))
	for _, id := range sortedKeys(s.subs) {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	metrics.StoreEvents.Set(float64(len(next.Events)))
	for _, fn := range fns {
		fn(next)
	}
}

func sortedKeys(m map[int]func(State)) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type discardNotifier struct{}

func (discardNotifier) Succeeded(Op) {}
func (discardNotifier) Failed(Op, *Error) {}
