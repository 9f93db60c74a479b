package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Togather-Foundation/eventdesk/internal/apiclient"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreNotifier_Wording(t *testing.T) {
	rec := &Recorder{}
	n := NewStoreNotifier(rec)

	n.Succeeded(store.OpFetch)
	n.Succeeded(store.OpCreate)
	n.Succeeded(store.OpUpdate)
	n.Succeeded(store.OpDelete)
	n.Failed(store.OpFetch, &store.Error{Op: store.OpFetch, Kind: store.KindNetwork})
	n.Failed(store.OpUpdate, &store.Error{Op: store.OpUpdate, Kind: store.KindRejected, ServerMessage: "Not allowed"})
	n.Failed(store.OpDelete, nil)

	assert.Equal(t, []Toast{
		{LevelSuccess, "Event created successfully!"},
		{LevelSuccess, "Event updated successfully!"},
		{LevelSuccess, "Event deleted successfully!"},
		{LevelError, "Failed to fetch events"},
		{LevelError, "Not allowed"},
		{LevelError, "Failed to delete event"},
	}, rec.Toasts())
}

type failingAPI struct{}

func (failingAPI) ListEvents(context.Context, events.ListParams) (events.ListResult, error) {
	return events.ListResult{}, errors.New("connection refused")
}

func (failingAPI) CreateEvent(context.Context, events.Payload) (events.Event, error) {
	return events.Event{}, &apiclient.Error{StatusCode: 401, Message: "Please log in"}
}

func (failingAPI) UpdateEvent(context.Context, string, events.Payload) (events.Event, error) {
	return events.Event{}, &apiclient.Error{StatusCode: 404}
}

func (failingAPI) DeleteEvent(context.Context, string) error { return nil }

func TestStoreNotifier_WiredToStore(t *testing.T) {
	rec := &Recorder{}
	s := store.New(failingAPI{}, store.WithNotifier(NewStoreNotifier(rec)))
	ctx := context.Background()

	s.FetchEvents(ctx, events.ListParams{})
	s.AddEvent(ctx, events.Payload{Title: "B"})
	s.UpdateEvent(ctx, "1", events.Payload{Title: "B"})
	s.DeleteEvent(ctx, "1")

	assert.Equal(t, []Toast{
		{LevelError, "Failed to fetch events"},
		{LevelError, "Please log in"},
		{LevelError, "Failed to update event"},
		{LevelSuccess, "Event deleted successfully!"},
	}, rec.Toasts())
}

func TestWriterToaster(t *testing.T) {
	var out, errOut bytes.Buffer
	w := NewWriterToaster(&out, &errOut)

	w.Success("Event created successfully!")
	w.Error("Failed to create event")

	assert.Equal(t, "✔ Event created successfully!\n", out.String())
	assert.Equal(t, "✘ Failed to create event\n", errOut.String())
}

func TestLogToasterAndMulti(t *testing.T) {
	var logs bytes.Buffer
	rec := &Recorder{}
	m := Multi(NewLogToaster(zerolog.New(&logs)), rec)

	m.Error("boom")

	assert.Contains(t, logs.String(), `"message":"boom"`)
	assert.Contains(t, logs.String(), `"component":"toast"`)
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, Toast{LevelError, "boom"}, last)
}

func TestRecorder_Empty(t *testing.T) {
	_, ok := (&Recorder{}).Last()
	assert.False(t, ok)
	assert.Empty(t, (&Recorder{}).Toasts())
}
