package store

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/apiclient"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	list   func(ctx context.Context, params events.ListParams) (events.ListResult, error)
	create func(ctx context.Context, payload events.Payload) (events.Event, error)
	update func(ctx context.Context, id string, payload events.Payload) (events.Event, error)
	del    func(ctx context.Context, id string) error

	calls atomic.Int32
}

func (f *fakeAPI) ListEvents(ctx context.Context, params events.ListParams) (events.ListResult, error) {
	f.calls.Add(1)
	return f.list(ctx, params)
}

func (f *fakeAPI) CreateEvent(ctx context.Context, payload events.Payload) (events.Event, error) {
	f.calls.Add(1)
	return f.create(ctx, payload)
}

func (f *fakeAPI) UpdateEvent(ctx context.Context, id string, payload events.Payload) (events.Event, error) {
	f.calls.Add(1)
	return f.update(ctx, id, payload)
}

func (f *fakeAPI) DeleteEvent(ctx context.Context, id string) error {
	f.calls.Add(1)
	return f.del(ctx, id)
}

type recordedFailure struct {
	op  Op
	err *Error
}

type recorder struct {
	mu        sync.Mutex
	succeeded []Op
	failed    []recordedFailure
}

func (r *recorder) Succeeded(op Op) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.succeeded = append(r.succeeded, op)
}

func (r *recorder) Failed(op Op, err *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, recordedFailure{op: op, err: err})
}

func ev(id string, fields map[string]any) events.Event {
	return events.NewEvent(id, fields)
}

// seeded returns a store whose sequence is initial, loaded through a fetch.
func seeded(t *testing.T, api *fakeAPI, initial []events.Event, opts ...Option) *Store {
	t.Helper()
	api.list = func(context.Context, events.ListParams) (events.ListResult, error) {
		return events.ListResult{Data: initial, Meta: &events.Meta{Total: len(initial)}}, nil
	}
	s := New(api, opts...)
	s.FetchEvents(context.Background(), events.ListParams{})
	require.Nil(t, s.State().Err)
	api.calls.Store(0)
	return s
}

func TestFetchEvents_ReplacesEventsAndMeta(t *testing.T) {
	api := &fakeAPI{list: func(context.Context, events.ListParams) (events.ListResult, error) {
		return events.ListResult{
			Data: []events.Event{ev("1", map[string]any{"title": "A"})},
			Meta: &events.Meta{Total: 1},
		}, nil
	}}
	rec := &recorder{}
	s := New(api, WithNotifier(rec))

	s.FetchEvents(context.Background(), events.ListParams{})

	st := s.State()
	assert.Equal(t, []events.Event{ev("1", map[string]any{"title": "A"})}, st.Events)
	assert.Equal(t, &events.Meta{Total: 1}, st.Meta)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Err)
	assert.Empty(t, rec.succeeded, "fetch has no success notification")
}

func TestFetchEvents_NilMetaReplacesPrevious(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, []events.Event{ev("1", nil)})
	require.NotNil(t, s.State().Meta)

	api.list = func(context.Context, events.ListParams) (events.ListResult, error) {
		return events.ListResult{}, nil
	}
	s.FetchEvents(context.Background(), events.ListParams{})

	st := s.State()
	assert.Nil(t, st.Meta)
	assert.NotNil(t, st.Events)
	assert.Empty(t, st.Events)
}

func TestFetchEvents_FailureKeepsStaleData(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	s := seeded(t, api, []events.Event{ev("1", nil)}, WithNotifier(rec))
	before := s.State()

	api.list = func(context.Context, events.ListParams) (events.ListResult, error) {
		return events.ListResult{}, errors.New("dial tcp: connection refused")
	}
	s.FetchEvents(context.Background(), events.ListParams{})

	st := s.State()
	assert.Equal(t, before.Events, st.Events)
	assert.Equal(t, before.Meta, st.Meta)
	assert.False(t, st.Loading)
	require.NotNil(t, st.Err)
	assert.Equal(t, KindNetwork, st.Err.Kind)
	assert.Equal(t, "Failed to fetch events", st.ErrorMessage())

	require.Len(t, rec.failed, 1)
	assert.Equal(t, OpFetch, rec.failed[0].op)
}

func TestAddEvent_PrependsCreatedEvent(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	s := seeded(t, api, []events.Event{ev("1", nil)}, WithNotifier(rec))

	api.create = func(_ context.Context, p events.Payload) (events.Event, error) {
		assert.Equal(t, "B", p.Title)
		return ev("2", map[string]any{"title": "B"}), nil
	}
	s.AddEvent(context.Background(), events.Payload{Title: "B"})

	st := s.State()
	assert.Equal(t, []events.Event{ev("2", map[string]any{"title": "B"}), ev("1", nil)}, st.Events)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Err)
	assert.Equal(t, []Op{OpCreate}, rec.succeeded)
}

func TestAddEvent_InvalidPayloadSendsNothing(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	s := seeded(t, api, []events.Event{ev("1", nil)}, WithNotifier(rec))

	s.AddEvent(context.Background(), events.Payload{Title: "   "})

	st := s.State()
	assert.Equal(t, int32(0), api.calls.Load())
	assert.Len(t, st.Events, 1)
	require.NotNil(t, st.Err)
	assert.Equal(t, KindValidation, st.Err.Kind)
	assert.Equal(t, "Failed to create event", st.Err.Message())
	require.Len(t, rec.failed, 1)
}

func TestUpdateEvent_ServerMessageOnFailure(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, []events.Event{ev("1", map[string]any{"title": "A"})})
	before := s.State().Events

	api.update = func(context.Context, string, events.Payload) (events.Event, error) {
		return events.Event{}, &apiclient.Error{StatusCode: http.StatusForbidden, Message: "Not allowed"}
	}
	s.UpdateEvent(context.Background(), "1", events.Payload{Title: "A2"})

	st := s.State()
	require.NotNil(t, st.Err)
	assert.Equal(t, "Not allowed", st.ErrorMessage())
	assert.Equal(t, KindRejected, st.Err.Kind)
	assert.Equal(t, http.StatusForbidden, st.Err.Status)
	assert.Equal(t, before, st.Events)
	assert.False(t, st.Loading)
}

func TestUpdateEvent_ReplacesEveryMatch(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	s := seeded(t, api, []events.Event{ev("1", nil), ev("2", nil), ev("1", nil)}, WithNotifier(rec))

	api.update = func(_ context.Context, id string, p events.Payload) (events.Event, error) {
		return ev(id, map[string]any{"title": p.Title}), nil
	}
	s.UpdateEvent(context.Background(), "1", events.Payload{Title: "new"})

	want := []events.Event{ev("1", map[string]any{"title": "new"}), ev("2", nil), ev("1", map[string]any{"title": "new"})}
	assert.Equal(t, want, s.State().Events)
	assert.Equal(t, []Op{OpUpdate}, rec.succeeded)
}

func TestUpdateEvent_NoLocalMatchLeavesSequence(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	s := seeded(t, api, []events.Event{ev("1", nil)}, WithNotifier(rec))

	api.update = func(_ context.Context, id string, _ events.Payload) (events.Event, error) {
		return ev(id, nil), nil
	}
	s.UpdateEvent(context.Background(), "9", events.Payload{Title: "x"})

	st := s.State()
	assert.Equal(t, []events.Event{ev("1", nil)}, st.Events)
	assert.Nil(t, st.Err)
	assert.Equal(t, []Op{OpUpdate}, rec.succeeded)
}

func TestDeleteEvent_RemovesEveryMatch(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	s := seeded(t, api, []events.Event{ev("1", nil), ev("2", nil), ev("1", nil)}, WithNotifier(rec))

	api.del = func(context.Context, string) error { return nil }
	s.DeleteEvent(context.Background(), "1")

	st := s.State()
	assert.Equal(t, []events.Event{ev("2", nil)}, st.Events)
	assert.Nil(t, st.Err)
	assert.Equal(t, []Op{OpDelete}, rec.succeeded)
}

func TestDeleteEvent_NotFound(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, []events.Event{ev("1", nil)})

	api.del = func(context.Context, string) error {
		return &apiclient.Error{StatusCode: http.StatusNotFound}
	}
	s.DeleteEvent(context.Background(), "1")

	st := s.State()
	require.NotNil(t, st.Err)
	assert.Equal(t, KindNotFound, st.Err.Kind)
	assert.Equal(t, "Failed to delete event", st.ErrorMessage())
	assert.Len(t, st.Events, 1)
}

func TestEmptyIDIsValidationError(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, nil)

	s.DeleteEvent(context.Background(), " ")
	require.NotNil(t, s.State().Err)
	assert.Equal(t, KindValidation, s.State().Err.Kind)

	s.UpdateEvent(context.Background(), "", events.Payload{Title: "x"})
	require.NotNil(t, s.State().Err)
	assert.ErrorIs(t, s.State().Err, ErrEmptyID)
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestErrorClearedWhenNextOperationStarts(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, []events.Event{ev("1", nil)})

	api.del = func(context.Context, string) error { return errors.New("boom") }
	s.DeleteEvent(context.Background(), "1")
	require.NotNil(t, s.State().Err)

	var sawCleared bool
	unsubscribe := s.Subscribe(func(st State) {
		if st.Loading && st.Err == nil {
			sawCleared = true
		}
	})
	defer unsubscribe()

	api.del = func(context.Context, string) error { return nil }
	s.DeleteEvent(context.Background(), "1")

	assert.True(t, sawCleared)
	assert.Nil(t, s.State().Err)
	assert.Empty(t, s.State().Events)
}

func TestLoadingStaysTrueUntilLastOperation(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, []events.Event{ev("1", nil), ev("2", nil)})

	release1 := make(chan struct{})
	release2 := make(chan struct{})
	started := make(chan string, 2)
	api.del = func(_ context.Context, id string) error {
		started <- id
		if id == "1" {
			<-release1
		} else {
			<-release2
		}
		return nil
	}

	var wg sync.WaitGroup
	for _, id := range []string{"1", "2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s.DeleteEvent(context.Background(), id)
		}(id)
	}
	<-started
	<-started
	assert.True(t, s.State().Loading)

	close(release1)
	require.Eventually(t, func() bool {
		return len(s.State().Events) == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, s.State().Loading, "second delete still in flight")

	close(release2)
	wg.Wait()
	st := s.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Events)
}

func TestFetchEvents_CoalescesEqualParams(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 4)
	api := &fakeAPI{list: func(context.Context, events.ListParams) (events.ListResult, error) {
		entered <- struct{}{}
		<-release
		return events.ListResult{Data: []events.Event{ev("1", nil)}}, nil
	}}
	s := New(api)

	params := events.ListParams{Page: 1, Search: "jazz"}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.FetchEvents(context.Background(), params)
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.FetchEvents(context.Background(), params)
	}()
	// second caller joins the in-flight call once it has marked itself loading
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.inFlight == 2
	}, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), api.calls.Load())
	assert.Len(t, s.State().Events, 1)
	assert.False(t, s.State().Loading)
}

func TestUpdateAndDeleteSameIDRunInOrder(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, []events.Event{ev("1", nil)})

	var active atomic.Int32
	var overlapped atomic.Bool
	enter := func() {
		if active.Add(1) > 1 {
			overlapped.Store(true)
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
	}
	api.update = func(_ context.Context, id string, _ events.Payload) (events.Event, error) {
		enter()
		return ev(id, map[string]any{"title": "u"}), nil
	}
	api.del = func(context.Context, string) error {
		enter()
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.UpdateEvent(context.Background(), "1", events.Payload{Title: "u"})
	}()
	go func() {
		defer wg.Done()
		s.DeleteEvent(context.Background(), "1")
	}()
	wg.Wait()

	assert.False(t, overlapped.Load())
	assert.Equal(t, int32(2), api.calls.Load())
	assert.Equal(t, 0, s.ids.len())
}

func TestSubscribe(t *testing.T) {
	api := &fakeAPI{list: func(context.Context, events.ListParams) (events.ListResult, error) {
		return events.ListResult{Data: []events.Event{ev("1", nil)}}, nil
	}}
	s := New(api)

	var got []State
	unsubscribe := s.Subscribe(func(st State) { got = append(got, st) })

	s.FetchEvents(context.Background(), events.ListParams{})
	require.Len(t, got, 2)
	assert.True(t, got[0].Loading)
	assert.Empty(t, got[0].Events)
	assert.False(t, got[1].Loading)
	assert.Len(t, got[1].Events, 1)

	unsubscribe()
	unsubscribe()
	s.FetchEvents(context.Background(), events.ListParams{})
	assert.Len(t, got, 2)
}

func TestSubscriberReadingStateDuringConcurrentFetches(t *testing.T) {
	api := &fakeAPI{list: func(_ context.Context, params events.ListParams) (events.ListResult, error) {
		time.Sleep(time.Millisecond)
		return events.ListResult{Data: []events.Event{ev("1", nil)}, Meta: &events.Meta{Page: params.Page}}, nil
	}}
	s := New(api)

	var seen atomic.Int32
	s.Subscribe(func(State) {
		time.Sleep(time.Millisecond)
		_ = s.State()
		seen.Add(1)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 1; i <= 20; i++ {
			wg.Add(1)
			go func(page int) {
				defer wg.Done()
				s.FetchEvents(context.Background(), events.ListParams{Page: page})
			}(i)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("fetches with a State-reading subscriber never completed")
	}
	assert.Equal(t, int32(40), seen.Load())
	assert.False(t, s.State().Loading)
}

func TestMutationFailuresKeepEventsAndMeta(t *testing.T) {
	ops := []struct {
		name   string
		op     Op
		fail   func(api *fakeAPI, err error)
		invoke func(s *Store)
	}{
		{
			name: "add",
			op:   OpCreate,
			fail: func(api *fakeAPI, err error) {
				api.create = func(context.Context, events.Payload) (events.Event, error) { return events.Event{}, err }
			},
			invoke: func(s *Store) { s.AddEvent(context.Background(), events.Payload{Title: "B"}) },
		},
		{
			name: "update",
			op:   OpUpdate,
			fail: func(api *fakeAPI, err error) {
				api.update = func(context.Context, string, events.Payload) (events.Event, error) { return events.Event{}, err }
			},
			invoke: func(s *Store) { s.UpdateEvent(context.Background(), "1", events.Payload{Title: "A2"}) },
		},
		{
			name: "delete",
			op:   OpDelete,
			fail: func(api *fakeAPI, err error) {
				api.del = func(context.Context, string) error { return err }
			},
			invoke: func(s *Store) { s.DeleteEvent(context.Background(), "1") },
		},
	}
	responses := []struct {
		name    string
		err     error
		kind    Kind
		message string
	}{
		{"server message", &apiclient.Error{StatusCode: http.StatusForbidden, Message: "Not allowed"}, KindRejected, "Not allowed"},
		{"no server message", &apiclient.Error{StatusCode: http.StatusInternalServerError}, KindRejected, ""},
		{"network", errors.New("dial tcp: connection refused"), KindNetwork, ""},
	}

	for _, tt := range ops {
		for _, resp := range responses {
			t.Run(tt.name+"/"+resp.name, func(t *testing.T) {
				api := &fakeAPI{}
				rec := &recorder{}
				s := seeded(t, api, []events.Event{ev("1", map[string]any{"title": "A"}), ev("2", nil)}, WithNotifier(rec))
				before := s.State()
				require.NotNil(t, before.Meta)

				tt.fail(api, resp.err)
				tt.invoke(s)

				st := s.State()
				assert.Equal(t, before.Events, st.Events)
				assert.Equal(t, before.Meta, st.Meta)
				assert.False(t, st.Loading)
				require.NotNil(t, st.Err)
				assert.Equal(t, tt.op, st.Err.Op)
				assert.Equal(t, resp.kind, st.Err.Kind)

				want := resp.message
				if want == "" {
					want = FallbackMessage(tt.op)
				}
				assert.Equal(t, want, st.ErrorMessage())

				assert.Empty(t, rec.succeeded)
				require.Len(t, rec.failed, 1)
				assert.Equal(t, tt.op, rec.failed[0].op)
				assert.Equal(t, want, rec.failed[0].err.Message())
			})
		}
	}
}

func TestStateReturnsCopy(t *testing.T) {
	api := &fakeAPI{}
	s := seeded(t, api, []events.Event{ev("1", nil)})

	st := s.State()
	st.Events[0] = ev("mutated", nil)

	assert.Equal(t, "1", s.State().Events[0].ID)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantKind    Kind
		wantMessage string
	}{
		{"not found", &apiclient.Error{StatusCode: 404}, KindNotFound, "Failed to update event"},
		{"bad request with message", &apiclient.Error{StatusCode: 400, Message: "title is required"}, KindValidation, "title is required"},
		{"unprocessable", &apiclient.Error{StatusCode: 422}, KindValidation, "Failed to update event"},
		{"server error", &apiclient.Error{StatusCode: 500}, KindRejected, "Failed to update event"},
		{"unauthorized", &apiclient.Error{StatusCode: 401, Message: "Token expired"}, KindRejected, "Token expired"},
		{"transport", errors.New("connection reset"), KindNetwork, "Failed to update event"},
		{"deadline", context.DeadlineExceeded, KindNetwork, "Failed to update event"},
		{"invalid id", apiclient.ErrInvalidID, KindValidation, "Failed to update event"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(OpUpdate, tt.err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantMessage, got.Message())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestFallbackMessages(t *testing.T) {
	assert.Equal(t, "Failed to fetch events", FallbackMessage(OpFetch))
	assert.Equal(t, "Failed to create event", FallbackMessage(OpCreate))
	assert.Equal(t, "Failed to update event", FallbackMessage(OpUpdate))
	assert.Equal(t, "Failed to delete event", FallbackMessage(OpDelete))
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	k := newKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := k.Lock(context.Background(), "b")
	require.NoError(t, err)
	other()

	unlock()
	assert.Equal(t, 0, k.len())
}
