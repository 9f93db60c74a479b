package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/ids"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
)

type eventRecord struct {
	seq       uint64
	id        string
	payload   events.Payload
	createdBy string
	createdAt time.Time
	updatedAt time.Time
}

func (r *eventRecord) event() events.Event {
	fields := map[string]any{
		"title":     r.payload.Title,
		"createdAt": r.createdAt.UTC().Format(time.RFC3339),
		"updatedAt": r.updatedAt.UTC().Format(time.RFC3339),
	}
	if r.payload.Description != "" {
		fields["description"] = r.payload.Description
	}
	if r.payload.Date != nil {
		fields["date"] = r.payload.Date.UTC().Format(time.RFC3339)
	}
	if r.payload.Location != "" {
		fields["location"] = r.payload.Location
	}
	if r.payload.Category != "" {
		fields["category"] = r.payload.Category
	}
	if r.payload.Capacity > 0 {
		fields["capacity"] = r.payload.Capacity
	}
	if r.createdBy != "" {
		fields["createdBy"] = r.createdBy
	}
	return events.NewEvent(r.id, fields)
}

type EventRepository struct {
	mu      sync.RWMutex
	records map[string]*eventRecord
	seq     uint64
	now     func() time.Time
}

func NewEventRepository() *EventRepository {
	return &EventRepository{
		records: make(map[string]*eventRecord),
		now:     time.Now,
	}
}

// List filters, sorts and pages the events. Sort accepts createdAt, date and
// title, optionally prefixed with "-" for descending order; the default is
// newest first. Ties keep creation order.
func (r *EventRepository) List(ctx context.Context, filter storage.EventFilter) (storage.EventPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.EventPage{}, err
	}

	r.mu.RLock()
	matched := make([]*eventRecord, 0, len(r.records))
	for _, rec := range r.records {
		if matches(rec, filter) {
			matched = append(matched, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	if err := sortRecords(matched, filter.Sort); err != nil {
		return storage.EventPage{}, err
	}

	page := storage.EventPage{Total: len(matched), Events: []events.Event{}}
	start, end := bounds(len(matched), filter.Page, filter.Limit)
	for _, rec := range matched[start:end] {
		page.Events = append(page.Events, rec.event())
	}
	return page, nil
}

func (r *EventRepository) Get(ctx context.Context, id string) (events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return events.Event{}, storage.ErrNotFound
	}
	return rec.event(), nil
}

func (r *EventRepository) Create(ctx context.Context, payload events.Payload, createdBy string) (events.Event, error) {
	id, err := ids.NewULID()
	if err != nil {
		return events.Event{}, fmt.Errorf("generate event id: %w", err)
	}
	now := r.now()
	rec := &eventRecord{
		id:        id,
		payload:   payload,
		createdBy: createdBy,
		createdAt: now,
		updatedAt: now,
	}

	r.mu.Lock()
	r.seq++
	rec.seq = r.seq
	r.records[id] = rec
	r.mu.Unlock()
	return rec.event(), nil
}

func (r *EventRepository) Update(ctx context.Context, id string, payload events.Payload) (events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return events.Event{}, storage.ErrNotFound
	}
	updated := *rec
	updated.payload = payload
	updated.updatedAt = r.now()
	r.records[id] = &updated
	return updated.event(), nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func matches(rec *eventRecord, filter storage.EventFilter) bool {
	if c := strings.TrimSpace(filter.Category); c != "" && !strings.EqualFold(rec.payload.Category, c) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(filter.Search))
	if q == "" {
		return true
	}
	for _, field := range []string{rec.payload.Title, rec.payload.Description, rec.payload.Location} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func sortRecords(recs []*eventRecord, sortBy string) error {
	sortBy = strings.TrimSpace(sortBy)
	desc := strings.HasPrefix(sortBy, "-")
	key := strings.TrimPrefix(sortBy, "-")

	var less func(a, b *eventRecord) bool
	switch key {
	case "", "createdAt":
		if sortBy == "" {
			desc = true
		}
		less = func(a, b *eventRecord) bool { return a.seq < b.seq }
	case "date":
		less = func(a, b *eventRecord) bool {
			// undated events sort last
			switch {
			case a.payload.Date == nil:
				return false
			case b.payload.Date == nil:
				return true
			}
			return a.payload.Date.Before(*b.payload.Date)
		}
	case "title":
		less = func(a, b *eventRecord) bool {
			return strings.ToLower(a.payload.Title) < strings.ToLower(b.payload.Title)
		}
	default:
		return fmt.Errorf("%w: unsupported sort %q", storage.ErrInvalidFilter, sortBy)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if desc {
			return less(recs[j], recs[i])
		}
		return less(recs[i], recs[j])
	})
	return nil
}

func bounds(n, page, limit int) (int, int) {
	if limit <= 0 {
		return 0, n
	}
	if page < 1 {
		page = 1
	}
	// compared before multiplying so a huge page cannot overflow
	if n == 0 || page-1 > (n-1)/limit {
		return n, n
	}
	start := (page - 1) * limit
	end := n
	if n-start > limit {
		end = start + limit
	}
	return start, end
}
