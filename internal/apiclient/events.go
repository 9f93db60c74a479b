package apiclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
)

const (
	routeEvents = "/events"
	routeEvent  = "/events/{id}"
)

// ListEvents fetches a page of events.
func (c *Client) ListEvents(ctx context.Context, params events.ListParams) (events.ListResult, error) {
	var res events.ListResult
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  routeEvents,
		path:   routeEvents,
		query:  params.Query(),
	}, &res)
	if err != nil {
		return events.ListResult{}, err
	}
	if res.Data == nil {
		res.Data = []events.Event{}
	}
	return res, nil
}

// CreateEvent creates an event and returns it as stored by the server.
func (c *Client) CreateEvent(ctx context.Context, payload events.Payload) (events.Event, error) {
	var res envelope[events.Event]
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  routeEvents,
		path:   routeEvents,
		body:   payload,
	}, &res)
	if err != nil {
		return events.Event{}, err
	}
	return res.Data, nil
}

// UpdateEvent replaces the event's fields and returns the updated event.
func (c *Client) UpdateEvent(ctx context.Context, id string, payload events.Payload) (events.Event, error) {
	path, err := eventPath(id)
	if err != nil {
		return events.Event{}, err
	}
	var res envelope[events.Event]
	err = c.do(ctx, request{
		method: http.MethodPut,
		route:  routeEvent,
		path:   path,
		body:   payload,
	}, &res)
	if err != nil {
		return events.Event{}, err
	}
	return res.Data, nil
}

// DeleteEvent removes the event. Any 2xx response counts as success.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	path, err := eventPath(id)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  routeEvent,
		path:   path,
	}, nil)
}

func eventPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingID
	}
	// the id becomes a single path segment; URL.String escapes the rest
	if strings.ContainsAny(id, "/?#") {
		return "", ErrInvalidID
	}
	return routeEvents + "/" + id, nil
}
