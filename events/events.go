// Package events reads community events from the backend and keeps a local
// list of them ordered by next occurrence.
package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/freegle/iznik-api/api"
)

const (
	eventsPath = "/communityevent"

	// DefaultGroupConcurrency caps parallel per-group fetches.
	DefaultGroupConcurrency = 4
)

// Event is a community event as the backend returns it.
type Event struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Location    string        `json:"location,omitempty"`
	Description string        `json:"description,omitempty"`
	Dates       []Date        `json:"dates"`
	Earliest    *EarliestDate `json:"earliestDate,omitempty"`
}

// Page is one response of the events list.
type Page struct {
	Events []Event
	// Context is the backend's paging cursor; pass it back to get the next page.
	Context api.Payload
}

// Next returns the cursor for the following page, or nil when there is none.
func (p *Page) Next() api.Payload {
	if p.Context == nil {
		return nil
	}
	if _, ok := p.Context["end"]; !ok {
		return nil
	}
	return p.Context
}

// API fetches community events.
type API struct {
	client *api.Client
	now    func() time.Time
}

// NewAPI creates an events API on top of c.
func NewAPI(c *api.Client) *API {
	return &API{client: c, now: time.Now}
}

type listResponse struct {
	CommunityEvents []Event     `json:"communityevents"`
	Context         api.Payload `json:"context"`
}

// Fetch reads one page of events. Each event's next occurrence is resolved
// against the current time.
func (a *API) Fetch(ctx context.Context, params map[string]string) (*Page, error) {
	res, err := a.client.Get(ctx, eventsPath, params)
	if err != nil {
		return nil, err
	}
	if res.Suppressed() {
		return &Page{}, nil
	}

	var body listResponse
	if err := res.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode community events: %w", err)
	}

	now := a.now()
	for i := range body.CommunityEvents {
		body.CommunityEvents[i].Earliest = Earliest(body.CommunityEvents[i].Dates, now)
	}
	return &Page{Events: body.CommunityEvents, Context: body.Context}, nil
}

// FetchGroups fetches the events of several groups concurrently, at most
// limit at a time, and returns them de-duplicated and sorted by next
// occurrence. The first failure cancels the rest.
func (a *API) FetchGroups(ctx context.Context, groupIDs []int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultGroupConcurrency
	}

	pages := make([]*Page, len(groupIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range groupIDs {
		g.Go(func() error {
			page, err := a.Fetch(gctx, map[string]string{"groupid": strconv.FormatInt(id, 10)})
			if err != nil {
				return fmt.Errorf("group %d: %w", id, err)
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var out []Event
	for _, page := range pages {
		for _, ev := range page.Events {
			if seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			out = append(out, ev)
		}
	}
	SortByEarliest(out)
	return out, nil
}
