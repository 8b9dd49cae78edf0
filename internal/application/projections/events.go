package projections

import (
	"context"
	"net/url"
	"time"

	eventStore "eventtracker/internal/adapters/storage/event"
	"eventtracker/internal/application/listutil"
	"eventtracker/internal/domain/event"
)

// EventStore interface for event queries.
type EventStore interface {
	List(ctx context.Context, filter eventStore.ListFilter) ([]event.Event, error)
	Count(ctx context.Context, filter eventStore.ListFilter) (int, error)
}

// When selects events relative to now.
type When string

const (
	WhenUpcoming When = "upcoming"
	WhenPast     When = "past"
	WhenAll      When = "all"
)

// ListEventsQuery is the browse-and-filter request.
type ListEventsQuery struct {
	Category event.Category
	Search   string
	When     When
	Page     int
	PerPage  int
}

// ParseListEventsQuery reads the browse filters from a query string.
// Unknown categories and periods fall back to "no filter" and "upcoming".
func ParseListEventsQuery(q url.Values, cats event.Categories) ListEventsQuery {
	page := listutil.ParsePageParams(q)
	fp := listutil.ParseFilterParams(q, []string{"category", "when"})
	out := ListEventsQuery{Search: fp.Search, When: WhenUpcoming, Page: page.Page, PerPage: page.PerPage}
	if c := event.Category(fp.Filters["category"]); cats.Contains(c) {
		out.Category = c
	}
	switch w := When(fp.Filters["when"]); w {
	case WhenPast, WhenAll:
		out.When = w
	}
	return out
}

// EventItem is one row of the events page.
type EventItem struct {
	event.Event
	CategoryLabel string `json:"categoryLabel,omitempty"`
	Past          bool   `json:"past"`
}

// ListEventsResult is a page of events plus its metadata.
type ListEventsResult struct {
	Events   []EventItem       `json:"events"`
	PageInfo listutil.PageInfo `json:"page"`
	Query    ListEventsQuery   `json:"-"`
}

// ListEventsDeps holds dependencies for ListEvents.
type ListEventsDeps struct {
	EventStore EventStore
	Categories event.Categories
	Now        func() time.Time
}

// QueryListEvents returns one page of events matching q. Upcoming and all
// are sorted soonest first; past is sorted most recent first.
// POST: PageInfo.Page is clamped into range
func QueryListEvents(ctx context.Context, q ListEventsQuery, deps ListEventsDeps) (ListEventsResult, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	filter := eventStore.ListFilter{Category: q.Category, Search: q.Search}
	switch q.When {
	case WhenPast:
		filter.Before = now()
		filter.Descending = true
	case WhenAll:
	default:
		filter.From = now()
	}

	total, err := deps.EventStore.Count(ctx, filter)
	if err != nil {
		return ListEventsResult{}, err
	}
	page := listutil.NewPageInfo(q.Page, q.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	events, err := deps.EventStore.List(ctx, filter)
	if err != nil {
		return ListEventsResult{}, err
	}
	items := make([]EventItem, 0, len(events))
	for _, e := range events {
		item := EventItem{Event: e, Past: e.IsPast(now())}
		if e.Category != "" {
			item.CategoryLabel = deps.Categories.Label(e.Category)
		}
		items = append(items, item)
	}
	return ListEventsResult{Events: items, PageInfo: page, Query: q}, nil
}
