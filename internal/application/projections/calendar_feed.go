package projections

import (
	"context"
	"time"

	ics "github.com/arran4/golang-ical"

	eventStore "eventtracker/internal/adapters/storage/event"
	"eventtracker/internal/domain/event"
)

// FeedEventDuration is the length given to feed entries, which have no end time.
const FeedEventDuration = 2 * time.Hour

// FeedLimit caps how many upcoming events the feed carries.
const FeedLimit = 500

// CalendarFeedDeps holds dependencies for CalendarFeed.
type CalendarFeedDeps struct {
	EventStore EventStore
	Categories event.Categories
	Now        func() time.Time
	ProductID  string
	Name       string
}

// QueryCalendarFeed renders the upcoming events as an iCalendar document.
func QueryCalendarFeed(ctx context.Context, deps CalendarFeedDeps) (string, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	stamp := now()
	events, err := deps.EventStore.List(ctx, eventStore.ListFilter{From: stamp, Limit: FeedLimit})
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	productID := deps.ProductID
	if productID == "" {
		productID = "-//eventtracker//events//PT"
	}
	cal.SetProductId(productID)
	if deps.Name != "" {
		cal.SetXWRCalName(deps.Name)
	}

	for _, e := range events {
		ve := cal.AddEvent(e.ID + "@eventtracker")
		ve.SetDtStampTime(stamp)
		ve.SetCreatedTime(e.CreatedAt)
		ve.SetStartAt(e.Date)
		ve.SetEndAt(e.Date.Add(FeedEventDuration))
		ve.SetSummary(e.Title)
		ve.SetLocation(e.Location)
		ve.SetDescription(e.Description)
		if e.Category != "" {
			ve.AddProperty(ics.ComponentPropertyCategories, deps.Categories.Label(e.Category))
		}
	}
	return cal.Serialize(), nil
}
