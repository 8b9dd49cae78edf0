package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "eventtracker/internal/adapters/email"
	"eventtracker/internal/application/imagedata"
	"eventtracker/internal/domain/event"

	"github.com/google/uuid"
)

// EventStoreForCreate defines the store interface needed by CreateEvent.
type EventStoreForCreate interface {
	Save(ctx context.Context, e event.Event) error
}

// ImageUploader moves an inline image to an image host.
type ImageUploader interface {
	Upload(ctx context.Context, dataURL string) (string, error)
}

// CreateEventInput carries a validated draft and its author.
type CreateEventInput struct {
	Draft        event.Draft
	CreatedBy    string
	CreatorEmail string
}

// CreateEventDeps holds dependencies for CreateEvent. ImageHost and Sender are optional.
type CreateEventDeps struct {
	EventStore EventStoreForCreate
	ImageHost  ImageUploader
	Sender     emailAdapter.Sender
	NotifyTo   []string
	Categories event.Categories
	Location   *time.Location
	Now        func() time.Time
}

// ExecuteCreateEvent persists a new event built from a validated draft.
// PRE: input.Draft passed event.ValidateDraft; input.CreatedBy is an account id
// POST: the event is saved with a fresh id; a hosted image URL replaces the
// inline one when the upload succeeds; a notice is sent when recipients are configured
// INVARIANT: upload and notice failures never fail the creation
func ExecuteCreateEvent(ctx context.Context, input CreateEventInput, deps CreateEventDeps) (event.Event, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	e, err := event.FromDraft(input.Draft, deps.Location)
	if err != nil {
		return event.Event{}, fmt.Errorf("convert draft: %w", err)
	}
	e.ID = uuid.New().String()
	e.CreatedBy = input.CreatedBy
	e.CreatedAt = now()
	if err := e.Validate(); err != nil {
		return event.Event{}, err
	}

	if deps.ImageHost != nil && imagedata.IsDataURL(e.Image) {
		hosted, err := deps.ImageHost.Upload(ctx, e.Image)
		if err != nil {
			slog.Warn("event_event", "event", "image_upload_failed", "event_id", e.ID, "error", err)
		} else {
			e.Image = hosted
		}
	}

	if err := deps.EventStore.Save(ctx, e); err != nil {
		return event.Event{}, fmt.Errorf("save event: %w", err)
	}
	slog.Info("event_event", "event", "created", "event_id", e.ID, "created_by", e.CreatedBy, "category", string(e.Category))

	if deps.Sender != nil && len(deps.NotifyTo) > 0 {
		sendCreatedNotice(ctx, e, input.CreatorEmail, deps)
	}
	return e, nil
}

func sendCreatedNotice(ctx context.Context, e event.Event, creatorEmail string, deps CreateEventDeps) {
	label := ""
	if e.Category != "" {
		label = deps.Categories.Label(e.Category)
	}
	msg, err := emailAdapter.EventCreatedNotice(deps.NotifyTo, e, label, creatorEmail, deps.Location)
	if err != nil {
		slog.Warn("event_event", "event", "notice_compose_failed", "event_id", e.ID, "error", err)
		return
	}
	if _, err := deps.Sender.Send(ctx, msg); err != nil {
		slog.Warn("event_event", "event", "notice_send_failed", "event_id", e.ID, "error", err)
	}
}
