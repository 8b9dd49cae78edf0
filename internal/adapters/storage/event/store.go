package event

import (
	"context"
	"errors"
	"time"

	domain "eventtracker/internal/domain/event"
)

// ErrNotFound is returned when no event matches.
var ErrNotFound = errors.New("event not found")

// Store persists events.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, value domain.Event) error
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter narrows List and Count. Zero values mean "no constraint".
type ListFilter struct {
	Category   domain.Category
	Search     string
	From       time.Time // inclusive
	Before     time.Time // exclusive
	Descending bool
	Limit      int
	Offset     int
}
