package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLength bounds the description, counted in characters.
const MaxDescriptionLength = 500

// DateLayout is the datetime-local layout used by the creation form.
const DateLayout = "2006-01-02T15:04"

// Field names a draft field. Values double as form and JSON keys.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldLocation    Field = "location"
	FieldDate        Field = "date"
	FieldImage       Field = "image"
	FieldCategory    Field = "category"
)

// Fields lists every draft field in form order.
var Fields = []Field{FieldTitle, FieldDescription, FieldLocation, FieldDate, FieldCategory, FieldImage}

// ErrUnknownField is returned when a field name is not part of the draft.
var ErrUnknownField = errors.New("unknown draft field")

// ParseField maps a raw field name to a Field.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Draft is the in-progress, not yet persisted event record. It carries no
// identifier; one is assigned only when creation succeeds.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Date        string   `json:"date"`
	Image       string   `json:"image"`
	Category    Category `json:"category"`
}

// NewDraft returns the default draft: empty text, no category, and the
// current timestamp as date.
func NewDraft(now time.Time, loc *time.Location) Draft {
	return Draft{Date: FormatDate(now, loc)}
}

// Set replaces exactly one field of the draft.
// PRE: field is one of Fields
// POST: only the named field changes
func (d *Draft) Set(field Field, value string) error {
	switch field {
	case FieldTitle:
		d.Title = value
	case FieldDescription:
		d.Description = value
	case FieldLocation:
		d.Location = value
	case FieldDate:
		d.Date = value
	case FieldImage:
		d.Image = value
	case FieldCategory:
		d.Category = Category(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Get returns the current value of field.
func (d Draft) Get(field Field) string {
	switch field {
	case FieldTitle:
		return d.Title
	case FieldDescription:
		return d.Description
	case FieldLocation:
		return d.Location
	case FieldDate:
		return d.Date
	case FieldImage:
		return d.Image
	case FieldCategory:
		return string(d.Category)
	}
	return ""
}

// DescriptionLength counts the description in characters.
func (d Draft) DescriptionLength() int {
	return utf8.RuneCountInString(d.Description)
}

// FormatDate renders t in the form's datetime-local layout.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

var dateLayouts = []string{DateLayout, "2006-01-02T15:04:05"}

// MinutePrecision reports whether s is a form date without seconds.
func MinutePrecision(s string) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(s))
	return err == nil
}

// ParseDate parses a form date. Zone-less layouts are read in loc; RFC 3339
// input keeps its own offset.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// Event is a persisted community event.
// INVARIANT: Title, Description and Location are non-blank; Date is set.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	Image       string    `json:"image,omitempty"` // data URL or hosted URL
	Category    Category  `json:"category"`
	CreatedBy   string    `json:"createdBy"` // account ID
	CreatedAt   time.Time `json:"createdAt"`
}

// FromDraft converts a validated draft into an Event without ID or audit fields.
// PRE: ValidateDraft(d, ...) returned no errors
// POST: text fields are trimmed, Date is parsed in loc
func FromDraft(d Draft, loc *time.Location) (Event, error) {
	date, err := ParseDate(d.Date, loc)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Location:    strings.TrimSpace(d.Location),
		Date:        date,
		Image:       d.Image,
		Category:    d.Category,
	}, nil
}

// Validate checks the stored event's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("event title cannot be empty")
	}
	if strings.TrimSpace(e.Description) == "" {
		return errors.New("event description cannot be empty")
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return errors.New("event description cannot exceed 500 characters")
	}
	if strings.TrimSpace(e.Location) == "" {
		return errors.New("event location cannot be empty")
	}
	if e.Date.IsZero() {
		return errors.New("event date is required")
	}
	return nil
}

// IsPast reports whether the event started before now.
func (e *Event) IsPast(now time.Time) bool {
	return e.Date.Before(now)
}
