package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Category identifies one entry of the fixed category enumeration.
// The zero value means "no category".
type Category string

// MarshalJSON encodes the absent category as null.
func (c Category) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

// UnmarshalJSON accepts a string or null.
func (c *Category) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("category must be a string or null: %w", err)
	}
	*c = Category(s)
	return nil
}

// CategoryEntry pairs a category id with its display label.
type CategoryEntry struct {
	ID    Category `yaml:"id" json:"id"`
	Label string   `yaml:"label" json:"label"`
}

// Categories is the ordered, read-only category enumeration.
type Categories struct {
	ids    []Category
	labels map[Category]string
}

var (
	ErrEmptyCategoryID     = errors.New("category id cannot be empty")
	ErrDuplicateCategoryID = errors.New("category id is duplicated")
	ErrNoCategories        = errors.New("at least one category is required")
)

// DefaultCategoryEntries is the built-in enumeration used when no file is configured.
var DefaultCategoryEntries = []CategoryEntry{
	{ID: "music", Label: "Música"},
	{ID: "sports", Label: "Esportes"},
	{ID: "food", Label: "Gastronomia"},
	{ID: "culture", Label: "Cultura"},
	{ID: "nature", Label: "Natureza"},
	{ID: "party", Label: "Festa"},
	{ID: "education", Label: "Educação"},
	{ID: "other", Label: "Outros"},
}

// NewCategories builds the enumeration from ordered entries.
// PRE: entries is non-empty, ids are unique and non-empty
// POST: returns Categories preserving entry order; a missing label falls back to the id
func NewCategories(entries []CategoryEntry) (Categories, error) {
	if len(entries) == 0 {
		return Categories{}, ErrNoCategories
	}
	c := Categories{
		ids:    make([]Category, 0, len(entries)),
		labels: make(map[Category]string, len(entries)),
	}
	for _, e := range entries {
		id := Category(strings.TrimSpace(string(e.ID)))
		if id == "" {
			return Categories{}, ErrEmptyCategoryID
		}
		if _, dup := c.labels[id]; dup {
			return Categories{}, fmt.Errorf("%w: %s", ErrDuplicateCategoryID, id)
		}
		label := strings.TrimSpace(e.Label)
		if label == "" {
			label = string(id)
		}
		c.ids = append(c.ids, id)
		c.labels[id] = label
	}
	return c, nil
}

// DefaultCategories returns the built-in enumeration.
func DefaultCategories() Categories {
	c, err := NewCategories(DefaultCategoryEntries)
	if err != nil {
		panic(err)
	}
	return c
}

// IDs returns the category ids in display order.
func (c Categories) IDs() []Category {
	out := make([]Category, len(c.ids))
	copy(out, c.ids)
	return out
}

// Entries returns id/label pairs in display order.
func (c Categories) Entries() []CategoryEntry {
	out := make([]CategoryEntry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, CategoryEntry{ID: id, Label: c.labels[id]})
	}
	return out
}

// Contains reports whether id belongs to the enumeration.
func (c Categories) Contains(id Category) bool {
	_, ok := c.labels[id]
	return ok
}

// Label returns the display label for id, or the id itself when unknown.
func (c Categories) Label(id Category) string {
	if l, ok := c.labels[id]; ok {
		return l
	}
	return string(id)
}

// Len returns the number of categories.
func (c Categories) Len() int {
	return len(c.ids)
}
