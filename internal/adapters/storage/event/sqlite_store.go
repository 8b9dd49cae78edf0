package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventtracker/internal/adapters/storage"
	domain "eventtracker/internal/domain/event"
)

const columns = "id, title, description, location, starts_at, image, category, created_by, created_at"

// Timestamps are stored as fixed-width UTC text so string order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an event.
// POST: returns ErrNotFound when no row matches
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+columns+" FROM event WHERE id = ?", id)
	if err != nil {
		return domain.Event{}, err
	}
	events, err := scanEvents(rows)
	if err != nil {
		return domain.Event{}, err
	}
	if len(events) == 0 {
		return domain.Event{}, ErrNotFound
	}
	return events[0], nil
}

// Save inserts or replaces an event.
// PRE: value.Validate() == nil and value.ID is set
func (s *SQLiteStore) Save(ctx context.Context, value domain.Event) error {
	if value.ID == "" {
		return errors.New("event id is required")
	}
	if err := value.Validate(); err != nil {
		return err
	}
	var category any
	if value.Category != "" {
		category = string(value.Category)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO event (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			description=excluded.description,
			location=excluded.location,
			starts_at=excluded.starts_at,
			image=excluded.image,
			category=excluded.category`,
		value.ID,
		value.Title,
		value.Description,
		value.Location,
		formatTime(value.Date),
		value.Image,
		category,
		value.CreatedBy,
		formatTime(value.CreatedAt),
	)
	return err
}

// List returns the events matching filter ordered by start time.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	where, args := buildWhere(filter)
	var q strings.Builder
	q.WriteString("SELECT " + columns + " FROM event" + where + " ORDER BY starts_at")
	if filter.Descending {
		q.WriteString(" DESC")
	}
	q.WriteString(", id")
	if filter.Limit > 0 {
		q.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, filter.Limit, filter.Offset)
	}
	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// Count returns how many events match filter, ignoring Limit and Offset.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := buildWhere(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event"+where, args...).Scan(&n)
	return n, err
}

func buildWhere(f ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(f.Category))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + escapeLike(term) + "%"
		clauses = append(clauses, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR location LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "starts_at >= ?")
		args = append(args, formatTime(f.From))
	}
	if !f.Before.IsZero() {
		clauses = append(clauses, "starts_at < ?")
		args = append(args, formatTime(f.Before))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func scanEvents(rows *sql.Rows) ([]domain.Event, error) {
	defer rows.Close()
	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		var startsAt, createdAt string
		var category sql.NullString
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &startsAt, &e.Image, &category, &e.CreatedBy, &createdAt); err != nil {
			return nil, err
		}
		var err error
		if e.Date, err = time.Parse(timeLayout, startsAt); err != nil {
			return nil, fmt.Errorf("event %s starts_at: %w", e.ID, err)
		}
		if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("event %s created_at: %w", e.ID, err)
		}
		e.Category = domain.Category(category.String)
		out = append(out, e)
	}
	return out, rows.Err()
}
