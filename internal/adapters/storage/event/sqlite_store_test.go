package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventtracker/internal/adapters/storage"
	domain "eventtracker/internal/domain/event"
)

var base = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO account (id, email, role, created_at) VALUES ('acct', 'ana@example.com', 'member', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatal(err)
	}
	return NewSQLiteStore(db)
}

func seed(t *testing.T, s *SQLiteStore, events ...domain.Event) {
	t.Helper()
	for _, e := range events {
		if e.Description == "" {
			e.Description = "desc"
		}
		if e.Location == "" {
			e.Location = "Centro"
		}
		e.CreatedBy = "acct"
		e.CreatedAt = base
		if err := s.Save(context.Background(), e); err != nil {
			t.Fatalf("Save %s: %v", e.ID, err)
		}
	}
}

// TestSQLiteStore_RoundTrip tests every column survives save and load.
func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := domain.Event{
		ID: "e1", Title: "Festa na Praia", Description: "Evento ao ar livre", Location: "Praia Grande",
		Date: base.In(time.FixedZone("BRT", -3*3600)), Image: "data:image/png;base64,AA==", Category: "music",
		CreatedBy: "acct", CreatedAt: base,
	}
	if err := s.Save(context.Background(), want); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetByID(context.Background(), "e1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != want.Title || got.Image != want.Image || got.Category != "music" || !got.Date.Equal(want.Date) {
		t.Fatalf("got %+v", got)
	}

	if _, err := s.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestSQLiteStore_NullCategory tests an absent category is stored as NULL.
func TestSQLiteStore_NullCategory(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, domain.Event{ID: "e1", Title: "Sem categoria", Date: base})
	got, err := s.GetByID(context.Background(), "e1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Category != "" {
		t.Fatalf("category = %q", got.Category)
	}
	n, err := s.Count(context.Background(), ListFilter{Category: "music"})
	if err != nil || n != 0 {
		t.Fatalf("Count(music) = %d, %v", n, err)
	}
}

// TestSQLiteStore_SaveRejectsInvalid tests the storage guard.
func TestSQLiteStore_SaveRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(context.Background(), domain.Event{ID: "e1", Date: base}); err == nil {
		t.Fatal("expected validation error")
	}
	if err := s.Save(context.Background(), domain.Event{Title: "t", Description: "d", Location: "l", Date: base}); err == nil {
		t.Fatal("expected missing id error")
	}
}

// TestSQLiteStore_List tests filters, ordering and paging.
func TestSQLiteStore_List(t *testing.T) {
	s := newTestStore(t)
	seed(t, s,
		domain.Event{ID: "past", Title: "Feira antiga", Date: base.Add(-48 * time.Hour), Category: "food"},
		domain.Event{ID: "soon", Title: "Show na praça", Date: base.Add(2 * time.Hour), Category: "music"},
		domain.Event{ID: "later", Title: "Trilha", Description: "Caminhada 100% natural", Date: base.Add(72 * time.Hour), Category: "nature"},
		domain.Event{ID: "music2", Title: "Roda de samba", Date: base.Add(24 * time.Hour), Category: "music"},
	)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"all ascending", ListFilter{}, []string{"past", "soon", "music2", "later"}},
		{"upcoming", ListFilter{From: base}, []string{"soon", "music2", "later"}},
		{"past descending", ListFilter{Before: base, Descending: true}, []string{"past"}},
		{"category", ListFilter{Category: "music"}, []string{"soon", "music2"}},
		{"search title", ListFilter{Search: "samba"}, []string{"music2"}},
		{"search is literal", ListFilter{Search: "100%"}, []string{"later"}},
		{"search underscore", ListFilter{Search: "_"}, nil},
		{"paged", ListFilter{Limit: 2, Offset: 1}, []string{"soon", "music2"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.List(ctx, tc.filter)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			if len(ids) != len(tc.want) {
				t.Fatalf("ids = %v, want %v", ids, tc.want)
			}
			for i := range ids {
				if ids[i] != tc.want[i] {
					t.Fatalf("ids = %v, want %v", ids, tc.want)
				}
			}
		})
	}

	n, err := s.Count(ctx, ListFilter{From: base, Limit: 1})
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v; want 3", n, err)
	}
}
