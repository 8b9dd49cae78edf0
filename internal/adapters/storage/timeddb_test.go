package storage

import (
	"context"
	"testing"
	"time"

	"eventtracker/internal/adapters/http/perf"
)

// TestTimedDB_Records tests every call kind lands in the collector.
func TestTimedDB_Records(t *testing.T) {
	db := openTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector, time.Hour)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := tdb.ExecContext(ctx, "INSERT INTO kv VALUES (?, ?)", "a", "1"); err != nil {
		t.Fatal(err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT k FROM kv")
	if err != nil {
		t.Fatal(err)
	}
	rows.Close()
	var v string
	if err := tdb.QueryRowContext(ctx, "SELECT v FROM kv WHERE k = ?", "a").Scan(&v); err != nil || v != "1" {
		t.Fatalf("QueryRowContext = %q, %v", v, err)
	}
	tx, err := tdb.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	tx.Rollback()

	if collector.TotalRecorded() != 5 {
		t.Fatalf("TotalRecorded = %d, want 5", collector.TotalRecorded())
	}
	rep := collector.Report(time.Now().Add(-time.Minute), 10)
	if rep.Queries.Count != 5 || rep.Requests.Count != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

// TestTimedDB_NilCollector tests timing works without a collector.
func TestTimedDB_NilCollector(t *testing.T) {
	tdb := NewTimedDB(openTestDB(t), nil, 0)
	if tdb.slow != DefaultSlowQuery {
		t.Fatalf("slow = %v", tdb.slow)
	}
	if err := tdb.PingContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tdb.Unwrap() == nil {
		t.Fatal("Unwrap returned nil")
	}
}
