package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndLatestObservation(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if o, err := store.LatestObservation(ctx, "t"); err != nil || o != nil {
		t.Fatalf("expected no observation yet, got %v, %v", o, err)
	}

	first := &Observation{Target: "t", Value: "/v1.pdf"}
	if err := store.RecordObservation(ctx, first); err != nil {
		t.Fatal(err)
	}
	if first.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	if err := store.RecordObservation(ctx, &Observation{Target: "t", Value: "/v2.pdf", Changed: true}); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordObservation(ctx, &Observation{Target: "other", Value: "x"}); err != nil {
		t.Fatal(err)
	}

	latest, err := store.LatestObservation(ctx, "t")
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.Value != "/v2.pdf" || !latest.Changed {
		t.Fatalf("unexpected latest observation: %+v", latest)
	}
}

func TestRecordAndListChanges(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	old := "/v1.pdf"
	if err := store.RecordChange(ctx, &Change{Target: "t", NewValue: "/v1.pdf"}); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordChange(ctx, &Change{Target: "t", OldValue: &old, NewValue: "/v2.pdf", Diff: "-/v1.pdf\n+/v2.pdf\n"}); err != nil {
		t.Fatal(err)
	}

	changes, err := store.ListChanges(ctx, "t", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	// newest first
	if changes[0].NewValue != "/v2.pdf" {
		t.Fatalf("expected newest change first, got %+v", changes[0])
	}
	if changes[0].OldValue == nil || *changes[0].OldValue != "/v1.pdf" {
		t.Fatalf("expected old value, got %+v", changes[0].OldValue)
	}
	if changes[1].OldValue != nil {
		t.Fatalf("expected nil old value on first change, got %v", *changes[1].OldValue)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.RecordObservation(context.Background(), &Observation{Target: "t", Value: "v"}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	o, err := reopened.LatestObservation(context.Background(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if o == nil || o.Value != "v" {
		t.Fatalf("expected persisted observation, got %+v", o)
	}
}
