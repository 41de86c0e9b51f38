package storage

import (
	"path/filepath"
	"testing"
)

func TestSQLiteStorage(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "test_diary.db")

	store, err := NewSQLiteStorage(dbFile)
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}
	defer store.Close()

	runStorageTests(t, store)
}

func TestSQLiteStoragePersistence(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "test_persist.db")

	store, err := NewSQLiteStorage(dbFile)
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}

	a := testAlert()
	if err := store.PutAlert(a); err != nil {
		t.Fatalf("PutAlert failed: %v", err)
	}
	d := testDay()
	if err := store.PutDay(d); err != nil {
		t.Fatalf("PutDay failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopen and verify records survived.
	store2, err := NewSQLiteStorage(dbFile)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite storage: %v", err)
	}
	defer store2.Close()

	got, err := store2.GetAlert(a.ID)
	if err != nil {
		t.Fatalf("GetAlert after reopen failed: %v", err)
	}
	if got.Name != a.Name || got.Time != a.Time {
		t.Errorf("GetAlert after reopen: got %+v, want %+v", got, a)
	}
	gotDay, err := store2.GetDay(d.Date)
	if err != nil {
		t.Fatalf("GetDay after reopen failed: %v", err)
	}
	if len(gotDay.Entries) != len(d.Entries) {
		t.Errorf("GetDay after reopen: got %d entries, want %d", len(gotDay.Entries), len(d.Entries))
	}
}
