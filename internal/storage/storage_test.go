package storage

import (
	"errors"
	"testing"

	"diabetes-diary/internal/alert"
	"diabetes-diary/internal/diary"
	"diabetes-diary/internal/patient"
)

func testAlert() *alert.Alert {
	return &alert.Alert{
		ID:        1,
		Name:      "Insulin",
		Time:      "20:00",
		Repeat:    alert.RepeatDaily,
		OffsetMin: 15,
		Sound:     "sound1",
		Enabled:   true,
	}
}

func testDay() *diary.DayRecord {
	return &diary.DayRecord{
		Date: "2025-06-01",
		Entries: []diary.Entry{
			{Time: "08:00", Sugar: 110, Insulin: 4, Notes: "before breakfast"},
			{Time: "13:30", Sugar: 145, Insulin: 6},
		},
	}
}

func runStorageTests(t *testing.T, store Storage) {
	// Alert CRUD
	a := testAlert()
	if err := store.PutAlert(a); err != nil {
		t.Fatalf("PutAlert failed: %v", err)
	}
	got, err := store.GetAlert(a.ID)
	if err != nil {
		t.Fatalf("GetAlert failed: %v", err)
	}
	if got.ID != a.ID || got.Name != a.Name || got.Time != a.Time || got.OffsetMin != a.OffsetMin {
		t.Errorf("GetAlert: got %+v, want %+v", got, a)
	}
	list, err := store.ListAlerts()
	if err != nil || len(list) != 1 {
		t.Errorf("ListAlerts: got %d, want 1", len(list))
	}

	// Put is a whole-record replace
	a.NextTime = 1700000000000
	a.Enabled = false
	if err := store.PutAlert(a); err != nil {
		t.Fatalf("PutAlert (replace) failed: %v", err)
	}
	got, err = store.GetAlert(a.ID)
	if err != nil {
		t.Fatalf("GetAlert after replace failed: %v", err)
	}
	if got.NextTime != a.NextTime || got.Enabled {
		t.Errorf("GetAlert after replace: got %+v", got)
	}

	if err := store.DeleteAlert(a.ID); err != nil {
		t.Errorf("DeleteAlert failed: %v", err)
	}
	if _, err := store.GetAlert(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after DeleteAlert, got %v", err)
	}
	// Deleting an unknown id is a no-op
	if err := store.DeleteAlert(999); err != nil {
		t.Errorf("DeleteAlert of unknown id: %v", err)
	}

	// Day record CRUD
	d := testDay()
	if err := store.PutDay(d); err != nil {
		t.Fatalf("PutDay failed: %v", err)
	}
	gotDay, err := store.GetDay(d.Date)
	if err != nil {
		t.Fatalf("GetDay failed: %v", err)
	}
	if gotDay.Date != d.Date || len(gotDay.Entries) != 2 || gotDay.Entries[0].Sugar != 110 {
		t.Errorf("GetDay: got %+v, want %+v", gotDay, d)
	}
	days, err := store.ListDays()
	if err != nil || len(days) != 1 {
		t.Errorf("ListDays: got %d, want 1", len(days))
	}
	if _, err := store.GetDay("1999-01-01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown date, got %v", err)
	}

	// Patient profile
	if _, err := store.GetPatient(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before PutPatient, got %v", err)
	}
	p := patient.New("Aya", 42, 68.5, "rapid")
	if err := store.PutPatient(p); err != nil {
		t.Fatalf("PutPatient failed: %v", err)
	}
	gotP, err := store.GetPatient()
	if err != nil {
		t.Fatalf("GetPatient failed: %v", err)
	}
	if gotP.ID != patient.RecordID || gotP.Name != "Aya" || gotP.Weight != 68.5 {
		t.Errorf("GetPatient: got %+v, want %+v", gotP, p)
	}

	// Last write wins
	p2 := patient.New("Aya", 43, 67.0, "mixed")
	if err := store.PutPatient(p2); err != nil {
		t.Fatalf("PutPatient (overwrite) failed: %v", err)
	}
	gotP, err = store.GetPatient()
	if err != nil || gotP.Age != 43 || gotP.InsulinType != "mixed" {
		t.Errorf("GetPatient after overwrite: got %+v, err %v", gotP, err)
	}
}

func TestMemoryStorage(t *testing.T) {
	store := NewMemoryStorage()
	runStorageTests(t, store)
}

func TestMemoryStorageCopies(t *testing.T) {
	store := NewMemoryStorage()
	a := testAlert()
	if err := store.PutAlert(a); err != nil {
		t.Fatalf("PutAlert failed: %v", err)
	}
	// Mutating the caller's record must not affect the stored one.
	a.Name = "changed"
	got, err := store.GetAlert(a.ID)
	if err != nil {
		t.Fatalf("GetAlert failed: %v", err)
	}
	if got.Name != "Insulin" {
		t.Errorf("stored alert mutated through caller's pointer: %+v", got)
	}
}
