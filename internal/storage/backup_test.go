package storage

import (
	"encoding/json"
	"errors"
	"testing"

	"diabetes-diary/internal/alert"
	"diabetes-diary/internal/patient"
)

func TestBackupRoundTrip(t *testing.T) {
	src := NewFacade(NewMemoryStorage(), nil)

	a1 := &alert.Alert{Name: "Insulin", Time: "20:00", Repeat: alert.RepeatDaily, OffsetMin: 15, Sound: "sound1", Enabled: true}
	a2 := &alert.Alert{Name: "Walk", Time: "17:30", Repeat: alert.RepeatWeekly, Enabled: true}
	if _, err := src.CreateAlert(a1); err != nil {
		t.Fatalf("CreateAlert failed: %v", err)
	}
	if _, err := src.CreateAlert(a2); err != nil {
		t.Fatalf("CreateAlert failed: %v", err)
	}
	if err := src.SaveDay(testDay()); err != nil {
		t.Fatalf("SaveDay failed: %v", err)
	}
	if err := src.SavePatient(patient.New("Aya", 42, 68.5, "rapid")); err != nil {
		t.Fatalf("SavePatient failed: %v", err)
	}

	b, err := src.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if b.Meta.DBName != BackupDBName || b.Meta.Version != BackupVersion {
		t.Errorf("unexpected meta: %+v", b.Meta)
	}

	// Serialize through JSON like a real backup file.
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	parsed, err := ParseBackup(raw)
	if err != nil {
		t.Fatalf("ParseBackup failed: %v", err)
	}

	dst := NewFacade(NewMemoryStorage(), nil)
	if err := dst.Import(parsed); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	alerts, err := dst.ListAlerts()
	if err != nil || len(alerts) != 2 {
		t.Fatalf("ListAlerts after import: got %d, want 2 (err %v)", len(alerts), err)
	}
	byID := map[int64]*alert.Alert{}
	for _, a := range alerts {
		byID[a.ID] = a
	}
	got, ok := byID[a1.ID]
	if !ok {
		t.Fatalf("alert id %d not preserved across round trip", a1.ID)
	}
	if got.Name != a1.Name || got.Time != a1.Time || got.Repeat != a1.Repeat || got.OffsetMin != a1.OffsetMin {
		t.Errorf("round-tripped alert: got %+v, want %+v", got, a1)
	}

	day, err := dst.LoadDay("2025-06-01")
	if err != nil || len(day.Entries) != 2 {
		t.Errorf("LoadDay after import: got %+v, err %v", day, err)
	}
	p, err := dst.LoadPatient()
	if err != nil || p.Name != "Aya" {
		t.Errorf("LoadPatient after import: got %+v, err %v", p, err)
	}

	// New ids after import must not collide with imported ones.
	id, err := dst.CreateAlert(&alert.Alert{Name: "New", Time: "09:00"})
	if err != nil {
		t.Fatalf("CreateAlert after import failed: %v", err)
	}
	if _, taken := byID[id]; taken {
		t.Errorf("id %d collides with an imported alert", id)
	}
}

func TestImportIsUpsertNotReplace(t *testing.T) {
	dst := NewFacade(NewMemoryStorage(), nil)
	keep := &alert.Alert{Name: "Keep me", Time: "06:00", Enabled: true}
	if _, err := dst.CreateAlert(keep); err != nil {
		t.Fatalf("CreateAlert failed: %v", err)
	}

	b := &Backup{
		Meta:   BackupMeta{DBName: BackupDBName, Version: BackupVersion},
		Alerts: []*alert.Alert{{ID: 100, Name: "Imported", Time: "21:00", Enabled: true}},
	}
	if err := dst.Import(b); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	alerts, err := dst.ListAlerts()
	if err != nil || len(alerts) != 2 {
		t.Fatalf("ListAlerts: got %d, want 2 (err %v)", len(alerts), err)
	}
}

func TestParseBackupRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":     `{"meta":`,
		"missing meta": `{"stores":{},"alerts":[]}`,
		"empty object": `{}`,
	}
	for name, raw := range cases {
		if _, err := ParseBackup([]byte(raw)); !errors.Is(err, ErrMalformedBackup) {
			t.Errorf("%s: got %v, want ErrMalformedBackup", name, err)
		}
	}
}
