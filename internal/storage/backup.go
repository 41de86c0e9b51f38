package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"diabetes-diary/internal/alert"
	"diabetes-diary/internal/diary"
	"diabetes-diary/internal/patient"
)

// Backup envelope constants. The names are part of the on-disk format and
// must stay stable across versions for restores to keep working.
const (
	BackupDBName  = "diabetesAppDB"
	BackupVersion = 2
)

type BackupMeta struct {
	ExportedAt time.Time `json:"exportedAt"`
	DBName     string    `json:"dbName"`
	Version    int       `json:"version"`
}

type BackupStores struct {
	DailyData   []*diary.DayRecord `json:"dailyData"`
	PatientData []*patient.Profile `json:"patientDataStore"`
}

// Backup is the export/restore document: full contents of every store plus
// metadata. PatientLocal carries the fast-cache copy of the profile, which
// may be newer than the mirrored one when the last mirror write was lost.
type Backup struct {
	Meta         BackupMeta       `json:"meta"`
	Stores       BackupStores     `json:"stores"`
	Alerts       []*alert.Alert   `json:"alerts"`
	PatientLocal *patient.Profile `json:"patientLocal,omitempty"`
}

// ParseBackup decodes and shape-checks a restore document. It validates
// before any writes happen so a malformed file has no side effects.
func ParseBackup(data []byte) (*Backup, error) {
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	if b.Meta.DBName == "" || b.Meta.Version == 0 {
		return nil, fmt.Errorf("%w: missing meta", ErrMalformedBackup)
	}
	return &b, nil
}

// Export bundles the full contents of every store.
func (f *Facade) Export() (*Backup, error) {
	alerts, err := f.ListAlerts()
	if err != nil {
		return nil, fmt.Errorf("export alerts: %w", err)
	}
	days, err := f.ListDays()
	if err != nil {
		return nil, fmt.Errorf("export day records: %w", err)
	}

	b := &Backup{
		Meta: BackupMeta{
			ExportedAt: time.Now(),
			DBName:     BackupDBName,
			Version:    BackupVersion,
		},
		Stores: BackupStores{DailyData: days},
		Alerts: alerts,
	}

	p, err := f.LoadPatient()
	if err == nil {
		b.Stores.PatientData = []*patient.Profile{p}
		b.PatientLocal = p
	}
	return b, nil
}

// Import upserts every record of the backup into the corresponding store.
// Existing records with the same key are overwritten; nothing else is
// touched (never a wipe-then-replace).
func (f *Facade) Import(b *Backup) error {
	for _, a := range b.Alerts {
		if a == nil {
			continue
		}
		a.Normalize()
		if err := f.UpdateAlert(a); err != nil {
			return fmt.Errorf("import alerts: %w", err)
		}
	}
	f.bumpAlertID(b.Alerts)

	for _, d := range b.Stores.DailyData {
		if d == nil || d.Date == "" {
			continue
		}
		if err := f.SaveDay(d); err != nil {
			return fmt.Errorf("import day records: %w", err)
		}
	}

	for _, p := range b.Stores.PatientData {
		if p == nil {
			continue
		}
		if err := f.SavePatient(p); err != nil {
			return fmt.Errorf("import profile: %w", err)
		}
	}
	if b.PatientLocal != nil {
		// Cache copy only, mirroring the source format's local-storage slot.
		b.PatientLocal.ID = patient.RecordID
		if err := f.cache.PutPatient(b.PatientLocal); err != nil {
			return fmt.Errorf("import profile: %w", err)
		}
	}
	return nil
}
