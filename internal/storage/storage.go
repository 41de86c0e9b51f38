package storage

import (
	"errors"

	"diabetes-diary/internal/alert"
	"diabetes-diary/internal/diary"
	"diabetes-diary/internal/patient"
)

// ErrNotFound is returned by Get operations for a missing record. Deletes of
// missing records are a no-op, not an error.
var ErrNotFound = errors.New("record not found")

// ErrMalformedBackup is returned when a restore document does not have the
// expected shape.
var ErrMalformedBackup = errors.New("malformed backup document")

// Storage defines the interface for data persistence of alerts, daily
// measurement records and the patient profile. Puts are whole-record
// upserts keyed by id/date.
type Storage interface {
	// Alert operations
	PutAlert(a *alert.Alert) error
	GetAlert(id int64) (*alert.Alert, error)
	ListAlerts() ([]*alert.Alert, error)
	DeleteAlert(id int64) error

	// Day record operations
	PutDay(d *diary.DayRecord) error
	GetDay(date string) (*diary.DayRecord, error)
	ListDays() ([]*diary.DayRecord, error)

	// Patient profile (singleton record)
	PutPatient(p *patient.Profile) error
	GetPatient() (*patient.Profile, error)
}
