package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"diabetes-diary/internal/alert"
	"diabetes-diary/internal/diary"
	"diabetes-diary/internal/patient"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	s := &SQLiteStorage{db: db}

	// Create tables if they don't exist
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			time TEXT NOT NULL, -- "HH:MM" local wall clock
			date TEXT, -- optional "YYYY-MM-DD" anchor
			repeat TEXT NOT NULL,
			offset_min INTEGER NOT NULL DEFAULT 0,
			sound TEXT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT 1,
			next_time INTEGER NOT NULL DEFAULT 0 -- epoch ms, 0 = not armed
		)`,
		`CREATE TABLE IF NOT EXISTS daily_records (
			date TEXT PRIMARY KEY,
			entries TEXT NOT NULL -- JSON array of measurements
		)`,
		`CREATE TABLE IF NOT EXISTS patient (
			id TEXT PRIMARY KEY,
			profile TEXT NOT NULL -- JSON document
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %q: %w", query, err)
		}
	}
	return nil
}

// Alert operations

func (s *SQLiteStorage) PutAlert(a *alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO alerts (id, name, time, date, repeat, offset_min, sound, enabled, next_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Time, a.Date, a.Repeat, a.OffsetMin, a.Sound, a.Enabled, a.NextTime)
	if err != nil {
		return fmt.Errorf("failed to put alert: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetAlert(id int64) (*alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT id, name, time, date, repeat, offset_min, sound, enabled, next_time
		FROM alerts WHERE id = ?`, id)
	return scanAlert(row)
}

func (s *SQLiteStorage) ListAlerts() ([]*alert.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, name, time, date, repeat, offset_min, sound, enabled, next_time
		FROM alerts`)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var list []*alert.Alert
	for rows.Next() {
		var a alert.Alert
		var date sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &a.Time, &date, &a.Repeat, &a.OffsetMin, &a.Sound, &a.Enabled, &a.NextTime); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Date = date.String
		list = append(list, &a)
	}
	return list, rows.Err()
}

func (s *SQLiteStorage) DeleteAlert(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM alerts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return nil
}

func scanAlert(row *sql.Row) (*alert.Alert, error) {
	var a alert.Alert
	var date sql.NullString
	err := row.Scan(&a.ID, &a.Name, &a.Time, &date, &a.Repeat, &a.OffsetMin, &a.Sound, &a.Enabled, &a.NextTime)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan alert: %w", err)
	}
	a.Date = date.String
	return &a, nil
}

// Day record operations

func (s *SQLiteStorage) PutDay(d *diary.DayRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := json.Marshal(d.Entries)
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO daily_records (date, entries) VALUES (?, ?)`,
		d.Date, string(entries))
	if err != nil {
		return fmt.Errorf("failed to put day record: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetDay(date string) (*diary.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	err := s.db.QueryRow(`SELECT entries FROM daily_records WHERE date = ?`, date).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day record: %w", err)
	}

	d := &diary.DayRecord{Date: date}
	if err := json.Unmarshal([]byte(raw), &d.Entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entries: %w", err)
	}
	return d, nil
}

func (s *SQLiteStorage) ListDays() ([]*diary.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT date, entries FROM daily_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to list day records: %w", err)
	}
	defer rows.Close()

	var list []*diary.DayRecord
	for rows.Next() {
		var d diary.DayRecord
		var raw string
		if err := rows.Scan(&d.Date, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan day record: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &d.Entries); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entries: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

// Patient operations

func (s *SQLiteStorage) PutPatient(p *patient.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO patient (id, profile) VALUES (?, ?)`,
		patient.RecordID, string(doc))
	if err != nil {
		return fmt.Errorf("failed to put profile: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetPatient() (*patient.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	err := s.db.QueryRow(`SELECT profile FROM patient WHERE id = ?`, patient.RecordID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var p patient.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &p, nil
}
