package storage

import (
	"sync"

	"diabetes-diary/internal/alert"
	"diabetes-diary/internal/diary"
	"diabetes-diary/internal/patient"
)

// MemoryStorage keeps all records in process memory. It is both the
// standalone "memory" backend and the synchronous fast cache inside the
// Facade. Records are copied on the way in and out so callers never observe
// a half-updated record.
type MemoryStorage struct {
	alerts  map[int64]*alert.Alert
	days    map[string]*diary.DayRecord
	profile *patient.Profile
	mu      sync.Mutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		alerts: make(map[int64]*alert.Alert),
		days:   make(map[string]*diary.DayRecord),
	}
}

// Alert operations
func (m *MemoryStorage) PutAlert(a *alert.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *MemoryStorage) GetAlert(id int64) (*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStorage) ListAlerts() ([]*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*alert.Alert
	for _, a := range m.alerts {
		cp := *a
		list = append(list, &cp)
	}
	return list, nil
}

func (m *MemoryStorage) DeleteAlert(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.alerts, id)
	return nil
}

// Day record operations
func (m *MemoryStorage) PutDay(d *diary.DayRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.days[d.Date] = copyDay(d)
	return nil
}

func (m *MemoryStorage) GetDay(date string) (*diary.DayRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.days[date]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDay(d), nil
}

func (m *MemoryStorage) ListDays() ([]*diary.DayRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*diary.DayRecord
	for _, d := range m.days {
		list = append(list, copyDay(d))
	}
	return list, nil
}

// Patient operations
func (m *MemoryStorage) PutPatient(p *patient.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profile = &cp
	return nil
}

func (m *MemoryStorage) GetPatient() (*patient.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil, ErrNotFound
	}
	cp := *m.profile
	return &cp, nil
}

func copyDay(d *diary.DayRecord) *diary.DayRecord {
	cp := &diary.DayRecord{Date: d.Date}
	if d.Entries != nil {
		cp.Entries = make([]diary.Entry, len(d.Entries))
		copy(cp.Entries, d.Entries)
	}
	return cp
}
