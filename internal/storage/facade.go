package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"diabetes-diary/internal/alert"
	"diabetes-diary/internal/diary"
	"diabetes-diary/internal/patient"
)

// Facade composes a synchronous fast cache with a durable mirror. Saves
// write the cache first, so same-tick readers always see the new record,
// then mirror to the durable backend in the background; a mirror failure is
// logged, never surfaced. Loads are cache-first: a cache hit never consults
// the durable store, a miss falls back to it without read-repair.
//
// The durable backend may be nil (cache-only session, e.g. when it failed
// to open); durability then lasts only as long as the process.
type Facade struct {
	cache   Storage
	durable Storage

	mu          sync.Mutex
	nextAlertID int64

	// Mirror writes are queued and applied by a single drainer so two rapid
	// saves of the same record reach the durable store in submission order;
	// fanning them out as independent goroutines could leave the durable
	// copy permanently behind the cache.
	mirrorMu      sync.Mutex
	mirrorQueue   []mirrorOp
	mirrorRunning bool

	// wg tracks queued mirror writes so tests and shutdown can drain them.
	wg sync.WaitGroup
}

type mirrorOp struct {
	name string
	fn   func(Storage) error
}

func NewFacade(cache, durable Storage) *Facade {
	if cache == nil {
		cache = NewMemoryStorage()
	}
	return &Facade{cache: cache, durable: durable, nextAlertID: 1}
}

// Hydrate copies the durable store's contents into the cache and seeds the
// alert id counter. Called once at startup; a missing durable backend is not
// an error.
func (f *Facade) Hydrate() error {
	if f.durable == nil {
		return nil
	}

	alerts, err := f.durable.ListAlerts()
	if err != nil {
		return fmt.Errorf("hydrate alerts: %w", err)
	}
	for _, a := range alerts {
		if err := f.cache.PutAlert(a); err != nil {
			return fmt.Errorf("hydrate alerts: %w", err)
		}
	}
	f.bumpAlertID(alerts)

	days, err := f.durable.ListDays()
	if err != nil {
		return fmt.Errorf("hydrate day records: %w", err)
	}
	for _, d := range days {
		if err := f.cache.PutDay(d); err != nil {
			return fmt.Errorf("hydrate day records: %w", err)
		}
	}

	p, err := f.durable.GetPatient()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("hydrate profile: %w", err)
	}
	if p != nil {
		if err := f.cache.PutPatient(p); err != nil {
			return fmt.Errorf("hydrate profile: %w", err)
		}
	}
	return nil
}

// Wait blocks until all in-flight mirror writes have finished.
func (f *Facade) Wait() {
	f.wg.Wait()
}

func (f *Facade) bumpAlertID(alerts []*alert.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range alerts {
		if a.ID >= f.nextAlertID {
			f.nextAlertID = a.ID + 1
		}
	}
}

func (f *Facade) mirror(op string, fn func(Storage) error) {
	if f.durable == nil {
		return
	}
	f.wg.Add(1)
	f.mirrorMu.Lock()
	f.mirrorQueue = append(f.mirrorQueue, mirrorOp{name: op, fn: fn})
	if !f.mirrorRunning {
		f.mirrorRunning = true
		go f.drainMirror()
	}
	f.mirrorMu.Unlock()
}

func (f *Facade) drainMirror() {
	for {
		f.mirrorMu.Lock()
		if len(f.mirrorQueue) == 0 {
			f.mirrorRunning = false
			f.mirrorMu.Unlock()
			return
		}
		op := f.mirrorQueue[0]
		f.mirrorQueue = f.mirrorQueue[1:]
		f.mirrorMu.Unlock()

		if err := op.fn(f.durable); err != nil {
			logrus.WithError(err).Warnf("durable mirror failed: %s", op.name)
		}
		f.wg.Done()
	}
}

// Alert operations

// CreateAlert assigns a unique id and stores the alert. It fails only when
// the cache write fails; the durable mirror is best-effort.
func (f *Facade) CreateAlert(a *alert.Alert) (int64, error) {
	a.Normalize()

	f.mu.Lock()
	a.ID = f.nextAlertID
	f.nextAlertID++
	f.mu.Unlock()

	if err := f.cache.PutAlert(a); err != nil {
		return 0, fmt.Errorf("failed to create alert: %w", err)
	}
	cp := *a
	f.mirror("put alert", func(s Storage) error { return s.PutAlert(&cp) })
	return a.ID, nil
}

// UpdateAlert replaces the whole record by id.
func (f *Facade) UpdateAlert(a *alert.Alert) error {
	a.Normalize()
	if err := f.cache.PutAlert(a); err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	cp := *a
	f.mirror("put alert", func(s Storage) error { return s.PutAlert(&cp) })
	return nil
}

func (f *Facade) GetAlert(id int64) (*alert.Alert, error) {
	a, err := f.cache.GetAlert(id)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) || f.durable == nil {
		return nil, err
	}
	a, err = f.durable.GetAlert(id)
	if err != nil {
		return nil, fallbackErr("alert", err)
	}
	return a, nil
}

func (f *Facade) ListAlerts() ([]*alert.Alert, error) {
	return f.cache.ListAlerts()
}

// DeleteAlert removes one record; deleting an unknown id is a no-op.
func (f *Facade) DeleteAlert(id int64) error {
	if err := f.cache.DeleteAlert(id); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	f.mirror("delete alert", func(s Storage) error { return s.DeleteAlert(id) })
	return nil
}

// SaveAlerts persists a batch of updated alert records (scheduler tick).
func (f *Facade) SaveAlerts(alerts []*alert.Alert) error {
	for _, a := range alerts {
		if err := f.cache.PutAlert(a); err != nil {
			return fmt.Errorf("failed to save alerts: %w", err)
		}
		cp := *a
		f.mirror("put alert", func(s Storage) error { return s.PutAlert(&cp) })
	}
	return nil
}

// Day record operations

func (f *Facade) SaveDay(d *diary.DayRecord) error {
	if err := f.cache.PutDay(d); err != nil {
		return fmt.Errorf("failed to save day record: %w", err)
	}
	cp := *d
	f.mirror("put day record", func(s Storage) error { return s.PutDay(&cp) })
	return nil
}

func (f *Facade) LoadDay(date string) (*diary.DayRecord, error) {
	d, err := f.cache.GetDay(date)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrNotFound) || f.durable == nil {
		return nil, err
	}
	d, err = f.durable.GetDay(date)
	if err != nil {
		return nil, fallbackErr("day record", err)
	}
	return d, nil
}

func (f *Facade) ListDays() ([]*diary.DayRecord, error) {
	return f.cache.ListDays()
}

// Patient operations

// SavePatient overwrites the singleton profile record (last write wins).
func (f *Facade) SavePatient(p *patient.Profile) error {
	p.ID = patient.RecordID
	p.UpdatedAt = time.Now()
	if err := f.cache.PutPatient(p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	cp := *p
	f.mirror("put profile", func(s Storage) error { return s.PutPatient(&cp) })
	return nil
}

func (f *Facade) LoadPatient() (*patient.Profile, error) {
	p, err := f.cache.GetPatient()
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) || f.durable == nil {
		return nil, err
	}
	p, err = f.durable.GetPatient()
	if err != nil {
		return nil, fallbackErr("profile", err)
	}
	return p, nil
}

// fallbackErr maps a failed durable fallback read to explicit absence.
// Degraded storage never surfaces backend errors to higher-level callers.
func fallbackErr(what string, err error) error {
	if !errors.Is(err, ErrNotFound) {
		logrus.WithError(err).Warnf("durable read failed: %s", what)
	}
	return ErrNotFound
}
