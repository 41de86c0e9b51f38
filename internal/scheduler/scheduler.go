package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"diabetes-diary/internal/alert"
	"diabetes-diary/internal/storage"
)

// DefaultInterval bounds notification latency while avoiding excess wake-ups.
const DefaultInterval = 30 * time.Second

// Notifier delivers the notification side-effect for a fired alert.
// Best-effort, fire-and-forget; no delivery confirmation.
type Notifier interface {
	Notify(title, body string)
}

// SoundPlayer plays the alert's configured sound. Best-effort.
type SoundPlayer interface {
	Play(sound string)
}

// Scheduler owns the periodic evaluation of all alerts. Each enabled alert
// is a two-state machine: pending (NextTime in the future, or not yet
// computed) and due (now >= NextTime). Firing and the NextTime advance
// happen in the same tick, so an alert fires at most once per calendar day
// no matter how often ticks run.
type Scheduler struct {
	store    *storage.Facade
	notifier Notifier
	sound    SoundPlayer

	interval time.Duration
	now      func() time.Time
	wake     chan struct{}
}

func New(store *storage.Facade, notifier Notifier, sound SoundPlayer) *Scheduler {
	return &Scheduler{
		store:    store,
		notifier: notifier,
		sound:    sound,
		interval: DefaultInterval,
		now:      time.Now,
		wake:     make(chan struct{}, 1),
	}
}

// SetInterval overrides the tick interval (before Run).
func (s *Scheduler) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Run evaluates alerts on a fixed interval until ctx is cancelled. An
// immediate pass runs first so freshly loaded alerts are armed without
// waiting a full interval.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(s.now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(s.now())
		case <-s.wake:
			s.Tick(s.now())
		}
	}
}

// Wake forces an immediate evaluation pass. The UI calls this when the page
// regains visibility, correcting for background-tab timer throttling.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Tick runs one evaluation pass at the given instant. A malformed alert is
// skipped for this pass; the whole set is persisted only when something
// changed.
func (s *Scheduler) Tick(now time.Time) {
	alerts, err := s.store.ListAlerts()
	if err != nil {
		logrus.WithError(err).Warn("scheduler: listing alerts failed")
		return
	}

	changed := false
	for _, a := range alerts {
		if a == nil || !a.Enabled {
			continue
		}
		if s.evaluate(a, now) {
			changed = true
		}
	}

	if changed {
		if err := s.store.SaveAlerts(alerts); err != nil {
			logrus.WithError(err).Warn("scheduler: persisting alerts failed")
		}
	}
}

// evaluate advances one alert's state machine and reports whether the
// record changed.
func (s *Scheduler) evaluate(a *alert.Alert, now time.Time) bool {
	if a.NextTime == 0 {
		// First-run arm at today's occurrence. If that instant is still
		// ahead this is not a firing event; if it has already passed, the
		// elapsed occurrence is due and fires now.
		next, err := a.OccurrenceOn(now)
		if err != nil {
			logrus.WithField("alert", a.ID).WithError(err).Debug("scheduler: skipping malformed alert")
			return false
		}
		if next.After(now) {
			a.SetNextAt(next)
			return true
		}
		s.fire(a)
		a.SetNextAt(next.AddDate(0, 0, 1))
		return true
	}

	next := a.NextAt()
	if next.After(now) {
		return false
	}

	s.fire(a)

	// Advance in exact one-day steps from the previous value, not from now,
	// so the firing instant stays anchored to its original wall-clock time.
	// After a multi-day gap the missed occurrences collapse into the single
	// firing above.
	for !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	a.SetNextAt(next)
	return true
}

func (s *Scheduler) fire(a *alert.Alert) {
	if s.notifier != nil {
		s.notifier.Notify(a.Name, fmt.Sprintf("It is time for %s.", a.Name))
	}
	if s.sound != nil {
		s.sound.Play(a.Sound)
	}
}
