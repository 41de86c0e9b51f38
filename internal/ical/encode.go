package ical

import (
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"diabetes-diary/internal/alert"
)

// Timestamps are written in floating local time, without a UTC conversion or
// a TZID. Consumers interpret them in their own local timezone; good enough
// for a single-user, single-device reminder file.
const floatingLayout = "20060102T150405"

var ErrNoAlerts = errors.New("no alerts to export")

// Encode serializes the given alerts into one VCALENDAR document. The output
// is deterministic for a fixed instant except for the per-event UID and
// DTSTAMP, which must differ across exports so imported events never collide.
func Encode(alerts []*alert.Alert) (string, error) {
	if len(alerts) == 0 {
		return "", ErrNoAlerts
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	now := time.Now()
	for _, a := range alerts {
		if err := addEvent(cal, a, now); err != nil {
			return "", err
		}
	}
	return cal.Serialize(), nil
}

// EncodeOne exports a single alert.
func EncodeOne(a *alert.Alert) (string, error) {
	return Encode([]*alert.Alert{a})
}

func addEvent(cal *ics.Calendar, a *alert.Alert, now time.Time) error {
	start, err := a.StartAt(now)
	if err != nil {
		return fmt.Errorf("alert %d: %w", a.ID, err)
	}

	ev := cal.AddEvent(uuid.NewString())
	ev.SetProperty(ics.ComponentPropertyDtstamp, now.UTC().Format("20060102T150405Z"))
	ev.SetProperty(ics.ComponentPropertyDtStart, start.Format(floatingLayout))
	ev.SetSummary(a.Name)
	ev.SetDescription(fmt.Sprintf("It is time for %s.", a.Name))

	if rule := RecurrenceRule(a.Repeat, start); rule != "" {
		ev.SetProperty(ics.ComponentPropertyRrule, rule)
	}

	al := ev.AddAlarm()
	al.SetAction(ics.ActionDisplay)
	al.SetTrigger(AlarmTrigger(a.OffsetMin))
	return nil
}

// RecurrenceRule maps a repeat value to its RRULE directive. Weekly repeats
// on the anchor's weekday, monthly on the anchor's day-of-month number with
// no end-of-month clamping (day 31 in a 30-day month simply skips).
func RecurrenceRule(repeat string, anchor time.Time) string {
	var opt rrule.ROption
	switch repeat {
	case alert.RepeatDaily:
		opt = rrule.ROption{Freq: rrule.DAILY}
	case alert.RepeatWeekly:
		opt = rrule.ROption{Freq: rrule.WEEKLY, Byweekday: []rrule.Weekday{rruleWeekday(anchor.Weekday())}}
	case alert.RepeatMonthly:
		opt = rrule.ROption{Freq: rrule.MONTHLY, Bymonthday: []int{anchor.Day()}}
	default:
		return ""
	}
	return opt.RRuleString()
}

// AlarmTrigger renders the lead-time trigger, clamping negative offsets to
// zero.
func AlarmTrigger(offsetMin int) string {
	if offsetMin < 0 {
		offsetMin = 0
	}
	return fmt.Sprintf("-PT%dM", offsetMin)
}

func rruleWeekday(d time.Weekday) rrule.Weekday {
	switch d {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
