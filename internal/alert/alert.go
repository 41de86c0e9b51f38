package alert

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Repeat values understood by the scheduler and the calendar exporter.
const (
	RepeatOnce    = "once"
	RepeatDaily   = "daily"
	RepeatWeekly  = "weekly"
	RepeatMonthly = "monthly"
)

const (
	DefaultName  = "Reminder"
	DefaultSound = "default"
)

// Alert is a user-defined notification with a wall-clock trigger time.
// Time is "HH:MM" in the local timezone; Date is an optional "YYYY-MM-DD"
// anchor used for recurrence in calendar exports. NextTime is owned by the
// scheduler: zero means not yet armed, otherwise it is the epoch-millisecond
// instant of the next pending firing.
type Alert struct {
	ID        int64  `json:"id" bson:"_id"`
	Name      string `json:"name" bson:"name"`
	Time      string `json:"time" bson:"time"`
	Date      string `json:"date,omitempty" bson:"date,omitempty"`
	Repeat    string `json:"repeat" bson:"repeat"`
	OffsetMin int    `json:"offsetMin" bson:"offsetMin"`
	Sound     string `json:"sound" bson:"sound"`
	Enabled   bool   `json:"enabled" bson:"enabled"`
	NextTime  int64  `json:"nextTime,omitempty" bson:"nextTime,omitempty"`
}

func New(name, timeOfDay, sound string) *Alert {
	a := &Alert{
		Name:    name,
		Time:    timeOfDay,
		Sound:   sound,
		Enabled: true,
	}
	a.Normalize()
	return a
}

// Normalize resolves defaults for optional fields in one place. All call
// sites rely on this instead of per-field fallbacks.
func (a *Alert) Normalize() {
	if strings.TrimSpace(a.Name) == "" {
		a.Name = DefaultName
	}
	if a.Time == "" {
		a.Time = "00:00"
	}
	switch a.Repeat {
	case RepeatOnce, RepeatDaily, RepeatWeekly, RepeatMonthly:
	default:
		a.Repeat = RepeatDaily
	}
	if a.OffsetMin < 0 {
		a.OffsetMin = 0
	}
	if a.Sound == "" {
		a.Sound = DefaultSound
	}
}

// TimeOfDay parses the "HH:MM" trigger time.
func (a *Alert) TimeOfDay() (hour, min int, err error) {
	parts := strings.SplitN(a.Time, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q", a.Time)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q", a.Time)
	}
	min, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q", a.Time)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("time %q out of range", a.Time)
	}
	return hour, min, nil
}

// OccurrenceOn returns the trigger instant on the given day.
func (a *Alert) OccurrenceOn(day time.Time) (time.Time, error) {
	hour, min, err := a.TimeOfDay()
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, day.Location()), nil
}

// StartAt combines the anchor date and the trigger time into the event start
// used by the calendar exporter. The anchor is the Date field when present,
// otherwise now's calendar date.
func (a *Alert) StartAt(now time.Time) (time.Time, error) {
	anchor := now
	if a.Date != "" {
		d, err := time.ParseInLocation("2006-01-02", a.Date, now.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", a.Date)
		}
		anchor = d
	}
	return a.OccurrenceOn(anchor)
}

// NextAt returns NextTime as a time.Time; the zero time means not armed.
func (a *Alert) NextAt() time.Time {
	if a.NextTime == 0 {
		return time.Time{}
	}
	return time.UnixMilli(a.NextTime)
}

func (a *Alert) SetNextAt(t time.Time) {
	a.NextTime = t.UnixMilli()
}
