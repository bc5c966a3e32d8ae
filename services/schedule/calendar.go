// Package schedule implements the business-calendar rules and the simulated
// per-counselor availability the booking wizard runs on.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/now"
	"go.uber.org/zap"

	"counselhub/config"
	"counselhub/models"
	"counselhub/utils"
)

// Day state labels.
const (
	LabelSelectDate = "Select a date"
	LabelPastDate   = "Past date (not allowed)"
	LabelHoliday    = "Holiday (No service)"
	LabelWeekend    = "Weekend (No service)"
	LabelAvailable  = "Available"
)

const isoDate = "2006-01-02"

// DefaultHolidays is the fixed no-service list for the business calendar.
var DefaultHolidays = []string{
	"2025-12-25",
	"2025-12-30",
	"2026-01-01",
	"2026-04-09",
	"2026-05-01",
	"2026-06-12",
	"2026-08-21",
	"2026-11-30",
	"2026-12-25",
	"2026-12-30",
}

// Engine evaluates dates and slots against the business calendar. All
// "today" math runs in the fixed business timezone, not the viewer's local
// one, so queueing behavior is identical regardless of client locale.
type Engine struct {
	loc      *time.Location
	clock    func() time.Time
	holidays map[string]bool
	slots    []string
	closing  string // end of the daily working window, HH:MM
}

// NewEngine builds an engine from AppConfig defaults.
func NewEngine() *Engine {
	tz := config.AppConfig.BusinessTimezone
	if tz == "" {
		tz = "Asia/Manila"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		utils.GetLogger().Warn("Unknown business timezone, falling back to UTC",
			zap.String("timezone", tz), zap.Error(err))
		loc = time.UTC
	}
	startHour, endHour := config.AppConfig.SlotWindowStart, config.AppConfig.SlotWindowEnd
	if startHour == 0 && endHour == 0 {
		startHour, endHour = 8, 17
	}
	return &Engine{
		loc:      loc,
		clock:    time.Now,
		holidays: holidaySet(DefaultHolidays),
		slots:    makeSlots(startHour, endHour),
		closing:  fmt.Sprintf("%02d:00", endHour),
	}
}

// NewEngineWithClock builds an engine with an injected clock and holiday
// list. Tests and embedders that control time use this constructor.
func NewEngineWithClock(loc *time.Location, clock func() time.Time, holidays []string) *Engine {
	return &Engine{
		loc:      loc,
		clock:    clock,
		holidays: holidaySet(holidays),
		slots:    makeSlots(8, 17),
		closing:  "17:00",
	}
}

func holidaySet(dates []string) map[string]bool {
	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set
}

// ReferenceToday returns today's ISO date in the business timezone.
func (e *Engine) ReferenceToday() string {
	return now.New(e.clock().In(e.loc)).BeginningOfDay().Format(isoDate)
}

// MinSelectableDate is the later of local-today and reference-today, so a
// viewer behind the business timezone cannot pick a date already past there.
func (e *Engine) MinSelectableDate() string {
	local := e.clock().Format(isoDate)
	ref := e.ReferenceToday()
	if local > ref {
		return local
	}
	return ref
}

// ClassifyDay classifies a calendar date as open or closed. ISO dates sort
// lexicographically, so the past check is a plain string compare.
func (e *Engine) ClassifyDay(date string) models.DayState {
	if date == "" {
		return models.DayState{OK: false, Label: LabelSelectDate}
	}
	parsed, err := time.Parse(isoDate, date)
	if err != nil {
		return models.DayState{OK: false, Label: LabelSelectDate}
	}
	if date < e.ReferenceToday() {
		return models.DayState{OK: false, Label: LabelPastDate}
	}
	if e.holidays[date] {
		return models.DayState{OK: false, Label: LabelHoliday}
	}
	// Anchor at UTC noon so the weekday never shifts across timezones.
	weekday := parsed.Add(12 * time.Hour).UTC().Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return models.DayState{OK: false, Label: LabelWeekend}
	}
	return models.DayState{OK: true, Label: LabelAvailable}
}

// FindNextWorkingDay scans forward day by day from start for the first open
// date. The scan is bounded to 90 days; if nothing opens up, the start date
// comes back unchanged.
func (e *Engine) FindNextWorkingDay(start string) string {
	parsed, err := time.Parse(isoDate, start)
	if err != nil {
		return start
	}
	for i := 0; i < 90; i++ {
		candidate := parsed.AddDate(0, 0, i).Format(isoDate)
		if e.ClassifyDay(candidate).OK {
			return candidate
		}
	}
	return start
}

// IsOfficeOpen reports whether the counseling office is open at t: an open
// calendar day within the daily slot window, evaluated in the business
// timezone.
func (e *Engine) IsOfficeOpen(t time.Time) bool {
	local := t.In(e.loc)
	if !e.ClassifyDay(local.Format(isoDate)).OK {
		return false
	}
	hhmm := local.Format("15:04")
	return hhmm >= e.slots[0] && hhmm < e.closing
}

// WatchOfficeHours re-evaluates the office-open state every minute and
// reports it to onChange, until ctx is cancelled. The first evaluation fires
// immediately.
func (e *Engine) WatchOfficeHours(ctx context.Context, onChange func(open bool)) {
	onChange(e.IsOfficeOpen(e.clock()))
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			onChange(e.IsOfficeOpen(e.clock()))
		}
	}
}
