package schedule

import (
	"fmt"
	"time"
)

const (
	// LunchSlot is never bookable; it is force-added to every open day's
	// booked set.
	LunchSlot = "12:00"
	// AlwaysOpenSlot is never marked booked on an open day, guaranteeing at
	// least one option per open date.
	AlwaysOpenSlot = "10:00"
)

// makeSlots generates the fixed one-hour slot grid. startHour is the first
// slot's start; endHour is the end of the working window, exclusive.
func makeSlots(startHour, endHour int) []string {
	slots := make([]string, 0, endHour-startHour)
	for h := startHour; h < endHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
	}
	return slots
}

// Slots returns the engine's slot grid.
func (e *Engine) Slots() []string {
	return e.slots
}

// FormatSlotLabel renders an HH:MM slot as a 12-hour display label, e.g.
// "09:00" becomes "9:00 AM". Unparseable input comes back unchanged.
func FormatSlotLabel(slot string) string {
	t, err := time.Parse("15:04", slot)
	if err != nil {
		return slot
	}
	return t.Format("3:04 PM")
}
