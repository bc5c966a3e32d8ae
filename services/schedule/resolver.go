package schedule

import (
	"sort"

	"counselhub/models"
)

// Slot disable reasons beyond the day-state labels.
const (
	ReasonLunchBreak   = "Lunch break"
	ReasonBooked       = "Booked"
	ReasonOnLeave      = "On leave"
	ReasonNoCounselors = "No counselors available"
)

// OpenCount is the number of bookable slots a counselor has left on a date.
// Lunch is excluded from both the booked count and the denominator.
func (e *Engine) OpenCount(counselorID, date string) int {
	av := e.Availability(counselorID, date)
	booked := 0
	for slot := range av.BookedSlots {
		if slot != LunchSlot {
			booked++
		}
	}
	return len(e.slots) - 1 - booked
}

// StatusLabel derives the display standing from leave state and open count.
func StatusLabel(onLeave bool, openCount int) models.CounselorStatus {
	switch {
	case onLeave:
		return models.CounselorOnLeave
	case openCount <= 0:
		return models.CounselorFullyBooked
	case openCount <= 2:
		return models.CounselorLimited
	default:
		return models.CounselorAvailable
	}
}

// CounselorSummaries computes each roster member's standing for a date and
// sorts the most bookable first. The sort is stable, so counselors of equal
// standing keep their declared order. With no date chosen, everyone reads
// "Select date".
func (e *Engine) CounselorSummaries(date string) []models.CounselorSummary {
	summaries := make([]models.CounselorSummary, 0, len(models.Counselors))
	for _, c := range models.Counselors {
		if date == "" {
			summaries = append(summaries, models.CounselorSummary{
				Counselor: c,
				Status:    models.CounselorSelectDate,
			})
			continue
		}
		av := e.Availability(c.ID, date)
		open := e.OpenCount(c.ID, date)
		summaries = append(summaries, models.CounselorSummary{
			Counselor: c,
			Status:    StatusLabel(av.OnLeave, open),
			OpenSlots: open,
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return models.StatusRank(summaries[i].Status) < models.StatusRank(summaries[j].Status)
	})
	return summaries
}

// SlotMap computes the enabled/disabled state of every slot for a date. With
// a counselor selected, a slot is open iff that counselor can take it; with
// none selected, a slot is open iff any counselor can.
func (e *Engine) SlotMap(date, counselorID string) map[string]models.SlotState {
	states := make(map[string]models.SlotState, len(e.slots))

	day := e.ClassifyDay(date)
	if !day.OK {
		for _, slot := range e.slots {
			states[slot] = models.SlotState{Enabled: false, Reason: day.Label}
		}
		return states
	}

	if counselorID != "" {
		av := e.Availability(counselorID, date)
		for _, slot := range e.slots {
			switch {
			case slot == LunchSlot:
				states[slot] = models.SlotState{Enabled: false, Reason: ReasonLunchBreak}
			case av.OnLeave:
				states[slot] = models.SlotState{Enabled: false, Reason: ReasonOnLeave}
			case av.BookedSlots[slot]:
				states[slot] = models.SlotState{Enabled: false, Reason: ReasonBooked}
			default:
				states[slot] = models.SlotState{Enabled: true}
			}
		}
		return states
	}

	for _, slot := range e.slots {
		if slot == LunchSlot {
			states[slot] = models.SlotState{Enabled: false, Reason: ReasonLunchBreak}
			continue
		}
		free := false
		for _, c := range models.Counselors {
			av := e.Availability(c.ID, date)
			if !av.OnLeave && !av.BookedSlots[slot] {
				free = true
				break
			}
		}
		if free {
			states[slot] = models.SlotState{Enabled: true}
		} else {
			states[slot] = models.SlotState{Enabled: false, Reason: ReasonNoCounselors}
		}
	}
	return states
}

// AutoAssign picks the first roster counselor who can take the slot,
// walking the declared order. It is the assignment used on submission when
// the student left the counselor choice open.
func (e *Engine) AutoAssign(date, slot string) (models.Counselor, bool) {
	if slot == LunchSlot {
		return models.Counselor{}, false
	}
	for _, c := range models.Counselors {
		av := e.Availability(c.ID, date)
		if !av.OnLeave && !av.BookedSlots[slot] {
			return c, true
		}
	}
	return models.Counselor{}, false
}
