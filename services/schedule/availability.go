package schedule

import (
	"hash/fnv"
	"math/rand"

	"counselhub/models"
)

// Simulation tuning. The draws stand in for a real scheduling backend; the
// only hard requirement is that identical (counselor, date) inputs always
// produce identical output.
const (
	onLeaveProbability = 0.08
	bookedRatioMin     = 0.25
	bookedRatioSpan    = 0.40
	minBookedSlots     = 2
)

// seedFor derives a stable PRNG seed from the counselor and date.
func seedFor(counselorID, date string) int64 {
	h := fnv.New64a()
	h.Write([]byte(counselorID + "|" + date))
	return int64(h.Sum64())
}

// Availability returns the simulated schedule of one counselor for one date.
// The result is a pure function of the inputs and the day state: calling it
// twice yields identical output.
func (e *Engine) Availability(counselorID, date string) models.CounselorAvailability {
	if !e.ClassifyDay(date).OK {
		return models.CounselorAvailability{OnLeave: true, BookedSlots: e.allSlotsBooked()}
	}

	rng := rand.New(rand.NewSource(seedFor(counselorID, date)))

	if rng.Float64() < onLeaveProbability {
		return models.CounselorAvailability{OnLeave: true, BookedSlots: e.allSlotsBooked()}
	}

	ratio := bookedRatioMin + rng.Float64()*bookedRatioSpan
	bookCount := int(float64(len(e.slots)) * ratio)
	if bookCount < minBookedSlots {
		bookCount = minBookedSlots
	}
	// A narrow slot window can leave fewer drawable slots than the target;
	// without the clamp the draw loop below would never fill its quota.
	drawable := 0
	for _, slot := range e.slots {
		if slot != LunchSlot && slot != AlwaysOpenSlot {
			drawable++
		}
	}
	if bookCount > drawable {
		bookCount = drawable
	}

	booked := make(map[string]bool, bookCount+1)
	for len(booked) < bookCount {
		slot := e.slots[rng.Intn(len(e.slots))]
		if slot == LunchSlot || slot == AlwaysOpenSlot {
			continue
		}
		booked[slot] = true
	}

	// Restore the grid invariants last: lunch is always booked, the
	// always-open slot never is.
	booked[LunchSlot] = true
	delete(booked, AlwaysOpenSlot)

	return models.CounselorAvailability{OnLeave: false, BookedSlots: booked}
}

func (e *Engine) allSlotsBooked() map[string]bool {
	booked := make(map[string]bool, len(e.slots))
	for _, slot := range e.slots {
		booked[slot] = true
	}
	return booked
}
