package models

// DayState classifies a calendar date against the business calendar.
type DayState struct {
	OK    bool   `json:"ok"`
	Label string `json:"label"`
}

// CounselorAvailability is the simulated schedule of one counselor for one
// date. It is derived on demand and never stored: identical inputs always
// produce identical output.
type CounselorAvailability struct {
	OnLeave     bool            `json:"onLeave"`
	BookedSlots map[string]bool `json:"bookedSlots"`
}

// SlotState says whether a single time slot can be picked, and why not.
type SlotState struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}
