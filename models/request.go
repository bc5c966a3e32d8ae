package models

import "time"

// Request types. Only MEET requests participate in the pending lock.
const RequestTypeMeet = "MEET"

// RequestStatus is the authoritative lifecycle field of a booking request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "Pending"
	StatusCanceled  RequestStatus = "Canceled"
	StatusCompleted RequestStatus = "Completed"
)

// Session types a student can pick on the first wizard step.
const (
	SessionTypeOnline   = "Online"
	SessionTypeInPerson = "In-person"
)

// Reasons is the fixed list offered on the reason step.
var Reasons = []string{
	"Academic stress",
	"Personal concern",
	"Family concern",
	"Career guidance",
	"Mental health",
	"Other",
}

// BookingDraft is the mutable in-progress selection the wizard collects
// across steps. It is frozen into a BookingRequest on submission.
type BookingDraft struct {
	SessionType string `json:"sessionType"`
	Reason      string `json:"reason"`
	CounselorID string `json:"counselorId,omitempty"`
	Date        string `json:"date"` // ISO calendar date, e.g. 2026-09-07
	Time        string `json:"time"` // HH:MM, 24h
	Notes       string `json:"notes,omitempty"`
}

// BookingRequest is the persisted, immutable-after-creation record of a
// submitted booking. At most one Pending request may exist at any time.
type BookingRequest struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"`
	Status        RequestStatus `json:"status"`
	SessionType   string        `json:"sessionType"`
	Reason        string        `json:"reason"`
	Date          string        `json:"date"`
	Time          string        `json:"time"` // display-formatted, e.g. "9:00 AM"
	CounselorID   string        `json:"counselorId"`
	CounselorName string        `json:"counselorName"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
	CanceledAt    *time.Time    `json:"canceledAt,omitempty"`
}

// RequestPatch carries the fields a status update may touch. Nil fields are
// left as they are.
type RequestPatch struct {
	Status      *RequestStatus `json:"status,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	CanceledAt  *time.Time     `json:"canceledAt,omitempty"`
}
