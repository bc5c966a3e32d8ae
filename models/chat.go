package models

import "time"

// Chat views.
type ChatView string

const (
	ViewMode  ChatView = "mode"  // identity mode selector
	ViewEmail ChatView = "email" // student email capture
	ViewChat  ChatView = "chat"
)

// Chat identity modes.
type ChatMode string

const (
	ModeStudent   ChatMode = "student"
	ModeAnonymous ChatMode = "anonymous"
)

// ChatSession is the persisted, time-bounded state of the messaging drawer.
// It survives reloads within its 24-hour window and is cleared on expiry,
// explicit end, or an identity-mode switch.
type ChatSession struct {
	ID                  string    `json:"id"`
	View                ChatView  `json:"view"`
	Mode                ChatMode  `json:"mode,omitempty"`
	StudentEmail        string    `json:"studentEmail,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	ExpiresAt           time.Time `json:"expiresAt"`
	ActiveThreadID      string    `json:"activeThreadId,omitempty"`
	VisibleMessageCount int       `json:"visibleMessageCount,omitempty"`
}

// Expired reports whether the session has passed its 24-hour window at t.
func (s *ChatSession) Expired(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// Identity is the logged-in student identity supplied by the embedding
// application, when one exists.
type Identity struct {
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	StudentNumber string `json:"studentNumber,omitempty"`
}

// Thread is a conversation supplied by the caller. The core consumes threads
// read-only; it does not own their lifecycle.
type Thread struct {
	ID            string    `json:"id"`
	CounselorName string    `json:"counselorName,omitempty"`
	Closed        bool      `json:"closed,omitempty"`
	Messages      []Message `json:"messages"`
}

// Message senders.
const (
	SenderMe   = "me"
	SenderThem = "them"
)

// Message delivery statuses, when the caller reports one explicitly.
const (
	DeliveryStatusSending = "sending"
	DeliveryStatusSent    = "sent"
)

// Message is a single chat message within a thread.
type Message struct {
	ID          string     `json:"id,omitempty"` // server-assigned when delivered
	From        string     `json:"from"`
	Text        string     `json:"text"`
	CreatedAt   time.Time  `json:"createdAt"`
	Status      string     `json:"status,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	SeenAt      *time.Time `json:"seenAt,omitempty"`
}
