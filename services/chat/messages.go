package chat

import (
	"context"

	"counselhub/models"
)

// PageSize is how many messages each pagination step reveals.
const PageSize = 10

// Delivery labels derived for the last message of a run. Best-effort until
// real backend receipts exist.
const (
	LabelSeen      = "Seen"
	LabelDelivered = "Delivered"
	LabelSending   = "Sending…"
	LabelSent      = "Sent"
)

// DisplayMessage is a message annotated with grouping flags: the sender
// label shows only on the first message of a same-sender run, delivery and
// time metadata only on the last.
type DisplayMessage struct {
	models.Message
	ShowSender bool
	ShowMeta   bool
}

// VisibleMessages returns the most recent page window of a thread's
// messages, per the session's revealed count.
func (m *Manager) VisibleMessages(thread models.Thread) []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := PageSize
	if m.sess != nil && m.sess.VisibleMessageCount > 0 {
		count = m.sess.VisibleMessageCount
	}
	if count >= len(thread.Messages) {
		return thread.Messages
	}
	return thread.Messages[len(thread.Messages)-count:]
}

// RevealOlder extends the visible window by one page, up to the full
// history. The UI calls this when the student scrolls to the top edge.
func (m *Manager) RevealOlder(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return
	}
	if m.sess.VisibleMessageCount <= 0 {
		m.sess.VisibleMessageCount = PageSize
	}
	m.sess.VisibleMessageCount += PageSize
	m.saveLocked(ctx)
}

// DisplayMessages computes grouping flags over a chronological message list.
func DisplayMessages(msgs []models.Message) []DisplayMessage {
	out := make([]DisplayMessage, len(msgs))
	for i, msg := range msgs {
		out[i] = DisplayMessage{
			Message:    msg,
			ShowSender: i == 0 || msgs[i-1].From != msg.From,
			ShowMeta:   i == len(msgs)-1 || msgs[i+1].From != msg.From,
		}
	}
	return out
}

// DeliveryLabel derives the receipt label for a message: a seen timestamp
// wins, then delivered, then the explicit status, then the presence of a
// server-assigned id.
func DeliveryLabel(msg models.Message) string {
	switch {
	case msg.SeenAt != nil:
		return LabelSeen
	case msg.DeliveredAt != nil:
		return LabelDelivered
	case msg.Status == models.DeliveryStatusSending:
		return LabelSending
	case msg.Status == models.DeliveryStatusSent:
		return LabelSent
	case msg.ID != "":
		return LabelDelivered
	default:
		return LabelSent
	}
}
