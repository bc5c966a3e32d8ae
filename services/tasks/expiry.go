package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeSessionExpire = "chatsession:expire"

// SessionExpiryPayload identifies which session a sweep is for. The handler
// ignores the task when the stored session no longer matches.
type SessionExpiryPayload struct {
	SessionID string `json:"sessionId"`
}

// NewSessionExpiryTask builds the durable expiry sweep, scheduled at the
// session's 24-hour deadline.
func NewSessionExpiryTask(sessionID string, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(SessionExpiryPayload{SessionID: sessionID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSessionExpire, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}

	return task, opts, nil
}

// AsynqEnqueuer schedules expiry sweeps through an asynq client. It
// satisfies the chat manager's Enqueuer port.
type AsynqEnqueuer struct {
	client *asynq.Client
}

func NewAsynqEnqueuer(client *asynq.Client) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client}
}

func (e *AsynqEnqueuer) ScheduleExpiry(ctx context.Context, sessionID string, at time.Time) error {
	task, opts, err := NewSessionExpiryTask(sessionID, at)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, opts...)
	return err
}
