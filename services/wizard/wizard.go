// Package wizard drives the appointment-booking flow: a linear seven-state
// machine with per-step validation gates and a pending-request hard lock
// that can interrupt at any step.
package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	requestsRepo "counselhub/database/repository/requests"
	"counselhub/models"
	"counselhub/services/schedule"
	"counselhub/utils"
)

// Step is the wizard's position in the flow.
type Step int

const (
	StepHome Step = iota
	StepSessionType
	StepReason
	StepDate
	StepTime
	StepConfirm
	StepDone
)

// Messages surfaced on the final state.
const (
	LockMessage    = "You already have a pending request. Please wait for it to be processed before booking another session."
	SubmitNotice   = "Your request has been submitted."
	CancelNotice   = "Your request has been canceled."
	totalFlowSteps = 5
)

// Wizard is the booking state machine. It is driven by UI event callbacks
// one at a time; the mutex only guards against the lock watcher goroutine.
type Wizard struct {
	mu       sync.Mutex
	engine   *schedule.Engine
	requests requestsRepo.Repository
	clock    func() time.Time

	step   Step
	draft  models.BookingDraft
	errMsg string
	notice string
	locked bool
}

func New(engine *schedule.Engine, requests requestsRepo.Repository) *Wizard {
	return &Wizard{
		engine:   engine,
		requests: requests,
		clock:    time.Now,
	}
}

// Open resets the wizard to the home state with a fresh draft and derives
// the pending lock before anything is rendered.
func (w *Wizard) Open(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = StepHome
	w.draft = models.BookingDraft{}
	w.errMsg = ""
	w.notice = ""
	return w.refreshLockLocked(ctx)
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Draft() models.BookingDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

func (w *Wizard) Error() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errMsg
}

func (w *Wizard) Notice() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.notice
}

func (w *Wizard) Locked() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.locked
}

// Draft mutators. Each clears the inline error so stale messages never
// outlive the input they complained about.

func (w *Wizard) SetSessionType(v string) { w.setDraft(func(d *models.BookingDraft) { d.SessionType = v }) }
func (w *Wizard) SetReason(v string)      { w.setDraft(func(d *models.BookingDraft) { d.Reason = v }) }
func (w *Wizard) SetCounselor(id string)  { w.setDraft(func(d *models.BookingDraft) { d.CounselorID = id }) }
func (w *Wizard) SetNotes(v string)       { w.setDraft(func(d *models.BookingDraft) { d.Notes = v }) }

// SetDate also drops the chosen time: a slot picked for one date means
// nothing on another.
func (w *Wizard) SetDate(v string) {
	w.setDraft(func(d *models.BookingDraft) {
		d.Date = v
		d.Time = ""
	})
}

func (w *Wizard) SetTime(v string) { w.setDraft(func(d *models.BookingDraft) { d.Time = v }) }

func (w *Wizard) setDraft(mutate func(*models.BookingDraft)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	mutate(&w.draft)
	w.errMsg = ""
}

// GoNext advances the flow. The pending lock is checked before anything
// else: if it holds, the machine force-jumps to the locked view regardless
// of the current step.
func (w *Wizard) GoNext(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.refreshLockLocked(ctx); err != nil {
		return err
	}
	if w.locked {
		w.jumpToLockedLocked()
		return ErrPendingLock
	}

	if err := w.validateStepLocked(w.step); err != nil {
		if verr, ok := err.(*ValidationError); ok {
			w.errMsg = verr.Message
		}
		return err
	}

	w.errMsg = ""
	if w.step < StepDone {
		w.step++
	}
	return nil
}

// GoBack steps backwards. From the final state it returns straight home;
// from home it reports that the wizard should close.
func (w *Wizard) GoBack() (closed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errMsg = ""
	switch w.step {
	case StepHome:
		return true
	case StepDone:
		w.step = StepHome
		w.notice = ""
	default:
		w.step--
	}
	return false
}

// CanContinue is the reactive gate for the "next" button. Submission never
// trusts it: every gate is re-checked there from scratch.
func (w *Wizard) CanContinue() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.locked && w.validateStepLocked(w.step) == nil
}

func (w *Wizard) validateStepLocked(step Step) error {
	switch step {
	case StepSessionType:
		if w.draft.SessionType == "" {
			return newValidationError("sessionType", "Choose a session type")
		}
	case StepReason:
		if w.draft.Reason == "" {
			return newValidationError("reason", "Choose a reason")
		}
	case StepDate:
		if w.draft.Date == "" {
			return newValidationError("date", "Select a date")
		}
		if day := w.engine.ClassifyDay(w.draft.Date); !day.OK {
			return newValidationError("date", day.Label)
		}
	case StepTime:
		if w.draft.Time == "" {
			return newValidationError("time", "Choose a time")
		}
		if w.draft.Time == schedule.LunchSlot {
			return newValidationError("time", "Time not available ("+schedule.ReasonLunchBreak+")")
		}
		states := w.engine.SlotMap(w.draft.Date, w.draft.CounselorID)
		if state, ok := states[w.draft.Time]; !ok || !state.Enabled {
			reason := state.Reason
			if reason == "" {
				reason = schedule.ReasonBooked
			}
			return newValidationError("time", "Time not available ("+reason+")")
		}
	}
	// Home and Confirm always pass.
	return nil
}

// Submit re-validates every gate from scratch, resolves the counselor, and
// persists the request. Only full success reaches the Pending state.
func (w *Wizard) Submit(ctx context.Context) (*models.BookingRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	logger := utils.GetLogger()

	if err := w.refreshLockLocked(ctx); err != nil {
		return nil, err
	}
	if w.locked {
		w.jumpToLockedLocked()
		return nil, ErrPendingLock
	}

	for _, step := range []Step{StepSessionType, StepReason, StepDate, StepTime} {
		if err := w.validateStepLocked(step); err != nil {
			if verr, ok := err.(*ValidationError); ok {
				w.errMsg = verr.Message
			}
			return nil, err
		}
	}

	counselor, err := w.resolveCounselorLocked()
	if err != nil {
		if verr, ok := err.(*ValidationError); ok {
			w.errMsg = verr.Message
		}
		return nil, err
	}

	req := models.BookingRequest{
		ID:            uuid.New().String(),
		Type:          models.RequestTypeMeet,
		Status:        models.StatusPending,
		SessionType:   w.draft.SessionType,
		Reason:        w.draft.Reason,
		Date:          w.draft.Date,
		Time:          schedule.FormatSlotLabel(w.draft.Time),
		CounselorID:   counselor.ID,
		CounselorName: counselor.Name,
		Notes:         w.draft.Notes,
		CreatedAt:     w.clock(),
	}

	if err := w.requests.Upsert(ctx, req); err != nil {
		logger.Error("Failed to persist booking request",
			zap.String("requestID", req.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to persist booking request: %w", err)
	}

	logger.Info("Booking request submitted",
		zap.String("requestID", req.ID),
		zap.String("counselorID", counselor.ID),
		zap.String("date", req.Date),
		zap.String("time", req.Time))

	w.step = StepDone
	w.notice = SubmitNotice
	// The request just written is itself Pending, so the lock now holds.
	if err := w.refreshLockLocked(ctx); err != nil {
		return &req, err
	}
	return &req, nil
}

func (w *Wizard) resolveCounselorLocked() (models.Counselor, error) {
	if w.draft.CounselorID != "" {
		c, ok := models.CounselorByID(w.draft.CounselorID)
		if !ok {
			return models.Counselor{}, newValidationError("counselor", "Unknown counselor")
		}
		return c, nil
	}
	c, ok := w.engine.AutoAssign(w.draft.Date, w.draft.Time)
	if !ok {
		return models.Counselor{}, newValidationError("time", "Time not available ("+schedule.ReasonNoCounselors+")")
	}
	return c, nil
}

// ConfirmCancel cancels the outstanding Pending request. The caller is
// expected to have asked the user for confirmation first.
func (w *Wizard) ConfirmCancel(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	list, err := w.requests.List(ctx)
	if err != nil {
		return err
	}
	for _, req := range list {
		if req.Type != models.RequestTypeMeet || req.Status != models.StatusPending {
			continue
		}
		canceledAt := w.clock()
		status := models.StatusCanceled
		if err := w.requests.Patch(ctx, req.ID, models.RequestPatch{
			Status:     &status,
			CanceledAt: &canceledAt,
		}); err != nil {
			return fmt.Errorf("failed to cancel request %s: %w", req.ID, err)
		}
		utils.GetLogger().Info("Booking request canceled", zap.String("requestID", req.ID))
		w.step = StepDone
		w.notice = CancelNotice
		return w.refreshLockLocked(ctx)
	}
	return fmt.Errorf("no pending request to cancel")
}

// RefreshLock re-derives the pending lock. A lock appearing while the flow
// is mid-step pre-empts it, modeling another tab completing or cancelling a
// request out from under this one.
func (w *Wizard) RefreshLock(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refreshLockLocked(ctx)
}

// NotifyStorageChanged re-derives the lock on a storage-change event.
func (w *Wizard) NotifyStorageChanged(ctx context.Context) error {
	return w.RefreshLock(ctx)
}

func (w *Wizard) refreshLockLocked(ctx context.Context) error {
	pending, err := w.requests.HasPendingMeet(ctx)
	if err != nil {
		return fmt.Errorf("failed to derive pending lock: %w", err)
	}
	w.locked = pending
	if pending && w.step >= StepSessionType && w.step <= StepConfirm {
		w.jumpToLockedLocked()
	}
	return nil
}

func (w *Wizard) jumpToLockedLocked() {
	w.step = StepDone
	w.notice = LockMessage
}

// WatchLock polls the pending-lock predicate until ctx is cancelled,
// covering the window between storage-change notifications.
func (w *Wizard) WatchLock(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RefreshLock(ctx); err != nil {
				utils.GetLogger().Warn("Pending lock refresh failed", zap.Error(err))
			}
		}
	}
}

// Progress is the completion percentage: 0 at home, 100 on the final state,
// linear across the five input steps.
func (w *Wizard) Progress() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.step == StepHome:
		return 0
	case w.step == StepDone:
		return 100
	default:
		return int(float64(w.step-1) / float64(totalFlowSteps-1) * 100)
	}
}
