// Package chat manages the messaging drawer's session lifecycle: identity
// mode selection, the 24-hour countdown-bound session persisted across
// reloads, and message display rules.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"counselhub/config"
	"counselhub/database/kv"
	"counselhub/models"
	"counselhub/services/identity"
	"counselhub/utils"
)

// SessionKey is the fixed key the chat session persists under.
const SessionKey = "counselhub:chatSession"

// Thread-refresh reasons reported to the provider.
const (
	ReasonExpired         = "expired"
	ReasonAnonymousStart  = "anonymous_start"
	ReasonAnonymousToggle = "anonymous_toggle"
)

const emailErrorMessage = "Enter a valid email address"

// ThreadProvider is the caller-supplied collaborator owning threads and
// message delivery.
type ThreadProvider interface {
	Threads() []models.Thread
	SendMessage(ctx context.Context, threadID, text string, senderMode models.ChatMode) error
	EndChat(ctx context.Context, threadID string) error
	RefreshThreads(reason string)
}

// Enqueuer schedules a durable expiry sweep for a session. Optional: the
// 1-second countdown covers expiry on its own; the enqueuer adds a durable
// backstop handled by the cron worker.
type Enqueuer interface {
	ScheduleExpiry(ctx context.Context, sessionID string, at time.Time) error
}

// Manager drives the chat session state machine over the storage port.
type Manager struct {
	mu       sync.Mutex
	store    kv.Store
	identity identity.Resolver
	provider ThreadProvider
	enqueuer Enqueuer
	clock    func() time.Time
	ttl      time.Duration

	sess         *models.ChatSession
	draft        string
	errMsg       string
	emailTouched bool
}

func NewManager(store kv.Store, resolver identity.Resolver, provider ThreadProvider) *Manager {
	ttlHours := config.AppConfig.SessionTTLHours
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &Manager{
		store:    store,
		identity: resolver,
		provider: provider,
		clock:    time.Now,
		ttl:      time.Duration(ttlHours) * time.Hour,
	}
}

// SetEnqueuer attaches the durable-expiry scheduler.
func (m *Manager) SetEnqueuer(e Enqueuer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueuer = e
}

// SetClock replaces the time source, for tests and embedders that control
// time.
func (m *Manager) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

// View reports what the drawer should render. With no session, that is the
// identity mode selector.
func (m *Manager) View() models.ChatView {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return models.ViewMode
	}
	return m.sess.View
}

// Session returns a copy of the current session, or nil.
func (m *Manager) Session() *models.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil
	}
	copied := *m.sess
	return &copied
}

// Open restores or starts the session when the drawer opens.
//
// A saved, unexpired session is restored verbatim, except that a logged-in
// caller stuck on the mode or email views is pushed straight to chat, and a
// student session's email is forced to the logged-in one. With no saved
// session, a logged-in caller with a valid email auto-starts as student;
// anyone else lands on the mode selector.
func (m *Manager) Open(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := m.loadLocked(ctx)
	now := m.clock()
	id, loggedIn := m.identity.Resolve()
	loggedIn = loggedIn && id != nil && identity.ValidEmail(id.Email)

	if saved != nil && saved.Expired(now) {
		m.sess = saved
		m.expireLocked(ctx)
		saved = nil
	}

	if saved != nil {
		if loggedIn {
			if saved.View == models.ViewMode || saved.View == models.ViewEmail {
				saved.View = models.ViewChat
				saved.Mode = models.ModeStudent
			}
			if saved.Mode == models.ModeStudent {
				saved.StudentEmail = id.Email
			}
		}
		m.sess = saved
		m.saveLocked(ctx)
		return
	}

	if loggedIn {
		m.startSessionLocked(ctx, models.ModeStudent, models.ViewChat, id.Email)
		return
	}
	m.sess = nil
}

// ChooseMode starts (or restarts) a session in the given identity mode.
// Switching modes mid-session discards the old session entirely; the new one
// gets its own full 24-hour window.
func (m *Manager) ChooseMode(ctx context.Context, mode models.ChatMode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prior := m.sess
	m.emailTouched = false
	m.errMsg = ""

	switch mode {
	case models.ModeStudent:
		if id, ok := m.identity.Resolve(); ok && id != nil && identity.ValidEmail(id.Email) {
			m.startSessionLocked(ctx, models.ModeStudent, models.ViewChat, id.Email)
		} else {
			m.startSessionLocked(ctx, models.ModeStudent, models.ViewEmail, "")
		}
		if prior != nil && prior.Mode == models.ModeAnonymous {
			m.provider.RefreshThreads(ReasonAnonymousToggle)
		}
	case models.ModeAnonymous:
		m.startSessionLocked(ctx, models.ModeAnonymous, models.ViewChat, "")
		if prior != nil && prior.Mode == models.ModeStudent {
			m.provider.RefreshThreads(ReasonAnonymousToggle)
		} else {
			m.provider.RefreshThreads(ReasonAnonymousStart)
		}
	}
}

// SubmitEmail is the student email gate for callers without a logged-in
// identity.
func (m *Manager) SubmitEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emailTouched = true
	email = strings.TrimSpace(email)
	if !identity.ValidEmail(email) {
		m.errMsg = emailErrorMessage
		return &EmailValidationError{Message: emailErrorMessage}
	}
	if m.sess == nil {
		m.startSessionLocked(ctx, models.ModeStudent, models.ViewChat, email)
	} else {
		m.sess.StudentEmail = email
		m.sess.View = models.ViewChat
		m.saveLocked(ctx)
	}
	m.errMsg = ""
	return nil
}

// MarkEmailTouched records a blur of the email field so the inline error may
// show before any submit attempt.
func (m *Manager) MarkEmailTouched(current string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emailTouched = true
	if !identity.ValidEmail(strings.TrimSpace(current)) {
		m.errMsg = emailErrorMessage
	} else {
		m.errMsg = ""
	}
}

// InlineError returns the current inline error. Email errors only surface
// once the field has been touched.
func (m *Manager) InlineError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errMsg == emailErrorMessage && !m.emailTouched {
		return ""
	}
	return m.errMsg
}

// Tick recomputes the remaining session time. At or past expiry the session
// is cleared, the view falls back to mode selection, and the provider is
// told to refresh with reason "expired".
func (m *Manager) Tick(ctx context.Context) (remaining time.Duration, expired bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return 0, false
	}
	remaining = m.sess.ExpiresAt.Sub(m.clock())
	if remaining <= 0 {
		m.expireLocked(ctx)
		return 0, true
	}
	return remaining, false
}

// StartCountdown runs the 1-second expiry tick until the session expires or
// ctx is cancelled. Callers run it in its own goroutine and cancel it when
// the drawer closes.
func (m *Manager) StartCountdown(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, expired := m.Tick(ctx); expired {
				return
			}
		}
	}
}

// SetActiveThread selects the conversation to render and resets pagination
// to the most recent page.
func (m *Manager) SetActiveThread(ctx context.Context, threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return
	}
	m.sess.ActiveThreadID = threadID
	m.sess.VisibleMessageCount = PageSize
	m.saveLocked(ctx)
}

// SetDraft replaces the message draft.
func (m *Manager) SetDraft(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = text
	if m.errMsg != emailErrorMessage {
		m.errMsg = ""
	}
}

func (m *Manager) Draft() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// SendMessage sends the current draft to the active thread. The send is
// optimistic: the draft clears immediately and is restored if the provider
// rejects the call. A profanity match keeps the draft and reports the error
// inline instead of sending.
func (m *Manager) SendMessage(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil || m.sess.ActiveThreadID == "" {
		return ErrNoActiveThread
	}
	thread, ok := m.activeThreadLocked()
	if !ok {
		return ErrNoActiveThread
	}
	if thread.Closed {
		return ErrThreadClosed
	}
	text := strings.TrimSpace(m.draft)
	if text == "" {
		return ErrEmptyMessage
	}
	if word, found := findBlockedWord(text); found {
		m.errMsg = "Please keep the conversation respectful."
		return &ProfanityError{Word: word}
	}

	draft := m.draft
	m.draft = ""
	m.errMsg = ""
	if err := m.provider.SendMessage(ctx, thread.ID, text, m.sess.Mode); err != nil {
		// Roll back the optimistic clear so nothing typed is lost.
		m.draft = draft
		utils.GetLogger().Error("Message send rejected",
			zap.String("threadID", thread.ID), zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// EndChat ends the active conversation and clears the session.
func (m *Manager) EndChat(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return nil
	}
	if m.sess.ActiveThreadID != "" {
		if err := m.provider.EndChat(ctx, m.sess.ActiveThreadID); err != nil {
			utils.GetLogger().Error("End chat rejected",
				zap.String("threadID", m.sess.ActiveThreadID), zap.Error(err))
			return fmt.Errorf("failed to end chat: %w", err)
		}
	}
	m.clearLocked(ctx)
	return nil
}

// ExpireIfCurrent clears the session when the durable expiry task fires, if
// the stored session is still the one the task was scheduled for. Firing
// after the session was replaced or cleared is a no-op.
func (m *Manager) ExpireIfCurrent(ctx context.Context, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := m.loadLocked(ctx)
	if saved == nil || saved.ID != sessionID || !saved.Expired(m.clock()) {
		return false
	}
	m.sess = saved
	m.expireLocked(ctx)
	return true
}

func (m *Manager) activeThreadLocked() (models.Thread, bool) {
	for _, t := range m.provider.Threads() {
		if t.ID == m.sess.ActiveThreadID {
			return t, true
		}
	}
	return models.Thread{}, false
}

func (m *Manager) startSessionLocked(ctx context.Context, mode models.ChatMode, view models.ChatView, email string) {
	now := m.clock()
	m.sess = &models.ChatSession{
		ID:                  uuid.New().String(),
		View:                view,
		Mode:                mode,
		StudentEmail:        email,
		CreatedAt:           now,
		ExpiresAt:           now.Add(m.ttl),
		VisibleMessageCount: PageSize,
	}
	m.draft = ""
	m.saveLocked(ctx)

	if m.enqueuer != nil {
		if err := m.enqueuer.ScheduleExpiry(ctx, m.sess.ID, m.sess.ExpiresAt); err != nil {
			utils.GetLogger().Warn("Failed to schedule session expiry sweep",
				zap.String("sessionID", m.sess.ID), zap.Error(err))
		}
	}
}

func (m *Manager) expireLocked(ctx context.Context) {
	m.clearLocked(ctx)
	m.provider.RefreshThreads(ReasonExpired)
}

func (m *Manager) clearLocked(ctx context.Context) {
	if err := m.store.Remove(ctx, SessionKey); err != nil {
		utils.GetLogger().Warn("Failed to clear chat session", zap.Error(err))
	}
	m.sess = nil
	m.draft = ""
	m.emailTouched = false
	m.errMsg = ""
}

func (m *Manager) loadLocked(ctx context.Context) *models.ChatSession {
	raw, err := m.store.Get(ctx, SessionKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			utils.GetLogger().Warn("Failed to read chat session", zap.Error(err))
		}
		return nil
	}
	var sess models.ChatSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// Corrupt payload: treat as absent.
		utils.GetLogger().Warn("Corrupt chat session payload, discarding", zap.Error(err))
		return nil
	}
	return &sess
}

func (m *Manager) saveLocked(ctx context.Context) {
	if m.sess == nil {
		return
	}
	data, err := json.Marshal(m.sess)
	if err != nil {
		utils.GetLogger().Error("Failed to marshal chat session", zap.Error(err))
		return
	}
	if err := m.store.Set(ctx, SessionKey, string(data)); err != nil {
		utils.GetLogger().Warn("Failed to persist chat session", zap.Error(err))
	}
}
