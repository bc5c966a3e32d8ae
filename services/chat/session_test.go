package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"counselhub/database/kv"
	"counselhub/models"
	"counselhub/services/identity"
)

type sentMessage struct {
	ThreadID string
	Text     string
	Mode     models.ChatMode
}

// fakeProvider is an in-memory thread provider recording every interaction.
type fakeProvider struct {
	threads   []models.Thread
	sent      []sentMessage
	ended     []string
	refreshes []string
	sendErr   error
	endErr    error
}

func (p *fakeProvider) Threads() []models.Thread { return p.threads }

func (p *fakeProvider) SendMessage(ctx context.Context, threadID, text string, mode models.ChatMode) error {
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, sentMessage{ThreadID: threadID, Text: text, Mode: mode})
	return nil
}

func (p *fakeProvider) EndChat(ctx context.Context, threadID string) error {
	if p.endErr != nil {
		return p.endErr
	}
	p.ended = append(p.ended, threadID)
	return nil
}

func (p *fakeProvider) RefreshThreads(reason string) {
	p.refreshes = append(p.refreshes, reason)
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(store kv.Store, resolver identity.Resolver, provider *fakeProvider) (*Manager, *testClock) {
	clock := &testClock{now: time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)}
	m := NewManager(store, resolver, provider)
	m.SetClock(clock.Now)
	return m, clock
}

func TestOpenWithoutIdentityShowsModeSelector(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(kv.NewMemoryStore(), identity.None, &fakeProvider{})

	m.Open(ctx)
	if got := m.View(); got != models.ViewMode {
		t.Errorf("View() = %q, want mode selector", got)
	}
	if m.Session() != nil {
		t.Errorf("unexpected session without identity or choice")
	}
}

func TestOpenAutoStartsStudent(t *testing.T) {
	ctx := context.Background()
	resolver := identity.StaticResolver{Identity: &models.Identity{Email: "ana@univ.edu", Name: "Ana"}}
	m, _ := newTestManager(kv.NewMemoryStore(), resolver, &fakeProvider{})

	m.Open(ctx)
	sess := m.Session()
	if sess == nil {
		t.Fatalf("expected auto-started session")
	}
	if sess.View != models.ViewChat || sess.Mode != models.ModeStudent {
		t.Errorf("session = %+v, want student chat", sess)
	}
	if sess.StudentEmail != "ana@univ.edu" {
		t.Errorf("studentEmail = %q", sess.StudentEmail)
	}
}

func TestOpenIgnoresInvalidIdentityEmail(t *testing.T) {
	ctx := context.Background()
	resolver := identity.StaticResolver{Identity: &models.Identity{Email: "not-an-email"}}
	m, _ := newTestManager(kv.NewMemoryStore(), resolver, &fakeProvider{})

	m.Open(ctx)
	if m.Session() != nil {
		t.Errorf("auto-start must require a valid email")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	provider := &fakeProvider{}

	m1, _ := newTestManager(store, identity.None, provider)
	m1.ChooseMode(ctx, models.ModeAnonymous)
	m1.SetActiveThread(ctx, "t1")
	saved := m1.Session()
	if saved == nil {
		t.Fatalf("expected session after mode choice")
	}

	// A fresh manager over the same store restores the same session.
	m2, _ := newTestManager(store, identity.None, provider)
	m2.Open(ctx)
	restored := m2.Session()
	if restored == nil {
		t.Fatalf("session not restored from storage")
	}
	if restored.ID != saved.ID ||
		restored.View != saved.View ||
		restored.Mode != saved.Mode ||
		restored.ActiveThreadID != saved.ActiveThreadID {
		t.Errorf("restored %+v, want equivalent of %+v", restored, saved)
	}
}

func TestRestoreForcesChatWhenLoggedIn(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	provider := &fakeProvider{}

	// A session stuck on the email view...
	m1, _ := newTestManager(store, identity.None, provider)
	m1.ChooseMode(ctx, models.ModeStudent)
	if m1.View() != models.ViewEmail {
		t.Fatalf("View() = %q, want email capture", m1.View())
	}

	// ...resumes straight into chat for a logged-in caller.
	resolver := identity.StaticResolver{Identity: &models.Identity{Email: "ana@univ.edu"}}
	m2, _ := newTestManager(store, resolver, provider)
	m2.Open(ctx)
	sess := m2.Session()
	if sess == nil || sess.View != models.ViewChat || sess.Mode != models.ModeStudent {
		t.Fatalf("session = %+v, want forced student chat view", sess)
	}
	if sess.StudentEmail != "ana@univ.edu" {
		t.Errorf("studentEmail = %q, want the logged-in email", sess.StudentEmail)
	}
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	provider := &fakeProvider{}
	m, clock := newTestManager(store, identity.None, provider)

	m.ChooseMode(ctx, models.ModeAnonymous)
	if _, expired := m.Tick(ctx); expired {
		t.Fatalf("fresh session reported expired")
	}

	clock.Advance(24*time.Hour + time.Second)
	remaining, expired := m.Tick(ctx)
	if !expired || remaining != 0 {
		t.Fatalf("Tick = (%v, %v), want expiry", remaining, expired)
	}
	if m.View() != models.ViewMode {
		t.Errorf("View() = %q, want reset to mode selector", m.View())
	}
	if _, err := store.Get(ctx, SessionKey); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("session still persisted after expiry")
	}
	last := provider.refreshes[len(provider.refreshes)-1]
	if last != ReasonExpired {
		t.Errorf("refresh reason = %q, want %q", last, ReasonExpired)
	}
}

func TestExpiredSessionClearedOnOpen(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	provider := &fakeProvider{}
	m1, clock := newTestManager(store, identity.None, provider)

	m1.ChooseMode(ctx, models.ModeAnonymous)
	clock.Advance(25 * time.Hour)

	m2, clock2 := newTestManager(store, identity.None, provider)
	clock2.now = clock.now
	m2.Open(ctx)
	if m2.Session() != nil {
		t.Errorf("expired session restored on open")
	}
	if m2.View() != models.ViewMode {
		t.Errorf("View() = %q, want mode selector", m2.View())
	}
}

func TestEmailGate(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(kv.NewMemoryStore(), identity.None, &fakeProvider{})

	m.ChooseMode(ctx, models.ModeStudent)
	if m.View() != models.ViewEmail {
		t.Fatalf("View() = %q, want email capture", m.View())
	}
	// No inline error before the field is touched.
	if m.InlineError() != "" {
		t.Errorf("premature inline error %q", m.InlineError())
	}

	var verr *EmailValidationError
	if err := m.SubmitEmail(ctx, "nope"); !errors.As(err, &verr) {
		t.Fatalf("SubmitEmail(nope) = %v, want validation error", err)
	}
	if m.InlineError() == "" {
		t.Errorf("inline error missing after failed submit")
	}
	if m.View() != models.ViewEmail {
		t.Errorf("view advanced despite invalid email")
	}

	if err := m.SubmitEmail(ctx, "ben@univ.edu"); err != nil {
		t.Fatalf("SubmitEmail: %v", err)
	}
	sess := m.Session()
	if sess == nil || sess.View != models.ViewChat || sess.StudentEmail != "ben@univ.edu" {
		t.Errorf("session = %+v, want chat view with email", sess)
	}
}

func TestEmailErrorOnBlur(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(kv.NewMemoryStore(), identity.None, &fakeProvider{})

	m.ChooseMode(ctx, models.ModeStudent)
	if m.InlineError() != "" {
		t.Fatalf("premature inline error %q", m.InlineError())
	}

	// Leaving the field with an invalid value surfaces the error without a
	// submit attempt.
	m.MarkEmailTouched("not-an-email")
	if m.InlineError() == "" {
		t.Errorf("no inline error after leaving the field invalid")
	}

	m.MarkEmailTouched("  ana@univ.edu ")
	if m.InlineError() != "" {
		t.Errorf("inline error %q kept after the field turned valid", m.InlineError())
	}
}

func TestModeSwitchStartsFreshSession(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{}
	m, clock := newTestManager(kv.NewMemoryStore(), identity.None, provider)

	m.ChooseMode(ctx, models.ModeAnonymous)
	first := m.Session()
	if provider.refreshes[len(provider.refreshes)-1] != ReasonAnonymousStart {
		t.Errorf("refresh = %q, want %q", provider.refreshes[len(provider.refreshes)-1], ReasonAnonymousStart)
	}

	clock.Advance(time.Hour)
	m.ChooseMode(ctx, models.ModeStudent)
	second := m.Session()
	if second == nil || second.ID == first.ID {
		t.Fatalf("mode switch must start a brand-new session")
	}
	// The new window is a full 24 hours, not an extension of the old one.
	if !second.ExpiresAt.Equal(clock.Now().Add(24 * time.Hour)) {
		t.Errorf("expiresAt = %v, want fresh 24h window", second.ExpiresAt)
	}
	if provider.refreshes[len(provider.refreshes)-1] != ReasonAnonymousToggle {
		t.Errorf("refresh = %q, want %q", provider.refreshes[len(provider.refreshes)-1], ReasonAnonymousToggle)
	}
}

func TestSendMessageProfanity(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{threads: []models.Thread{{ID: "t1"}}}
	m, _ := newTestManager(kv.NewMemoryStore(), identity.None, provider)

	m.ChooseMode(ctx, models.ModeAnonymous)
	m.SetActiveThread(ctx, "t1")
	m.SetDraft("you fuck")

	var perr *ProfanityError
	if err := m.SendMessage(ctx); !errors.As(err, &perr) {
		t.Fatalf("SendMessage = %v, want profanity rejection", err)
	}
	if m.Draft() != "you fuck" {
		t.Errorf("draft = %q, want preserved verbatim", m.Draft())
	}
	if len(provider.sent) != 0 {
		t.Errorf("message was sent despite profanity match")
	}
	if m.InlineError() == "" {
		t.Errorf("expected inline error after profanity match")
	}
}

func TestSendMessageGuards(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{threads: []models.Thread{{ID: "t1"}, {ID: "t2", Closed: true}}}
	m, _ := newTestManager(kv.NewMemoryStore(), identity.None, provider)

	if err := m.SendMessage(ctx); !errors.Is(err, ErrNoActiveThread) {
		t.Errorf("SendMessage with no session = %v, want ErrNoActiveThread", err)
	}

	m.ChooseMode(ctx, models.ModeAnonymous)
	m.SetActiveThread(ctx, "t2")
	m.SetDraft("hello")
	if err := m.SendMessage(ctx); !errors.Is(err, ErrThreadClosed) {
		t.Errorf("SendMessage to closed thread = %v, want ErrThreadClosed", err)
	}

	m.SetActiveThread(ctx, "t1")
	m.SetDraft("   ")
	if err := m.SendMessage(ctx); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("SendMessage with blank text = %v, want ErrEmptyMessage", err)
	}
}

func TestSendMessageRollbackOnFailure(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{threads: []models.Thread{{ID: "t1"}}, sendErr: errors.New("boom")}
	m, _ := newTestManager(kv.NewMemoryStore(), identity.None, provider)

	m.ChooseMode(ctx, models.ModeAnonymous)
	m.SetActiveThread(ctx, "t1")
	m.SetDraft("see you at 3")

	if err := m.SendMessage(ctx); err == nil {
		t.Fatalf("expected send failure")
	}
	if m.Draft() != "see you at 3" {
		t.Errorf("draft = %q, want restored after rejected send", m.Draft())
	}
}

func TestSendMessageSuccess(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{threads: []models.Thread{{ID: "t1"}}}
	m, _ := newTestManager(kv.NewMemoryStore(), identity.None, provider)

	m.ChooseMode(ctx, models.ModeAnonymous)
	m.SetActiveThread(ctx, "t1")
	m.SetDraft("  hello there  ")
	if err := m.SendMessage(ctx); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if m.Draft() != "" {
		t.Errorf("draft = %q, want cleared after send", m.Draft())
	}
	if len(provider.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(provider.sent))
	}
	got := provider.sent[0]
	if got.ThreadID != "t1" || got.Text != "hello there" || got.Mode != models.ModeAnonymous {
		t.Errorf("sent = %+v", got)
	}
}

func TestEndChatClearsSession(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	provider := &fakeProvider{threads: []models.Thread{{ID: "t1"}}}
	m, _ := newTestManager(store, identity.None, provider)

	m.ChooseMode(ctx, models.ModeAnonymous)
	m.SetActiveThread(ctx, "t1")
	if err := m.EndChat(ctx); err != nil {
		t.Fatalf("EndChat: %v", err)
	}
	if len(provider.ended) != 1 || provider.ended[0] != "t1" {
		t.Errorf("ended = %v", provider.ended)
	}
	if m.Session() != nil {
		t.Errorf("session survived end chat")
	}
	if _, err := store.Get(ctx, SessionKey); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("session still persisted after end chat")
	}
}

func TestEndChatKeepsSessionOnFailure(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{threads: []models.Thread{{ID: "t1"}}, endErr: errors.New("boom")}
	m, _ := newTestManager(kv.NewMemoryStore(), identity.None, provider)

	m.ChooseMode(ctx, models.ModeAnonymous)
	m.SetActiveThread(ctx, "t1")
	if err := m.EndChat(ctx); err == nil {
		t.Fatalf("expected end-chat failure")
	}
	if m.Session() == nil {
		t.Errorf("session cleared despite rejected end-chat call")
	}
}

func TestCorruptSessionPayloadIgnored(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	if err := store.Set(ctx, SessionKey, "{not json"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	m, _ := newTestManager(store, identity.None, &fakeProvider{})
	m.Open(ctx)
	if m.Session() != nil {
		t.Errorf("corrupt payload produced a session")
	}
	if m.View() != models.ViewMode {
		t.Errorf("View() = %q, want mode selector", m.View())
	}
}

func TestExpireIfCurrent(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	provider := &fakeProvider{}
	m, clock := newTestManager(store, identity.None, provider)

	m.ChooseMode(ctx, models.ModeAnonymous)
	sess := m.Session()

	// Before the deadline the sweep is a no-op.
	if m.ExpireIfCurrent(ctx, sess.ID) {
		t.Errorf("sweep cleared an unexpired session")
	}
	// A stale session id never clears the current one.
	clock.Advance(25 * time.Hour)
	if m.ExpireIfCurrent(ctx, "someone-else") {
		t.Errorf("sweep cleared a mismatched session")
	}
	if !m.ExpireIfCurrent(ctx, sess.ID) {
		t.Errorf("sweep did not clear the expired session")
	}
	if _, err := store.Get(ctx, SessionKey); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("session still persisted after sweep")
	}
}
