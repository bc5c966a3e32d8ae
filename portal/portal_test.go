package portal

import (
	"context"
	"testing"
	"time"

	"counselhub/database/kv"
	requestsRepo "counselhub/database/repository/requests"
	"counselhub/models"
	"counselhub/services/chat"
	"counselhub/services/identity"
	"counselhub/services/schedule"
	"counselhub/services/wizard"
)

type stubProvider struct{}

func (stubProvider) Threads() []models.Thread { return nil }
func (stubProvider) SendMessage(ctx context.Context, threadID, text string, mode models.ChatMode) error {
	return nil
}
func (stubProvider) EndChat(ctx context.Context, threadID string) error { return nil }
func (stubProvider) RefreshThreads(reason string)                       {}

func TestPillClick(t *testing.T) {
	clicks := 0
	p := &Pill{OnClick: func() { clicks++ }}

	p.Click()
	if clicks != 1 {
		t.Fatalf("clicks = %d, want 1", clicks)
	}

	p.Hidden = true
	p.Click()
	if clicks != 1 {
		t.Errorf("hidden pill still fired the handler")
	}
}

func TestDrawerOpenClose(t *testing.T) {
	closes := 0
	d := &Drawer{
		Manager: chat.NewManager(kv.NewMemoryStore(), identity.None, stubProvider{}),
		OnClose: func() { closes++ },
	}

	d.Open(context.Background())
	if !d.IsOpen() {
		t.Fatalf("drawer not open after Open")
	}
	// A second Open while open is a no-op.
	d.Open(context.Background())

	d.Close()
	if d.IsOpen() || closes != 1 {
		t.Errorf("after Close: open=%v closes=%d", d.IsOpen(), closes)
	}
	// A second Close is a no-op too.
	d.Close()
	if closes != 1 {
		t.Errorf("double close fired OnClose twice")
	}
}

func TestWizardHostBackFromHomeCloses(t *testing.T) {
	clock := func() time.Time {
		return time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	}
	engine := schedule.NewEngineWithClock(time.UTC, clock, schedule.DefaultHolidays)
	repo := requestsRepo.NewKVRepository(kv.NewMemoryStore())

	closes := 0
	h := &WizardHost{
		Wizard:  wizard.New(engine, repo),
		OnClose: func() { closes++ },
	}

	if err := h.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	h.Back()
	if closes != 1 {
		t.Errorf("back from home: closes = %d, want 1", closes)
	}
}
