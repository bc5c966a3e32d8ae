// Package portal is the embedding surface: the floating action pill, the
// messaging drawer host, and the booking wizard host. Rendering belongs to
// the embedding application; these types carry the state and callbacks it
// binds to.
package portal

import (
	"context"
	"time"

	"counselhub/services/chat"
	"counselhub/services/wizard"
)

// lockPollInterval covers the window between storage-change notifications.
const lockPollInterval = 2 * time.Second

// Theme is the drawer's accent configuration.
type Theme struct {
	Accent     string `json:"accent,omitempty"`
	HeaderTint string `json:"headerTint,omitempty"`
}

// Pill is the floating action pill's state.
type Pill struct {
	Unread  int
	Hidden  bool
	OnClick func()
}

// Click invokes the bound handler unless the pill is hidden.
func (p *Pill) Click() {
	if p.Hidden || p.OnClick == nil {
		return
	}
	p.OnClick()
}

// Drawer hosts the messaging drawer. Opening it drives the chat session
// lifecycle and starts the countdown; closing it cancels the countdown but
// never cancels in-flight provider calls.
type Drawer struct {
	Manager *chat.Manager
	Theme   Theme
	OnClose func()

	cancel context.CancelFunc
	open   bool
}

func (d *Drawer) Open(ctx context.Context) {
	if d.open {
		return
	}
	d.open = true
	d.Manager.Open(ctx)

	tickCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	go d.Manager.StartCountdown(tickCtx)
}

func (d *Drawer) Close() {
	if !d.open {
		return
	}
	d.open = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.OnClose != nil {
		d.OnClose()
	}
}

func (d *Drawer) IsOpen() bool {
	return d.open
}

// WizardHost hosts the booking wizard and its close callback.
type WizardHost struct {
	Wizard  *wizard.Wizard
	OnClose func()

	cancel context.CancelFunc
	open   bool
}

// Open resets the wizard and starts the pending-lock watcher.
func (h *WizardHost) Open(ctx context.Context) error {
	if h.open {
		return nil
	}
	h.open = true
	if err := h.Wizard.Open(ctx); err != nil {
		return err
	}
	watchCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	go h.Wizard.WatchLock(watchCtx, lockPollInterval)
	return nil
}

// Back steps the wizard backwards, closing the host when the flow backs out
// of the home state.
func (h *WizardHost) Back() {
	if h.Wizard.GoBack() {
		h.Close()
	}
}

func (h *WizardHost) Close() {
	if !h.open {
		return
	}
	h.open = false
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	if h.OnClose != nil {
		h.OnClose()
	}
}
