// Package tray provides a system tray menu for the typing coach.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/typecoach/internal/fingering"
	"github.com/ayusman/typecoach/internal/keyboard"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle      func(enabled bool)
	onRecalibrate func()
	onDashboard   func()
	onQuit        func()
	enabled       bool
	status        string
	mu            sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a new Tray with checking enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		status:  "Not calibrated",
	}
}

// OnToggle sets the callback run when checking is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnRecalibrate sets the callback run when "Recalibrate" is clicked.
func (t *Tray) OnRecalibrate(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRecalibrate = fn
}

// OnDashboard sets the callback run when "Open Dashboard" is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback run when "Quit" is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("TypeCoach")
	systray.SetTooltip("TypeCoach fingering assistant")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle fingering checks")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(t.status, "Calibration prompt or last verdict")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuRecalibrate := systray.AddMenuItem("Recalibrate", "Capture the anchor keys again")
	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the session dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit TypeCoach")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuRecalibrate.ClickedCh:
				t.handleRecalibrate()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle flips the enabled state.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleRecalibrate handles the recalibrate menu item click.
func (t *Tray) handleRecalibrate() {
	t.mu.RLock()
	callback := t.onRecalibrate
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleDashboard handles the dashboard menu item click.
func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the status line in the menu.
func (t *Tray) SetStatus(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = line
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(line)
	}
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Checking"
	}
	return "○ Paused"
}

// StatusLine renders a corrector event for the status line: the next anchor
// while calibrating, the verdict once ready.
func StatusLine(ev fingering.Event, next keyboard.Key) string {
	switch {
	case ev.Calibrated:
		return "Calibrated"
	case ev.State == fingering.Calibrating:
		return fmt.Sprintf("Calibrating: press %q", next)
	case ev.State == fingering.Uncalibrated:
		return "Not calibrated"
	case ev.Verdict != nil:
		return fmt.Sprintf("%s: %s", ev.Key, ev.Verdict)
	}
	return fmt.Sprintf("%s: not judged", ev.Key)
}
