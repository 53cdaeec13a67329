// Package tray provides a system tray menu for the repcount service.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray shows the latest rep and offers counter reset and quit actions.
type Tray struct {
	onReset func()
	onOpen  func()
	onQuit  func()
	mu      sync.RWMutex

	title      string
	lastRep    string
	menuStatus *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a new Tray. status is shown as the first, disabled, menu entry.
func New(status string) *Tray {
	return &Tray{title: status}
}

// OnReset sets the callback run when "Reset counters" is clicked.
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnOpen sets the callback run when "Open in browser" is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run when "Quit" is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops the tray loop.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("RepCount")
	systray.SetTooltip("RepCount exercise tracker")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(t.title, "Service status")
	t.menuStatus.Disable()
	t.menuLast = systray.AddMenuItem(lastTitle(t.lastRep), "Last completed repetition")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuReset := systray.AddMenuItem("Reset counters", "Zero the default session counters")
	menuOpen := systray.AddMenuItem("Open in browser", "Open the web client")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Stop RepCount")

	go func() {
		for {
			select {
			case <-menuReset.ClickedCh:
				t.call(func(t *Tray) func() { return t.onReset })
				t.SetLastRep("", 0)
			case <-menuOpen.ClickedCh:
				t.call(func(t *Tray) func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func(t *Tray) func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

// call runs the selected callback outside the lock.
func (t *Tray) call(pick func(*Tray) func()) {
	t.mu.RLock()
	fn := pick(t)
	t.mu.RUnlock()

	if fn != nil {
		fn()
	}
}

// SetLastRep updates the last rep entry. An empty exercise clears it.
func (t *Tray) SetLastRep(exercise string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if exercise == "" {
		t.lastRep = ""
	} else {
		t.lastRep = fmt.Sprintf("%s (%d total)", exercise, total)
	}
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(t.lastRep))
	}
}

// LastRep returns the text shown in the last rep entry.
func (t *Tray) LastRep() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lastTitle(t.lastRep)
}

func lastTitle(rep string) string {
	if rep == "" {
		return "Last: none"
	}
	return "Last: " + rep
}
