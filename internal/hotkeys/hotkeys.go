// Package hotkeys routes event-tap keystrokes to session activation and
// the active session's key handler.
package hotkeys

import (
	"fmt"
	"sync"

	"github.com/keyglide/keyglide/internal/config"
	"github.com/keyglide/keyglide/internal/engine"
	"github.com/keyglide/keyglide/internal/platform"
	"go.uber.org/zap"
)

// Controller owns the process's single event tap. While idle the tap
// delivers registered hotkey chords only; during a session it captures
// every key and forwards it to the session controller.
type Controller struct {
	tap    platform.EventTap
	logger *zap.Logger

	mu       sync.Mutex
	modes    map[int]engine.Mode // hotkey id to activation mode
	suppress func() bool         // frontmost app is excluded

	onActivate func(engine.Mode)
	onKey      func(string)
}

// New wires a controller to the platform tap.
func New(tap platform.EventTap, logger *zap.Logger) *Controller {
	return &Controller{tap: tap, logger: logger, modes: map[int]engine.Mode{}}
}

// Start installs the tap. onActivate fires on a hotkey chord, onKey on
// every captured keystroke during a session.
func (c *Controller) Start(onActivate func(engine.Mode), onKey func(string)) error {
	c.onActivate = onActivate
	c.onKey = onKey
	if err := c.tap.Start(c.handle); err != nil {
		return fmt.Errorf("%w: %v", engine.ErrTapUnavailable, err)
	}
	return nil
}

// Rebind replaces the registered chords from configuration. The swap is
// atomic: between two valid sets the old one stays installed, and a
// rejected set leaves it untouched.
func (c *Controller) Rebind(hk config.Hotkeys) error {
	chords := []struct {
		chord string
		mode  engine.Mode
	}{
		{hk.Hints, engine.ModeHints},
		{hk.HintsAction, engine.ModeHintActions},
		{hk.Grid, engine.ModeGrid},
		{hk.Scroll, engine.ModeScroll},
	}

	var bindings []platform.HotkeyBinding
	modes := map[int]engine.Mode{}
	id := 0
	for _, ch := range chords {
		if ch.chord == "" {
			continue // mode reachable through the CLI only
		}
		id++
		bindings = append(bindings, platform.HotkeyBinding{ID: id, Chord: ch.chord})
		modes[id] = ch.mode
	}

	if err := c.tap.SetHotkeys(bindings); err != nil {
		return fmt.Errorf("register hotkeys: %w", err)
	}
	c.mu.Lock()
	c.modes = modes
	c.mu.Unlock()
	c.logger.Debug("hotkeys bound", zap.Int("count", len(bindings)))
	return nil
}

// SetSuppressed installs the excluded-app predicate, consulted on every
// hotkey chord.
func (c *Controller) SetSuppressed(fn func() bool) {
	c.mu.Lock()
	c.suppress = fn
	c.mu.Unlock()
}

// SetCapturing toggles full key capture for an active session.
func (c *Controller) SetCapturing(capture bool) {
	c.tap.SetCapturing(capture)
}

// Stop removes the tap.
func (c *Controller) Stop() {
	c.tap.Stop()
}

func (c *Controller) handle(ev platform.KeyEvent) {
	if ev.HotkeyID != 0 {
		c.mu.Lock()
		mode, ok := c.modes[ev.HotkeyID]
		suppress := c.suppress
		c.mu.Unlock()
		if !ok {
			return
		}
		if suppress != nil && suppress() {
			c.logger.Debug("hotkey suppressed for excluded app")
			return
		}
		c.onActivate(mode)
		return
	}
	c.onKey(ev.Key)
}
