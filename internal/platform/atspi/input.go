//go:build linux

package atspi

import (
	"fmt"
	"image"
	"sync"

	"github.com/keyglide/keyglide/internal/platform"
)

// input synthesizes mouse events through the registry's
// DeviceEventController. Event names follow the X convention: b1 left,
// b2 middle, b3 right, b4/b5 vertical wheel, b6/b7 horizontal wheel;
// suffix c is a full click, abs an absolute move.
type input struct {
	conn *conn

	mu      sync.Mutex
	lastPos image.Point
	moved   bool
}

func (i *input) generate(x, y int, name string) error {
	obj := i.conn.bus.Object(registryName, decPath)
	call := obj.Call(ifaceDEC+".GenerateMouseEvent", 0, int32(x), int32(y), name)
	if call.Err != nil {
		return fmt.Errorf("mouse event %s at (%d,%d): %w", name, x, y, call.Err)
	}
	return nil
}

func (i *input) Click(pt image.Point, button platform.MouseButton, count int) error {
	name := "b1c"
	switch button {
	case platform.MouseRight:
		name = "b3c"
	case platform.MouseMiddle:
		name = "b2c"
	}
	for n := 0; n < count; n++ {
		if err := i.generate(pt.X, pt.Y, name); err != nil {
			return err
		}
	}
	i.remember(pt)
	return nil
}

func (i *input) MoveMouse(pt image.Point) error {
	if err := i.generate(pt.X, pt.Y, "abs"); err != nil {
		return err
	}
	i.remember(pt)
	return nil
}

// Scroll emits wheel button clicks at the point, one per line. Positive
// dy scrolls content up (wheel button 4), positive dx scrolls left.
func (i *input) Scroll(pt image.Point, dx, dy int) error {
	emit := func(n int, name string) error {
		for k := 0; k < n; k++ {
			if err := i.generate(pt.X, pt.Y, name); err != nil {
				return err
			}
		}
		return nil
	}
	if dy > 0 {
		if err := emit(dy, "b4c"); err != nil {
			return err
		}
	} else if dy < 0 {
		if err := emit(-dy, "b5c"); err != nil {
			return err
		}
	}
	if dx > 0 {
		if err := emit(dx, "b6c"); err != nil {
			return err
		}
	} else if dx < 0 {
		if err := emit(-dx, "b7c"); err != nil {
			return err
		}
	}
	return nil
}

// CursorPosition reports the last position this adapter moved to. The
// registry offers no query, so before the first synthetic move there is
// nothing to restore to.
func (i *input) CursorPosition() (image.Point, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.moved {
		return image.Point{}, fmt.Errorf("cursor position unknown")
	}
	return i.lastPos, nil
}

func (i *input) remember(pt image.Point) {
	i.mu.Lock()
	i.lastPos = pt
	i.moved = true
	i.mu.Unlock()
}
