package engine

import (
	"context"
	"fmt"
	"image"

	"github.com/keyglide/keyglide/internal/platform"
	"go.uber.org/zap"
)

// Action is what happens at the resolved point when a session completes.
type Action int

const (
	ActionLeftClick Action = iota
	ActionRightClick
	ActionMiddleClick
	ActionDoubleClick
	ActionFocus
	ActionMoveMouse
	ActionScroll
)

// ParseAction converts a config/CLI string to an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "", "left-click", "left_click":
		return ActionLeftClick, nil
	case "right-click", "right_click":
		return ActionRightClick, nil
	case "middle-click", "middle_click":
		return ActionMiddleClick, nil
	case "double-click", "double_click":
		return ActionDoubleClick, nil
	case "focus":
		return ActionFocus, nil
	case "move", "move-mouse", "move_mouse":
		return ActionMoveMouse, nil
	case "scroll":
		return ActionScroll, nil
	default:
		return ActionLeftClick, fmt.Errorf("unknown action: %q", s)
	}
}

func (a Action) String() string {
	switch a {
	case ActionLeftClick:
		return "left-click"
	case ActionRightClick:
		return "right-click"
	case ActionMiddleClick:
		return "middle-click"
	case ActionDoubleClick:
		return "double-click"
	case ActionFocus:
		return "focus"
	case ActionMoveMouse:
		return "move"
	case ActionScroll:
		return "scroll"
	default:
		return "unknown"
	}
}

// Target is a resolved dispatch destination: a candidate's interaction
// point, or a grid cell's center (PID zero, no native press).
type Target struct {
	Point       image.Point
	PID         int
	NativePress bool
	ScrollDelta image.Point // used by ActionScroll
}

// Dispatcher converts a terminal selection into synthetic input.
type Dispatcher struct {
	tree          platform.TreeReader
	input         platform.Input
	restoreCursor bool
	logger        *zap.Logger
}

// NewDispatcher wires a dispatcher. restoreCursor moves the pointer back
// to its pre-click position after click actions.
func NewDispatcher(tree platform.TreeReader, input platform.Input, restoreCursor bool, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{tree: tree, input: input, restoreCursor: restoreCursor, logger: logger}
}

// Dispatch performs action at the target. A target whose owning process
// has exited returns ErrStaleTarget; callers close the session silently.
//
// Click actions prefer the native accessibility press when the candidate
// declared one at snapshot time, re-resolving the element at the point
// at dispatch time. A failed native press falls back to a synthetic
// move, button-down, button-up sequence.
func (d *Dispatcher) Dispatch(ctx context.Context, target Target, action Action) error {
	if target.PID != 0 && d.tree != nil && !d.tree.Accessible(target.PID) {
		return fmt.Errorf("pid %d: %w", target.PID, ErrStaleTarget)
	}

	switch action {
	case ActionMoveMouse:
		return d.input.MoveMouse(target.Point)
	case ActionScroll:
		return d.input.Scroll(target.Point, target.ScrollDelta.X, target.ScrollDelta.Y)
	case ActionFocus:
		return d.focus(ctx, target)
	default:
		return d.click(ctx, target, action)
	}
}

func (d *Dispatcher) focus(ctx context.Context, target Target) error {
	if d.tree == nil {
		return fmt.Errorf("focus: no tree reader available")
	}
	n, err := d.tree.ElementAt(ctx, target.Point)
	if err != nil || n == nil {
		return fmt.Errorf("focus at %v: %w", target.Point, ErrStaleTarget)
	}
	return d.tree.Focus(ctx, n)
}

func (d *Dispatcher) click(ctx context.Context, target Target, action Action) error {
	var restore *image.Point
	if d.restoreCursor {
		if pos, err := d.input.CursorPosition(); err == nil {
			restore = &pos
		}
	}

	if target.NativePress && action == ActionLeftClick && d.tree != nil {
		if n, err := d.tree.ElementAt(ctx, target.Point); err == nil && n != nil {
			if err := d.tree.Press(ctx, n); err == nil {
				return nil
			}
			d.logger.Debug("native press failed, falling back to synthetic click",
				zap.Int("x", target.Point.X), zap.Int("y", target.Point.Y))
		}
	}

	button := platform.MouseLeft
	count := 1
	switch action {
	case ActionRightClick:
		button = platform.MouseRight
	case ActionMiddleClick:
		button = platform.MouseMiddle
	case ActionDoubleClick:
		count = 2
	}

	if err := d.input.Click(target.Point, button, count); err != nil {
		return fmt.Errorf("synthetic click at %v: %w", target.Point, err)
	}
	if restore != nil {
		if err := d.input.MoveMouse(*restore); err != nil {
			d.logger.Debug("cursor restore failed", zap.Error(err))
		}
	}
	return nil
}
