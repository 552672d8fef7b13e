package platform

import (
	"context"
	"image"
)

// Node is an opaque handle to an element in the OS accessibility tree.
// Handles are owned by the adapter that produced them and are only valid
// for the lifetime of that adapter; the engine never stores them in its
// data model.
type Node interface{}

// ElementInfo is the closed set of attributes the engine consumes for a
// single accessibility node. Adapters map whatever dynamic attribute
// scheme the OS exposes onto these typed fields.
type ElementInfo struct {
	Role        string
	Title       string
	PID         int
	Bounds      image.Rectangle // screen coordinates, device pixels
	Enabled     bool
	Focused     bool
	Clickable   bool
	Scrollable  bool
	Focusable   bool
	NativePress bool // element declares an accessibility press action
	Virtualized bool // container exposing only a visible-rows subset
}

// TreeReader walks the OS accessibility tree.
type TreeReader interface {
	// Root returns the tree root for the given scope.
	Root(ctx context.Context, scope Scope) (Node, error)

	// Children returns the full child list of a node. A node that has
	// vanished mid-walk yields an empty list, not an error.
	Children(ctx context.Context, n Node) ([]Node, error)

	// VisibleChildren returns only the on-screen subset of a virtualized
	// container's children (visible rows of a table or list).
	VisibleChildren(ctx context.Context, n Node) ([]Node, error)

	// Info reads the typed attribute set for a node.
	Info(ctx context.Context, n Node) (ElementInfo, error)

	// ElementAt resolves the element at a screen point.
	ElementAt(ctx context.Context, pt image.Point) (Node, error)

	// Press performs the element's native accessibility press action.
	Press(ctx context.Context, n Node) error

	// Focus moves keyboard focus to the element.
	Focus(ctx context.Context, n Node) error

	// Accessible reports whether the process is still reachable through
	// the accessibility layer.
	Accessible(pid int) bool
}

// Input synthesizes mouse events.
type Input interface {
	Click(pt image.Point, button MouseButton, count int) error
	MoveMouse(pt image.Point) error
	Scroll(pt image.Point, dx, dy int) error
	CursorPosition() (image.Point, error)
}

// HintDrawing is one hint label ready to render.
type HintDrawing struct {
	Label      string
	At         image.Point // anchor, the candidate's interaction point
	MatchedLen int         // leading characters matching the current query
	Dimmed     bool
}

// CellDrawing is one grid cell ready to render.
type CellDrawing struct {
	Label      string
	Bounds     image.Rectangle
	MatchedLen int
	Matched    bool // highlighted as consistent with the current query
}

// Overlay is the transparent, click-through, topmost surface a session
// draws on. Clear followed by Hide must remove every hit-testable trace
// of the surface, not merely make it transparent.
type Overlay interface {
	Show() error
	Hide() error
	Clear() error
	DrawHints(hints []HintDrawing, style HintStyle) error
	DrawGridCells(cells []CellDrawing, style GridStyle) error
}

// Screens answers display geometry queries.
type Screens interface {
	// Main returns the bounds of the primary display.
	Main() image.Rectangle
	// Active returns the bounds of the display hosting the focused
	// window, which may differ from Main on multi-monitor setups.
	Active() image.Rectangle
}

// KeyEvent is one raw key-down delivered by the event tap. Key is the
// symbolic name ("a", "escape", "backspace", "enter", "tab", ...).
// HotkeyID is non-zero when the event completed a registered hotkey chord.
type KeyEvent struct {
	Key      string
	HotkeyID int
}

// HotkeyBinding associates a chord string ("cmd+shift+space") with an id.
type HotkeyBinding struct {
	ID    int
	Chord string
}

// EventTap is the process-wide keyboard event source. Exactly one tap
// exists per process; SetHotkeys replaces the registered set atomically.
type EventTap interface {
	// Start installs the tap and begins delivering events to handler.
	// Events arrive serially, in arrival order.
	Start(handler func(KeyEvent)) error

	// SetHotkeys atomically replaces the registered hotkey chords.
	SetHotkeys(bindings []HotkeyBinding) error

	// SetCapturing toggles between hotkeys-only delivery (idle) and
	// full key capture (during an active session).
	SetCapturing(capture bool)

	// Stop disables and removes the tap.
	Stop()
}

// AppInfo identifies a running application.
type AppInfo struct {
	ID   string // stable identifier (bundle id, desktop file, executable)
	Name string
	PID  int
}

// Apps answers application-level queries.
type Apps interface {
	// Frontmost returns the application owning keyboard focus.
	Frontmost() (AppInfo, error)
}

// Permissions reports OS-level access grants.
type Permissions interface {
	AccessibilityGranted() bool
}
