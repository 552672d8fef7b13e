package platform

import (
	"fmt"
	"strings"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// ParseMouseButton converts a string flag value to MouseButton.
func ParseMouseButton(s string) (MouseButton, error) {
	switch strings.ToLower(s) {
	case "left":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, fmt.Errorf("unknown mouse button: %q (expected left, right, or middle)", s)
	}
}

// ScopeKind selects the root of a snapshot walk.
type ScopeKind int

const (
	// ScopeFrontmost walks the frontmost application's focused window.
	ScopeFrontmost ScopeKind = iota
	// ScopeSystem walks every accessible application on screen.
	ScopeSystem
	// ScopeApp walks a specific application by process id.
	ScopeApp
)

// Scope identifies the subtree a snapshot covers.
type Scope struct {
	Kind ScopeKind
	PID  int // set when Kind == ScopeApp
}

// ParseScope converts a CLI flag value to a Scope.
func ParseScope(s string, pid int) (Scope, error) {
	if pid != 0 {
		return Scope{Kind: ScopeApp, PID: pid}, nil
	}
	switch strings.ToLower(s) {
	case "", "frontmost", "window":
		return Scope{Kind: ScopeFrontmost}, nil
	case "system", "screen":
		return Scope{Kind: ScopeSystem}, nil
	default:
		return Scope{}, fmt.Errorf("unknown scope: %q (expected frontmost or system, or use --pid)", s)
	}
}

// HintStyle carries presenter parameters for hint labels. Values come
// straight from user configuration and pass through untouched.
type HintStyle struct {
	FontSize         int
	FontFamily       string
	Padding          int
	BorderRadius     int
	BorderWidth      int
	Opacity          float64
	BackgroundColor  string
	TextColor        string
	MatchedTextColor string
	BorderColor      string
	HideUnmatched    bool // hide rather than dim labels outside the live set
}

// GridStyle carries presenter parameters for grid cells.
type GridStyle struct {
	FontSize               int
	FontFamily             string
	Opacity                float64
	BorderWidth            int
	BackgroundColor        string
	TextColor              string
	MatchedTextColor       string
	MatchedBackgroundColor string
	MatchedBorderColor     string
}
