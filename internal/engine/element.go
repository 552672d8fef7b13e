package engine

import (
	"image"
	"time"

	"github.com/keyglide/keyglide/internal/platform"
)

// Capability flags a candidate can carry.
type Capability uint8

const (
	CapClickable Capability = 1 << iota
	CapScrollable
	CapFocusable
)

// Has reports whether c contains every flag in want.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// Candidate is one actionable element captured at snapshot time. The
// struct holds plain geometry and flags only; OS handles stay inside the
// platform adapter.
type Candidate struct {
	Index       int
	Role        string
	Title       string
	PID         int
	Bounds      image.Rectangle
	Point       image.Point // precomputed interaction point
	Enabled     bool
	Caps        Capability
	NativePress bool
}

// Snapshot is the immutable candidate list for one session. Geometry is
// not re-queried mid-session; staleness is accepted for responsiveness.
type Snapshot struct {
	Scope      platform.Scope
	Candidates []Candidate
	Taken      time.Time
}

// Empty reports whether the snapshot holds no candidates.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Candidates) == 0
}

// interactionPoint computes where input lands on an element. Rows span
// the full window width, so clicking their center often hits a nested
// control; they get a left-biased offset instead. Any point that falls
// outside the element's own bounds is corrected to the geometric center.
func interactionPoint(role string, b image.Rectangle) image.Point {
	center := image.Point{
		X: b.Min.X + b.Dx()/2,
		Y: b.Min.Y + b.Dy()/2,
	}
	pt := center
	switch role {
	case "row", "cell":
		pt = image.Point{X: b.Min.X + b.Dx()/4, Y: center.Y}
	}
	if !pt.In(b) {
		pt = center
	}
	return pt
}
