package engine

import (
	"errors"
	"image"
	"testing"
)

func TestPartitionGridExactCover(t *testing.T) {
	a := MustAlphabet(DefaultAlphabet)
	// 1003x761 does not divide evenly by 3x4; remainder pixels must be
	// absorbed without gaps or overlap.
	bounds := image.Rect(10, 20, 1013, 781)
	g, err := PartitionGrid(bounds, 3, 4, a)
	if err != nil {
		t.Fatalf("PartitionGrid: %v", err)
	}
	if len(g.Cells) != 12 {
		t.Fatalf("got %d cells, want 12", len(g.Cells))
	}

	area := 0
	for i, c := range g.Cells {
		if c.Bounds.Empty() {
			t.Fatalf("cell %d is empty: %v", i, c.Bounds)
		}
		if !c.Bounds.In(bounds) {
			t.Fatalf("cell %d %v escapes region %v", i, c.Bounds, bounds)
		}
		area += c.Bounds.Dx() * c.Bounds.Dy()
		for j := i + 1; j < len(g.Cells); j++ {
			if c.Bounds.Overlaps(g.Cells[j].Bounds) {
				t.Fatalf("cells %d and %d overlap: %v, %v", i, j, c.Bounds, g.Cells[j].Bounds)
			}
		}
	}
	if want := bounds.Dx() * bounds.Dy(); area != want {
		t.Errorf("cell area sum = %d, want %d (exact cover)", area, want)
	}
}

func TestPartitionGridLabels(t *testing.T) {
	g, err := PartitionGrid(image.Rect(0, 0, 300, 300), 2, 2, MustAlphabet("ab"))
	if err != nil {
		t.Fatalf("PartitionGrid: %v", err)
	}
	want := []string{"aa", "ab", "ba", "bb"}
	for i, c := range g.Cells {
		if c.Label != want[i] {
			t.Errorf("cell %d label = %q, want %q", i, c.Label, want[i])
		}
	}
	seen := make(map[string]bool)
	for _, c := range g.Cells {
		if seen[c.Label] {
			t.Fatalf("duplicate label %q", c.Label)
		}
		seen[c.Label] = true
	}
}

func TestSubdivide(t *testing.T) {
	a := MustAlphabet(DefaultAlphabet)
	g, err := PartitionGrid(image.Rect(0, 0, 1920, 1080), 3, 3, a)
	if err != nil {
		t.Fatalf("PartitionGrid: %v", err)
	}

	// Recurse into the center cell.
	sub, err := g.Subdivide(4, 3, 3, a)
	if err != nil {
		t.Fatalf("Subdivide: %v", err)
	}
	if sub.Depth != 1 {
		t.Errorf("sub.Depth = %d, want 1", sub.Depth)
	}
	if sub.Bounds != g.Cells[4].Bounds {
		t.Errorf("sub.Bounds = %v, want parent cell %v", sub.Bounds, g.Cells[4].Bounds)
	}
	for i, c := range sub.Cells {
		if !c.Bounds.In(g.Cells[4].Bounds) {
			t.Errorf("subcell %d %v escapes parent cell %v", i, c.Bounds, g.Cells[4].Bounds)
		}
	}

	if _, err := g.Subdivide(99, 3, 3, a); err == nil {
		t.Error("Subdivide(99) expected out-of-range error")
	}
}

func TestSubdivideRefusesIllegibleCells(t *testing.T) {
	a := MustAlphabet(DefaultAlphabet)
	// 100x60 over 3x3 yields ~33x20 cells; one more 3x3 split would go
	// below the legibility floor.
	g, err := PartitionGrid(image.Rect(0, 0, 100, 60), 3, 3, a)
	if err != nil {
		t.Fatalf("PartitionGrid: %v", err)
	}
	_, err = g.Subdivide(0, 3, 3, a)
	if !errors.Is(err, ErrCellTooSmall) {
		t.Fatalf("Subdivide below floor: err = %v, want ErrCellTooSmall", err)
	}
}

func TestGridCellCenter(t *testing.T) {
	c := GridCell{Bounds: image.Rect(10, 20, 30, 60)}
	if got := c.Center(); got != image.Pt(20, 40) {
		t.Errorf("Center() = %v, want (20,40)", got)
	}
}
