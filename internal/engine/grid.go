package engine

import (
	"fmt"
	"image"
)

// Minimum cell dimensions in device pixels. A cell must stay large
// enough to render a legible label; subdivision refuses to recurse past
// this bound.
const (
	MinCellWidth  = 24
	MinCellHeight = 16
)

// GridCell is one rectangle of a partition.
type GridCell struct {
	Index  int
	Label  string
	Bounds image.Rectangle
}

// Center returns the cell's geometric center, the point a grid
// selection dispatches to.
func (c GridCell) Center() image.Point {
	return image.Point{
		X: c.Bounds.Min.X + c.Bounds.Dx()/2,
		Y: c.Bounds.Min.Y + c.Bounds.Dy()/2,
	}
}

// Grid is an R×C partition of a region. Cells are disjoint and their
// union equals the region exactly; subgrids satisfy the same invariant
// within their parent cell's bounds.
type Grid struct {
	Bounds image.Rectangle
	Rows   int
	Cols   int
	Cells  []GridCell
	Depth  int // 0 for the top-level partition
}

// PartitionGrid splits bounds into rows×cols near-equal cells labeled in
// row-major order by the allocator. Remainder pixels are spread one per
// leading row/column so the union covers bounds exactly.
func PartitionGrid(bounds image.Rectangle, rows, cols int, alphabet Alphabet) (*Grid, error) {
	return partitionAt(bounds, rows, cols, alphabet, 0)
}

func partitionAt(bounds image.Rectangle, rows, cols int, alphabet Alphabet, depth int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("grid needs at least 1x1, got %dx%d", rows, cols)
	}
	w, h := bounds.Dx(), bounds.Dy()
	if w < cols*MinCellWidth || h < rows*MinCellHeight {
		return nil, fmt.Errorf("%w: %dx%d region cannot hold %dx%d legible cells",
			ErrCellTooSmall, w, h, rows, cols)
	}

	xBreaks := breakpoints(bounds.Min.X, w, cols)
	yBreaks := breakpoints(bounds.Min.Y, h, rows)
	labels := alphabet.AssignLabels(rows * cols)

	cells := make([]GridCell, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			cells = append(cells, GridCell{
				Index:  i,
				Label:  labels[i],
				Bounds: image.Rect(xBreaks[c], yBreaks[r], xBreaks[c+1], yBreaks[r+1]),
			})
		}
	}
	return &Grid{Bounds: bounds, Rows: rows, Cols: cols, Cells: cells, Depth: depth}, nil
}

// breakpoints splits length into n segments whose sizes differ by at
// most one pixel, biased toward the leading segments.
func breakpoints(min, length, n int) []int {
	breaks := make([]int, n+1)
	base := length / n
	rem := length % n
	breaks[0] = min
	for i := 1; i <= n; i++ {
		size := base
		if i-1 < rem {
			size++
		}
		breaks[i] = breaks[i-1] + size
	}
	return breaks
}

// Subdivide re-partitions one cell into a finer rows×cols grid,
// replacing the current label set with a fresh, smaller-scope one.
// Returns ErrCellTooSmall when the result would drop below the legible
// minimum; the caller then treats the cell as final.
func (g *Grid) Subdivide(cellIndex, rows, cols int, alphabet Alphabet) (*Grid, error) {
	if cellIndex < 0 || cellIndex >= len(g.Cells) {
		return nil, fmt.Errorf("cell index %d out of range [0,%d)", cellIndex, len(g.Cells))
	}
	return partitionAt(g.Cells[cellIndex].Bounds, rows, cols, alphabet, g.Depth+1)
}

// Labels returns the cell labels in index order, the input to a Matcher.
func (g *Grid) Labels() []string {
	labels := make([]string, len(g.Cells))
	for i, c := range g.Cells {
		labels[i] = c.Label
	}
	return labels
}
