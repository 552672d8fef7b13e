// Package overlay turns engine state into drawings on the platform
// overlay surface.
package overlay

import (
	"image"
	"reflect"

	"github.com/keyglide/keyglide/internal/engine"
	"github.com/keyglide/keyglide/internal/platform"
	"go.uber.org/zap"
)

// Presenter renders hint and grid frames. Rendering is diff-based: a
// frame identical to the previous one is skipped, so repeated present
// calls with unchanged state cost nothing beyond the comparison.
type Presenter struct {
	surface   platform.Overlay
	hintStyle platform.HintStyle
	gridStyle platform.GridStyle
	logger    *zap.Logger

	visible   bool
	lastHints []platform.HintDrawing
	lastCells []platform.CellDrawing
}

// New wires a presenter to an overlay surface.
func New(surface platform.Overlay, hintStyle platform.HintStyle, gridStyle platform.GridStyle, logger *zap.Logger) *Presenter {
	return &Presenter{surface: surface, hintStyle: hintStyle, gridStyle: gridStyle, logger: logger}
}

// PresentHints draws one hint frame. Labels outside the live set are
// dimmed, or hidden entirely under the hide-unmatched style.
func (p *Presenter) PresentHints(cands []engine.Candidate, labels []string, query string, live []int) error {
	inLive := make(map[int]bool, len(live))
	for _, i := range live {
		inLive[i] = true
	}

	hints := make([]platform.HintDrawing, 0, len(cands))
	for i, c := range cands {
		if !inLive[i] {
			if p.hintStyle.HideUnmatched {
				continue
			}
			hints = append(hints, platform.HintDrawing{Label: labels[i], At: c.Point, Dimmed: true})
			continue
		}
		hints = append(hints, platform.HintDrawing{Label: labels[i], At: c.Point, MatchedLen: len(query)})
	}

	if p.visible && reflect.DeepEqual(hints, p.lastHints) {
		return nil
	}
	if err := p.show(); err != nil {
		return err
	}
	if err := p.surface.Clear(); err != nil {
		return err
	}
	if err := p.surface.DrawHints(hints, p.hintStyle); err != nil {
		return err
	}
	p.lastHints = hints
	p.lastCells = nil
	return nil
}

// PresentGrid draws one grid frame with live cells highlighted.
func (p *Presenter) PresentGrid(grid *engine.Grid, query string, live []int) error {
	inLive := make(map[int]bool, len(live))
	for _, i := range live {
		inLive[i] = true
	}

	cells := make([]platform.CellDrawing, len(grid.Cells))
	for i, c := range grid.Cells {
		cells[i] = platform.CellDrawing{
			Label:   c.Label,
			Bounds:  c.Bounds,
			Matched: inLive[i],
		}
		if inLive[i] {
			cells[i].MatchedLen = len(query)
		}
	}

	if p.visible && reflect.DeepEqual(cells, p.lastCells) {
		return nil
	}
	if err := p.show(); err != nil {
		return err
	}
	if err := p.surface.Clear(); err != nil {
		return err
	}
	if err := p.surface.DrawGridCells(cells, p.gridStyle); err != nil {
		return err
	}
	p.lastCells = cells
	p.lastHints = nil
	return nil
}

// PresentActionMenu draws the one-keystroke action chooser anchored at
// the resolved target.
func (p *Presenter) PresentActionMenu(at image.Point) error {
	hints := make([]platform.HintDrawing, len(engine.ActionMenuItems))
	lineHeight := p.hintStyle.FontSize + 2*p.hintStyle.Padding + 4
	for i, item := range engine.ActionMenuItems {
		hints[i] = platform.HintDrawing{
			Label: item.Key + " " + item.Label,
			At:    image.Pt(at.X+12, at.Y+i*lineHeight),
		}
	}
	if err := p.show(); err != nil {
		return err
	}
	if err := p.surface.Clear(); err != nil {
		return err
	}
	if err := p.surface.DrawHints(hints, p.hintStyle); err != nil {
		return err
	}
	p.lastHints = hints
	p.lastCells = nil
	return nil
}

// End clears and hides the surface, removing every hit-testable trace.
// Idempotent.
func (p *Presenter) End() {
	if !p.visible {
		return
	}
	if err := p.surface.Clear(); err != nil {
		p.logger.Warn("overlay clear failed", zap.Error(err))
	}
	if err := p.surface.Hide(); err != nil {
		p.logger.Warn("overlay hide failed", zap.Error(err))
	}
	p.visible = false
	p.lastHints = nil
	p.lastCells = nil
}

func (p *Presenter) show() error {
	if p.visible {
		return nil
	}
	if err := p.surface.Show(); err != nil {
		return err
	}
	p.visible = true
	return nil
}
