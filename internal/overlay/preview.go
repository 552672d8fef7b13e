package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/keyglide/keyglide/internal/engine"
)

// Preview renders session frames into a plain image for inspection: the
// preview CLI verb uses it to check label placement and grid geometry
// without a live overlay surface.
type Preview struct {
	img *image.RGBA
}

// NewPreview allocates a canvas covering bounds.
func NewPreview(bounds image.Rectangle) *Preview {
	img := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{30, 30, 30, 255}}, image.Point{}, draw.Src)
	return &Preview{img: img}
}

var (
	previewLabelBG   = color.RGBA{245, 215, 66, 255}
	previewLabelText = color.RGBA{0, 0, 0, 255}
	previewBoxLine   = color.RGBA{90, 90, 90, 255}
	previewGridLine  = color.RGBA{160, 160, 160, 255}
)

// DrawHints renders candidate outlines and their labels.
func (p *Preview) DrawHints(cands []engine.Candidate, labels []string) {
	for i, c := range cands {
		p.strokeRect(c.Bounds, previewBoxLine)
		p.drawLabel(labels[i], c.Point)
	}
}

// DrawGrid renders cell borders and centered labels.
func (p *Preview) DrawGrid(g *engine.Grid) {
	for _, c := range g.Cells {
		p.strokeRect(c.Bounds, previewGridLine)
		p.drawLabel(c.Label, c.Center())
	}
}

// Encode writes the canvas as PNG.
func (p *Preview) Encode(w io.Writer) error {
	if err := png.Encode(w, p.img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

func (p *Preview) drawLabel(text string, at image.Point) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Metrics().Height.Ceil()

	pad := 2
	box := image.Rect(at.X-pad, at.Y-h-pad, at.X+w+pad, at.Y+pad)
	draw.Draw(p.img, box, &image.Uniform{previewLabelBG}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  p.img,
		Src:  &image.Uniform{previewLabelText},
		Face: face,
		Dot:  fixed.P(at.X, at.Y-face.Metrics().Descent.Ceil()),
	}
	d.DrawString(text)
}

func (p *Preview) strokeRect(r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		p.img.Set(x, r.Min.Y, c)
		p.img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		p.img.Set(r.Min.X, y, c)
		p.img.Set(r.Max.X-1, y, c)
	}
}
