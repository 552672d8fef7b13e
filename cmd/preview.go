package cmd

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keyglide/keyglide/internal/config"
	"github.com/keyglide/keyglide/internal/engine"
	"github.com/keyglide/keyglide/internal/output"
	"github.com/keyglide/keyglide/internal/overlay"
	"github.com/keyglide/keyglide/internal/platform"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a session frame to a PNG",
	Long:  "Render hint labels or the grid to an image for checking placement and styling without a live overlay. Uses the real accessibility tree when available, or a sample layout with --sample.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mode, _ := cmd.Flags().GetString("mode")
		out, _ := cmd.Flags().GetString("out")
		sample, _ := cmd.Flags().GetBool("sample")

		var bounds image.Rectangle
		var cands []engine.Candidate
		if sample {
			bounds = image.Rect(0, 0, 1280, 800)
			cands = sampleCandidates(bounds)
		} else {
			bounds, cands, err = livePreviewInput(cfg, mode)
			if err != nil {
				return err
			}
		}

		pv := overlay.NewPreview(bounds)
		switch mode {
		case "hints":
			alphabet, err := engine.NewAlphabet(cfg.Hints.Alphabet)
			if err != nil {
				return err
			}
			pv.DrawHints(cands, alphabet.AssignLabels(len(cands)))
		case "grid":
			alphabet, err := engine.NewAlphabet(cfg.Grid.Alphabet)
			if err != nil {
				return err
			}
			g, err := engine.PartitionGrid(bounds, cfg.Grid.Rows, cfg.Grid.Cols, alphabet)
			if err != nil {
				return err
			}
			pv.DrawGrid(g)
		default:
			return fmt.Errorf("unknown preview mode: %s (use hints or grid)", mode)
		}

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pv.Encode(f); err != nil {
			return err
		}
		return output.Print(map[string]string{"preview": out})
	},
}

func livePreviewInput(cfg config.Config, mode string) (image.Rectangle, []engine.Candidate, error) {
	provider, err := platform.NewProvider()
	if err != nil {
		return image.Rectangle{}, nil, fmt.Errorf("%w; use --sample for a synthetic layout", err)
	}
	bounds := provider.Screens.Active()
	if mode != "hints" {
		return bounds, nil, nil
	}
	builder := engine.NewSnapshotBuilder(provider.Tree, zap.NewNop())
	snap, err := builder.Build(context.Background(), platform.Scope{Kind: platform.ScopeFrontmost}, engine.SnapshotOptions{
		Want:          engine.CapClickable,
		Clip:          bounds,
		MaxCandidates: cfg.Hints.MaxCandidates,
	})
	if err != nil {
		return image.Rectangle{}, nil, err
	}
	return bounds, snap.Candidates, nil
}

// sampleCandidates lays out a toolbar row and a button column, enough
// to judge label styling.
func sampleCandidates(bounds image.Rectangle) []engine.Candidate {
	var cands []engine.Candidate
	for i := 0; i < 6; i++ {
		b := image.Rect(40+i*140, 30, 160+i*140, 62)
		cands = append(cands, engine.Candidate{
			Bounds: b,
			Point:  image.Pt(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2),
		})
	}
	for i := 0; i < 4; i++ {
		b := image.Rect(60, 140+i*90, 300, 180+i*90)
		cands = append(cands, engine.Candidate{
			Bounds: b,
			Point:  image.Pt(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2),
		})
	}
	for i := range cands {
		cands[i].Index = i
	}
	return cands
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().String("mode", "hints", "Preview mode: hints or grid")
	previewCmd.Flags().String("out", "keyglide-preview.png", "Output PNG path")
	previewCmd.Flags().Bool("sample", false, "Render a synthetic layout instead of the live tree")
}
