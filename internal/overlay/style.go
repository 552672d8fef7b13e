package overlay

import (
	"github.com/keyglide/keyglide/internal/config"
	"github.com/keyglide/keyglide/internal/platform"
)

// StylesFromConfig maps user configuration onto the platform style
// parameters. Color strings pass through untouched; adapters parse them.
func StylesFromConfig(cfg config.Config) (platform.HintStyle, platform.GridStyle) {
	hint := platform.HintStyle{
		FontSize:         int(cfg.Hints.FontSize),
		Padding:          3,
		BorderRadius:     3,
		Opacity:          0.95,
		BackgroundColor:  cfg.Hints.Background,
		TextColor:        cfg.Hints.Foreground,
		MatchedTextColor: cfg.Hints.MatchedColor,
		HideUnmatched:    cfg.Hints.HideUnmatched,
	}
	grid := platform.GridStyle{
		FontSize:               int(cfg.Grid.FontSize),
		Opacity:                0.4,
		BorderWidth:            1,
		BackgroundColor:        "#00000000",
		TextColor:              cfg.Hints.Foreground,
		MatchedTextColor:       cfg.Hints.MatchedColor,
		MatchedBackgroundColor: cfg.Hints.Background,
		MatchedBorderColor:     cfg.Grid.LineColor,
	}
	return hint, grid
}
