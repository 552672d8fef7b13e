// Package config loads and validates the user's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/keyglide/keyglide/internal/engine"
)

// General holds daemon-wide settings.
type General struct {
	// ExcludedApps lists application identifiers for which hotkeys are
	// ignored (password managers, screen-sharing tools).
	ExcludedApps []string `toml:"excluded_apps"`
	// RestoreCursor moves the pointer back after a click action.
	RestoreCursor bool `toml:"restore_cursor"`
	// SessionTimeoutSeconds ends an idle session automatically. Zero
	// disables the timeout.
	SessionTimeoutSeconds int `toml:"session_timeout_seconds"`
	// SocketPath overrides the control socket location.
	SocketPath string `toml:"socket_path"`
	// StatsPath overrides the session statistics database location.
	// "off" disables statistics entirely.
	StatsPath string `toml:"stats_path"`
}

// Hotkeys binds activation chords. An empty chord disables that mode's
// hotkey; the mode stays reachable through the CLI.
type Hotkeys struct {
	Hints       string `toml:"hints"`
	HintsAction string `toml:"hints_action"`
	Grid        string `toml:"grid"`
	Scroll      string `toml:"scroll"`
}

// Hints configures hint sessions.
type Hints struct {
	Alphabet            string   `toml:"alphabet"`
	AutoSelectSingle    bool     `toml:"auto_select_single"`
	HideUnmatched       bool     `toml:"hide_unmatched"`
	MaxCandidates       int      `toml:"max_candidates"`
	ExtraClickableRoles []string `toml:"extra_clickable_roles"`
	FontSize            float64  `toml:"font_size"`
	Background          string   `toml:"background"`
	Foreground          string   `toml:"foreground"`
	MatchedColor        string   `toml:"matched_color"`
}

// Grid configures grid sessions.
type Grid struct {
	Alphabet  string  `toml:"alphabet"`
	Rows      int     `toml:"rows"`
	Cols      int     `toml:"cols"`
	FontSize  float64 `toml:"font_size"`
	LineColor string  `toml:"line_color"`
}

// Scroll configures scroll-mode step sizes in lines.
type Scroll struct {
	Step     int `toml:"step"`
	HalfPage int `toml:"half_page"`
	FullPage int `toml:"full_page"`
}

// Logging configures the daemon log.
type Logging struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Config is the root of the TOML file.
type Config struct {
	General General `toml:"general"`
	Hotkeys Hotkeys `toml:"hotkeys"`
	Hints   Hints   `toml:"hints"`
	Grid    Grid    `toml:"grid"`
	Scroll  Scroll  `toml:"scroll"`
	Logging Logging `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		General: General{
			RestoreCursor:         true,
			SessionTimeoutSeconds: 30,
		},
		Hotkeys: Hotkeys{
			Hints:       "ctrl+alt+f",
			HintsAction: "ctrl+alt+a",
			Grid:        "ctrl+alt+g",
			Scroll:      "ctrl+alt+s",
		},
		Hints: Hints{
			Alphabet:      engine.DefaultAlphabet,
			MaxCandidates: 500,
			FontSize:      13,
			Background:    "#f5d742",
			Foreground:    "#000000",
			MatchedColor:  "#999999",
		},
		Grid: Grid{
			Alphabet:  engine.DefaultAlphabet,
			Rows:      3,
			Cols:      3,
			FontSize:  14,
			LineColor: "#80808080",
		},
		Scroll: Scroll{
			Step:     3,
			HalfPage: 15,
			FullPage: 40,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "keyglide", "config.toml")
}

// SocketPath resolves the control socket location.
func (c Config) SocketPath() string {
	if c.General.SocketPath != "" {
		return c.General.SocketPath
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "keyglide.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("keyglide-%d.sock", os.Getuid()))
}

// StatsPath resolves the statistics database location; empty disables
// statistics.
func (c Config) StatsPath() string {
	switch c.General.StatsPath {
	case "off":
		return ""
	case "":
		dir, err := os.UserCacheDir()
		if err != nil {
			return ""
		}
		return filepath.Join(dir, "keyglide", "stats.db")
	default:
		return c.General.StatsPath
	}
}

// LogFile resolves the daemon log location.
func (c Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "keyglide", "keyglide.log")
}

// Load reads path over the defaults. A missing file is not an error:
// the defaults apply unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot honor.
func (c Config) Validate() error {
	if _, err := engine.NewAlphabet(c.Hints.Alphabet); err != nil {
		return fmt.Errorf("hints.alphabet: %w", err)
	}
	if _, err := engine.NewAlphabet(c.Grid.Alphabet); err != nil {
		return fmt.Errorf("grid.alphabet: %w", err)
	}
	if c.Grid.Rows < 1 || c.Grid.Cols < 1 {
		return fmt.Errorf("grid needs at least 1x1, got %dx%d", c.Grid.Rows, c.Grid.Cols)
	}
	if c.Grid.Rows*c.Grid.Cols < 2 {
		return fmt.Errorf("grid must have at least 2 cells")
	}
	if c.Hints.MaxCandidates < 0 {
		return fmt.Errorf("hints.max_candidates must be non-negative")
	}
	if c.Scroll.Step < 1 || c.Scroll.HalfPage < 1 || c.Scroll.FullPage < 1 {
		return fmt.Errorf("scroll steps must be positive")
	}
	if c.General.SessionTimeoutSeconds < 0 {
		return fmt.Errorf("general.session_timeout_seconds must be non-negative")
	}
	return nil
}

// Excluded reports whether hotkeys are suppressed for the app identifier.
func (c Config) Excluded(appID string) bool {
	for _, id := range c.General.ExcludedApps {
		if id == appID {
			return true
		}
	}
	return false
}

// EngineConfig converts the user configuration to engine policy.
func (c Config) EngineConfig() (engine.Config, error) {
	hintAlpha, err := engine.NewAlphabet(c.Hints.Alphabet)
	if err != nil {
		return engine.Config{}, err
	}
	gridAlpha, err := engine.NewAlphabet(c.Grid.Alphabet)
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		HintAlphabet:        hintAlpha,
		GridAlphabet:        gridAlpha,
		GridRows:            c.Grid.Rows,
		GridCols:            c.Grid.Cols,
		AutoSelectSingle:    c.Hints.AutoSelectSingle,
		HideUnmatched:       c.Hints.HideUnmatched,
		MaxCandidates:       c.Hints.MaxCandidates,
		ExtraClickableRoles: c.Hints.ExtraClickableRoles,
		SessionTimeout:      timeoutDuration(c.General.SessionTimeoutSeconds),
		RestoreCursor:       c.General.RestoreCursor,
		ScrollStep:          c.Scroll.Step,
		ScrollStepHalf:      c.Scroll.HalfPage,
		ScrollStepFull:      c.Scroll.FullPage,
	}, nil
}

func timeoutDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
