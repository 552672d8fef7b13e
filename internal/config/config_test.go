package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Grid.Rows != 3 || cfg.Grid.Cols != 3 {
		t.Errorf("grid = %dx%d, want default 3x3", cfg.Grid.Rows, cfg.Grid.Cols)
	}
	if cfg.Hotkeys.Hints == "" {
		t.Error("default hints hotkey is empty")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[general]
excluded_apps = ["com.example.vault"]
session_timeout_seconds = 10

[hints]
alphabet = "asdf"
auto_select_single = true

[grid]
rows = 4
cols = 5

[scroll]
step = 5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hints.Alphabet != "asdf" || !cfg.Hints.AutoSelectSingle {
		t.Errorf("hints = %+v, want asdf/auto-select", cfg.Hints)
	}
	if cfg.Grid.Rows != 4 || cfg.Grid.Cols != 5 {
		t.Errorf("grid = %dx%d, want 4x5", cfg.Grid.Rows, cfg.Grid.Cols)
	}
	// Unset sections keep their defaults.
	if cfg.Scroll.HalfPage != 15 {
		t.Errorf("scroll.half_page = %d, want default 15", cfg.Scroll.HalfPage)
	}
	if !cfg.Excluded("com.example.vault") {
		t.Error("excluded app not recognized")
	}
	if cfg.Excluded("com.example.editor") {
		t.Error("unlisted app reported excluded")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad alphabet", body: "[hints]\nalphabet = \"a1\"\n", want: "alphabet"},
		{name: "zero grid", body: "[grid]\nrows = 0\n", want: "grid"},
		{name: "negative timeout", body: "[general]\nsession_timeout_seconds = -1\n", want: "timeout"},
		{name: "zero scroll step", body: "[scroll]\nstep = 0\n", want: "scroll"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := Default()
	cfg.General.SessionTimeoutSeconds = 20
	ec, err := cfg.EngineConfig()
	if err != nil {
		t.Fatalf("EngineConfig: %v", err)
	}
	if ec.GridRows != 3 || ec.GridCols != 3 {
		t.Errorf("engine grid = %dx%d, want 3x3", ec.GridRows, ec.GridCols)
	}
	if ec.SessionTimeout != 20*time.Second {
		t.Errorf("timeout = %v, want 20s", ec.SessionTimeout)
	}
	if ec.HintAlphabet.Size() != 26 {
		t.Errorf("alphabet size = %d, want 26", ec.HintAlphabet.Size())
	}
}

func TestStatsPathOff(t *testing.T) {
	cfg := Default()
	cfg.General.StatsPath = "off"
	if got := cfg.StatsPath(); got != "" {
		t.Errorf("StatsPath() = %q, want empty when disabled", got)
	}
}
