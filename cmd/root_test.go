package cmd

import (
	"testing"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"start", "stop", "status", "reload", "read", "hints", "grid", "scroll", "idle", "stats", "serve", "preview"}
	commands := rootCmd.Commands()

	found := make(map[string]bool)
	for _, c := range commands {
		found[c.Name()] = true
	}

	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	if err := rootCmd.PersistentFlags().Set("format", "xml"); err != nil {
		t.Fatal(err)
	}
	defer rootCmd.PersistentFlags().Set("format", "yaml")
	if err := rootCmd.PersistentPreRunE(rootCmd, nil); err == nil {
		t.Error("expected error for unsupported format")
	}
}
