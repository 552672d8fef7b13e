package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyglide/keyglide/internal/config"
	"github.com/keyglide/keyglide/internal/ipc"
	"github.com/keyglide/keyglide/internal/output"
	"github.com/keyglide/keyglide/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "keyglide",
	Short: "Keyboard-driven pointing for the desktop",
	Long:  "Label on-screen elements or partition the screen into a grid, then click, scroll, and focus entirely from the keyboard.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: user config dir)")
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		pretty, _ := rootCmd.PersistentFlags().GetBool("pretty")
		output.PrettyOutput = pretty
		return nil
	}
}

// loadConfig reads the config file named by --config, or the default.
func loadConfig() (config.Config, error) {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	return config.Load(path)
}

// configPath returns the --config flag value, possibly empty.
func configPath() string {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	return path
}

// send delivers one command to the running daemon.
func send(cmd ipc.Command) (ipc.Response, error) {
	cfg, err := loadConfig()
	if err != nil {
		return ipc.Response{}, err
	}
	resp, err := ipc.Dial(cfg.SocketPath(), cmd, 5*time.Second)
	if err != nil {
		return ipc.Response{}, fmt.Errorf("%w (is `keyglide start` running?)", err)
	}
	if !resp.OK {
		return resp, fmt.Errorf("daemon: %s", resp.Error)
	}
	return resp, nil
}
