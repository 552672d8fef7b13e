package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keyglide/keyglide/internal/daemon"
	"github.com/keyglide/keyglide/internal/logging"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the daemon in the foreground",
	Long:  "Start the resident process: install hotkeys, open the control socket, and wait for activations. Run it from your session startup or a service manager.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		if err := logging.Init(logging.Options{
			Level:   level,
			File:    cfg.LogFile(),
			Console: verbose,
		}); err != nil {
			return err
		}
		defer logging.Sync()

		d, err := daemon.New(configPath(), logging.L())
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return d.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().Bool("verbose", false, "Log debug output to stderr")
}
