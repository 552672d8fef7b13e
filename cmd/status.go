package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/keyglide/keyglide/internal/ipc"
	"github.com/keyglide/keyglide/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := send(ipc.Command{Action: ipc.ActionStatus})
		if err != nil {
			return err
		}
		var st ipc.Status
		if err := json.Unmarshal(resp.Data, &st); err != nil {
			return err
		}
		return output.Print(st)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := send(ipc.Command{Action: ipc.ActionStop}); err != nil {
			return err
		}
		return output.Print(map[string]string{"daemon": "stopped"})
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the daemon's configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := send(ipc.Command{Action: ipc.ActionReload}); err != nil {
			return err
		}
		return output.Print(map[string]string{"config": "reloaded"})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(reloadCmd)
}
