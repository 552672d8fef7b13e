package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/keyglide/keyglide/internal/ipc"
	"github.com/keyglide/keyglide/internal/output"
	"github.com/keyglide/keyglide/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded sessions",
	Long:  "Per-mode counts, outcomes, and average keystrokes over a trailing window.",
	RunE: func(cmd *cobra.Command, args []string) error {
		window, _ := cmd.Flags().GetString("window")
		resp, err := send(ipc.Command{
			Action: ipc.ActionStats,
			Params: map[string]string{"window": window},
		})
		if err != nil {
			return err
		}
		var sums []stats.ModeSummary
		if err := json.Unmarshal(resp.Data, &sums); err != nil {
			return err
		}
		return output.Print(sums)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("window", "", "Trailing window like 24h or 168h (default 168h)")
}
