package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyglide/keyglide/internal/ipc"
	"github.com/keyglide/keyglide/internal/output"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "List the clickable elements of the focused window",
	Long:  "Walk the accessibility tree without starting a session and print each clickable element's role, title, bounds, and interaction point.",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, _ := cmd.Flags().GetString("scope")
		pid, _ := cmd.Flags().GetInt("pid")

		params := map[string]string{"scope": scope}
		if pid != 0 {
			params["pid"] = fmt.Sprintf("%d", pid)
		}
		resp, err := send(ipc.Command{Action: ipc.ActionRead, Params: params})
		if err != nil {
			return err
		}
		var elems []ipc.Element
		if err := json.Unmarshal(resp.Data, &elems); err != nil {
			return err
		}
		return output.Print(elems)
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	scopeFlags(readCmd)
}
