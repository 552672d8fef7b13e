package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyglide/keyglide/internal/ipc"
	"github.com/keyglide/keyglide/internal/output"
)

// activate asks the daemon to start a session in the given mode.
func activate(cmd *cobra.Command, mode string) error {
	scope, _ := cmd.Flags().GetString("scope")
	action, _ := cmd.Flags().GetString("action")
	pid, _ := cmd.Flags().GetInt("pid")

	params := map[string]string{"mode": mode, "scope": scope, "action": action}
	if pid != 0 {
		params["pid"] = fmt.Sprintf("%d", pid)
	}
	if _, err := send(ipc.Command{Action: ipc.ActionActivate, Params: params}); err != nil {
		return err
	}
	return output.Print(map[string]string{"session": mode})
}

func scopeFlags(cmd *cobra.Command) {
	cmd.Flags().String("scope", "", "Walk scope: frontmost (default) or system")
	cmd.Flags().Int("pid", 0, "Scope to a specific process ID")
}

var hintsCmd = &cobra.Command{
	Use:   "hints",
	Short: "Label clickable elements for keyboard selection",
	Long:  "Walk the focused window's accessibility tree and label every clickable element. Typing a full label clicks it; escape cancels.",
	RunE: func(cmd *cobra.Command, args []string) error {
		withActions, _ := cmd.Flags().GetBool("actions")
		mode := "hints"
		if withActions {
			mode = "hints-action"
		}
		return activate(cmd, mode)
	},
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Partition the screen into labeled cells",
	Long:  "Overlay a labeled grid on the active display. Typing a cell's label zooms into it; the finest cell is clicked. Works on windows with no accessibility support.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return activate(cmd, "grid")
	},
}

var scrollCmd = &cobra.Command{
	Use:   "scroll",
	Short: "Label scroll areas, then scroll with vi-style keys",
	Long:  "Label the focused window's scroll areas. After picking one: j/k scroll by line, h/l horizontally, d/u by half page, g/G by full page, escape ends.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return activate(cmd, "scroll")
	},
}

var idleCmd = &cobra.Command{
	Use:   "idle",
	Short: "Cancel the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := send(ipc.Command{Action: ipc.ActionCancel}); err != nil {
			return err
		}
		return output.Print(map[string]string{"session": "cancelled"})
	},
}

func init() {
	rootCmd.AddCommand(hintsCmd)
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(scrollCmd)
	rootCmd.AddCommand(idleCmd)

	scopeFlags(hintsCmd)
	hintsCmd.Flags().String("action", "", "Action on selection: left-click (default), right-click, middle-click, double-click, focus, move")
	hintsCmd.Flags().Bool("actions", false, "Ask for the action with one extra keystroke after selecting")

	gridCmd.Flags().String("action", "", "Action on selection: left-click (default), right-click, middle-click, double-click, move")

	scopeFlags(scrollCmd)
}
