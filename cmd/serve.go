package cmd

import (
	"github.com/spf13/cobra"

	"github.com/keyglide/keyglide/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the daemon as an MCP server",
	Long:  "Serve MCP tools (status, activate, cancel, reload, stats) that forward to the running daemon, so agents can drive navigation sessions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		srvCfg := server.Config{
			Transport:  transport,
			Port:       port,
			SocketPath: cfg.SocketPath(),
		}
		return server.New(srvCfg).Serve(srvCfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "MCP transport: stdio or streamable-http")
	serveCmd.Flags().Int("port", 8157, "Port for streamable-http transport")
}
