// Package server exposes the daemon's control surface as MCP tools so
// agents can drive navigation sessions programmatically.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/keyglide/keyglide/internal/ipc"
	"github.com/keyglide/keyglide/internal/version"
)

// Config holds MCP server configuration.
type Config struct {
	Transport  string
	Port       int
	SocketPath string
}

// MCPServer bridges MCP tool calls to the daemon over the control socket.
type MCPServer struct {
	socketPath string
	mcp        *mcpserver.MCPServer
}

// New creates and configures an MCP server with all control tools.
func New(cfg Config) *MCPServer {
	s := &MCPServer{socketPath: cfg.SocketPath}
	s.mcp = mcpserver.NewMCPServer(
		"keyglide",
		version.Version,
	)
	s.registerTools()
	return s
}

// Serve starts the MCP server with the configured transport.
func (s *MCPServer) Serve(cfg Config) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *MCPServer) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("Report daemon status: version, accessibility permission, active session"),
		),
		s.handleCommand(ipc.ActionStatus, nil),
	)

	s.mcp.AddTool(
		mcp.NewTool("activate",
			mcp.WithDescription("Start a navigation session: label clickable elements (hints), partition the screen (grid), or label scroll areas (scroll)"),
			mcp.WithString("mode", mcp.Required(), mcp.Description("Session mode: hints, hints-action, grid, scroll")),
			mcp.WithString("scope", mcp.Description("Walk scope: frontmost (default) or system")),
			mcp.WithString("action", mcp.Description("Action on selection: left-click (default), right-click, middle-click, double-click, focus, move")),
			mcp.WithNumber("pid", mcp.Description("Scope to a specific process ID")),
		),
		s.handleActivate,
	)

	s.mcp.AddTool(
		mcp.NewTool("read",
			mcp.WithDescription("Read the clickable elements of the focused window: roles, titles, bounds, interaction points"),
			mcp.WithString("scope", mcp.Description("Walk scope: frontmost (default) or system")),
			mcp.WithNumber("pid", mcp.Description("Scope to a specific process ID")),
		),
		s.handleRead,
	)

	s.mcp.AddTool(
		mcp.NewTool("cancel",
			mcp.WithDescription("Cancel the active navigation session"),
		),
		s.handleCommand(ipc.ActionCancel, nil),
	)

	s.mcp.AddTool(
		mcp.NewTool("reload",
			mcp.WithDescription("Reload the daemon's configuration file"),
		),
		s.handleCommand(ipc.ActionReload, nil),
	)

	s.mcp.AddTool(
		mcp.NewTool("stats",
			mcp.WithDescription("Summarize recorded sessions per mode: counts, outcomes, average keystrokes"),
			mcp.WithString("window", mcp.Description("Trailing window like 24h or 168h (default 168h)")),
		),
		s.handleStats,
	)
}

func (s *MCPServer) handleCommand(action string, params map[string]string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.send(ipc.Command{Action: action, Params: params})
	}
}

func (s *MCPServer) handleActivate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	params := map[string]string{
		"mode":   stringParam(args, "mode", "hints"),
		"scope":  stringParam(args, "scope", ""),
		"action": stringParam(args, "action", ""),
	}
	if pid := intParam(args, "pid", 0); pid != 0 {
		params["pid"] = fmt.Sprintf("%d", pid)
	}
	return s.send(ipc.Command{Action: ipc.ActionActivate, Params: params})
}

func (s *MCPServer) handleRead(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	params := map[string]string{"scope": stringParam(args, "scope", "")}
	if pid := intParam(args, "pid", 0); pid != 0 {
		params["pid"] = fmt.Sprintf("%d", pid)
	}
	return s.send(ipc.Command{Action: ipc.ActionRead, Params: params})
}

func (s *MCPServer) handleStats(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.send(ipc.Command{
		Action: ipc.ActionStats,
		Params: map[string]string{"window": stringParam(request.GetArguments(), "window", "")},
	})
}

func stringParam(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	if v, ok := params[key].(float64); ok {
		return int(v)
	}
	return fallback
}

func (s *MCPServer) send(cmd ipc.Command) (*mcp.CallToolResult, error) {
	resp, err := ipc.Dial(s.socketPath, cmd, 5*time.Second)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("daemon not reachable: %v (is `keyglide start` running?)", err)), nil
	}
	if !resp.OK {
		return mcp.NewToolResultError(resp.Error), nil
	}
	if len(resp.Data) == 0 {
		return mcp.NewToolResultText("ok"), nil
	}
	return mcp.NewToolResultText(string(resp.Data)), nil
}
