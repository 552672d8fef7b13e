// Package ipc is the control channel between the CLI and the daemon: a
// unix socket carrying one JSON request and one JSON response per
// connection.
package ipc

import "encoding/json"

// Command is one request from the CLI.
type Command struct {
	Action string            `json:"action"`
	Params map[string]string `json:"params,omitempty"`
}

// Response is the daemon's reply.
type Response struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Known command actions.
const (
	ActionStatus   = "status"
	ActionActivate = "activate"
	ActionCancel   = "cancel"
	ActionRead     = "read"
	ActionReload   = "reload"
	ActionStats    = "stats"
	ActionStop     = "stop"
)

// Element is one snapshot candidate in a read response.
type Element struct {
	Index  int    `json:"index" yaml:"index"`
	Role   string `json:"role" yaml:"role"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	PID    int    `json:"pid" yaml:"pid"`
	Bounds [4]int `json:"bounds" yaml:"bounds,flow"` // x, y, w, h
	Point  [2]int `json:"point" yaml:"point,flow"`
}

// Status is the payload for ActionStatus responses.
type Status struct {
	Version       string `json:"version"`
	PID           int    `json:"pid"`
	Accessibility bool   `json:"accessibility"`
	SessionActive bool   `json:"session_active"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Ok wraps a payload into a successful response.
func Ok(data any) Response {
	raw, err := json.Marshal(data)
	if err != nil {
		return Fail(err.Error())
	}
	return Response{OK: true, Data: raw}
}

// Fail builds an error response.
func Fail(msg string) Response {
	return Response{OK: false, Error: msg}
}
