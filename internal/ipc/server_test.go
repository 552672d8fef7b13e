package ipc

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func startServer(t *testing.T, handler Handler) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.sock")
	srv := NewServer(path, handler, zap.NewNop())
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Serve(ctx)
	return path
}

func TestRoundTrip(t *testing.T) {
	path := startServer(t, func(cmd Command) Response {
		if cmd.Action != ActionActivate {
			return Fail("unexpected action " + cmd.Action)
		}
		if cmd.Params["mode"] != "grid" {
			return Fail("missing mode param")
		}
		return Ok(map[string]string{"session": "started"})
	})

	resp, err := Dial(path, Command{
		Action: ActionActivate,
		Params: map[string]string{"mode": "grid"},
	}, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if !resp.OK {
		t.Fatalf("response not ok: %s", resp.Error)
	}
	var data map[string]string
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data["session"] != "started" {
		t.Errorf("data = %v", data)
	}
}

func TestErrorResponse(t *testing.T) {
	path := startServer(t, func(cmd Command) Response {
		return Fail("no such mode")
	})
	resp, err := Dial(path, Command{Action: ActionActivate}, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if resp.OK || resp.Error != "no such mode" {
		t.Errorf("resp = %+v, want failure", resp)
	}
}

func TestDialWithoutDaemon(t *testing.T) {
	_, err := Dial(filepath.Join(t.TempDir(), "absent.sock"), Command{Action: ActionStatus}, 100*time.Millisecond)
	if err == nil {
		t.Fatal("Dial expected error for missing socket")
	}
}

func TestListenRejectsLiveDaemon(t *testing.T) {
	path := startServer(t, func(Command) Response { return Ok(Status{PID: 1}) })

	second := NewServer(path, func(Command) Response { return Fail("") }, zap.NewNop())
	if err := second.Listen(); err == nil {
		t.Fatal("Listen expected error when a daemon already answers")
	}
}
