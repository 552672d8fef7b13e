package daemon

import (
	"context"
	"encoding/json"
	"image"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/keyglide/keyglide/internal/config"
	"github.com/keyglide/keyglide/internal/engine"
	"github.com/keyglide/keyglide/internal/ipc"
	"github.com/keyglide/keyglide/internal/platform"
)

type stubTree struct{}

func (stubTree) Root(ctx context.Context, scope platform.Scope) (platform.Node, error) {
	return nil, nil
}
func (stubTree) Children(ctx context.Context, n platform.Node) ([]platform.Node, error) {
	return nil, nil
}
func (stubTree) VisibleChildren(ctx context.Context, n platform.Node) ([]platform.Node, error) {
	return nil, nil
}
func (stubTree) Info(ctx context.Context, n platform.Node) (platform.ElementInfo, error) {
	return platform.ElementInfo{}, nil
}
func (stubTree) ElementAt(ctx context.Context, pt image.Point) (platform.Node, error) {
	return nil, nil
}
func (stubTree) Press(ctx context.Context, n platform.Node) error { return nil }
func (stubTree) Focus(ctx context.Context, n platform.Node) error { return nil }
func (stubTree) Accessible(pid int) bool                          { return true }

type stubInput struct{}

func (stubInput) Click(pt image.Point, b platform.MouseButton, count int) error { return nil }
func (stubInput) MoveMouse(pt image.Point) error                                { return nil }
func (stubInput) Scroll(pt image.Point, dx, dy int) error                       { return nil }
func (stubInput) CursorPosition() (image.Point, error)                          { return image.Point{}, nil }

type stubScreens struct{}

func (stubScreens) Main() image.Rectangle   { return image.Rect(0, 0, 800, 600) }
func (stubScreens) Active() image.Rectangle { return image.Rect(0, 0, 800, 600) }

func testDaemon(t *testing.T) *Daemon {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.Default()
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		t.Fatal(err)
	}
	d := &Daemon{
		logger:   logger,
		cfg:      cfg,
		started:  time.Now(),
		provider: &platform.Provider{Tree: stubTree{}, Input: stubInput{}, Screens: stubScreens{}},
	}
	d.controller = engine.NewController(
		engine.NewSnapshotBuilder(stubTree{}, logger),
		engine.NewDispatcher(stubTree{}, stubInput{}, false, logger),
		nil, stubScreens{}, engineCfg, engine.Hooks{}, logger)
	d.cancel = func() {}
	return d
}

func TestHandleStatus(t *testing.T) {
	d := testDaemon(t)
	resp := d.handleCommand(ipc.Command{Action: ipc.ActionStatus})
	if !resp.OK {
		t.Fatalf("status failed: %s", resp.Error)
	}
	var st ipc.Status
	if err := json.Unmarshal(resp.Data, &st); err != nil {
		t.Fatal(err)
	}
	if !st.Accessibility || st.PID == 0 {
		t.Errorf("status = %+v", st)
	}
}

func TestHandleActivateValidation(t *testing.T) {
	d := testDaemon(t)
	tests := []struct {
		name   string
		params map[string]string
		wantOK bool
	}{
		{name: "default mode", params: nil, wantOK: true},
		{name: "grid", params: map[string]string{"mode": "grid"}, wantOK: true},
		{name: "bad mode", params: map[string]string{"mode": "warp"}, wantOK: false},
		{name: "bad scope", params: map[string]string{"scope": "everywhere"}, wantOK: false},
		{name: "bad action", params: map[string]string{"action": "teleport"}, wantOK: false},
		{name: "bad pid", params: map[string]string{"pid": "abc"}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := d.handleCommand(ipc.Command{Action: ipc.ActionActivate, Params: tt.params})
			if resp.OK != tt.wantOK {
				t.Errorf("OK = %v (%s), want %v", resp.OK, resp.Error, tt.wantOK)
			}
		})
	}
}

func TestHandleReadEmptyTree(t *testing.T) {
	d := testDaemon(t)
	resp := d.handleCommand(ipc.Command{Action: ipc.ActionRead})
	if !resp.OK {
		t.Fatalf("read failed: %s", resp.Error)
	}
	var elems []ipc.Element
	if err := json.Unmarshal(resp.Data, &elems); err != nil {
		t.Fatal(err)
	}
	if len(elems) != 0 {
		t.Errorf("elements = %+v, want none from empty tree", elems)
	}
}

func TestHandleUnknownAction(t *testing.T) {
	d := testDaemon(t)
	resp := d.handleCommand(ipc.Command{Action: "reboot"})
	if resp.OK {
		t.Error("unknown action accepted")
	}
}

type swapScreens struct {
	mu   sync.Mutex
	rect image.Rectangle
}

func (s *swapScreens) set(r image.Rectangle) {
	s.mu.Lock()
	s.rect = r
	s.mu.Unlock()
}

func (s *swapScreens) Main() image.Rectangle { return s.Active() }

func (s *swapScreens) Active() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rect
}

type quietPresenter struct{}

func (quietPresenter) PresentHints([]engine.Candidate, []string, string, []int) error { return nil }
func (quietPresenter) PresentGrid(*engine.Grid, string, []int) error                  { return nil }
func (quietPresenter) PresentActionMenu(image.Point) error                            { return nil }
func (quietPresenter) End()                                                           {}

func TestScreenChangeCancelsSession(t *testing.T) {
	logger := zap.NewNop()
	cfg := config.Default()
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		t.Fatal(err)
	}
	screens := &swapScreens{rect: image.Rect(0, 0, 800, 600)}
	results := make(chan engine.Result, 1)
	d := &Daemon{
		logger:   logger,
		cfg:      cfg,
		started:  time.Now(),
		provider: &platform.Provider{Tree: stubTree{}, Input: stubInput{}, Screens: screens},
	}
	hooks := engine.Hooks{
		OnResult: func(r engine.Result) { results <- r },
		OnActive: d.onActive,
	}
	d.controller = engine.NewController(
		engine.NewSnapshotBuilder(stubTree{}, logger),
		engine.NewDispatcher(stubTree{}, stubInput{}, false, logger),
		quietPresenter{}, screens, engineCfg, hooks, logger)
	d.cancel = func() {}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.controller.Run(ctx)

	d.controller.Activate(engine.ModeGrid, platform.Scope{Kind: platform.ScopeFrontmost}, engine.ActionLeftClick)
	deadline := time.Now().Add(2 * time.Second)
	for !d.sessionActive.Load() {
		if time.Now().After(deadline) {
			t.Fatal("grid session never became active")
		}
		time.Sleep(5 * time.Millisecond)
	}

	d.pollScope() // records the current geometry
	screens.set(image.Rect(0, 0, 1024, 768))
	d.pollScope()

	select {
	case r := <-results:
		if r.Outcome != "scope-lost" {
			t.Fatalf("outcome = %q, want scope-lost after display change", r.Outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session survived a display change")
	}
}

func TestHandleStatsDisabled(t *testing.T) {
	d := testDaemon(t)
	resp := d.handleCommand(ipc.Command{Action: ipc.ActionStats})
	if resp.OK {
		t.Error("stats succeeded without a store")
	}
}
