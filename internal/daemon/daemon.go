// Package daemon runs the resident process: event tap, session engine,
// overlay, control socket, and config reload.
package daemon

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/keyglide/keyglide/internal/config"
	"github.com/keyglide/keyglide/internal/engine"
	"github.com/keyglide/keyglide/internal/hotkeys"
	"github.com/keyglide/keyglide/internal/ipc"
	"github.com/keyglide/keyglide/internal/overlay"
	"github.com/keyglide/keyglide/internal/platform"
	"github.com/keyglide/keyglide/internal/stats"
	"github.com/keyglide/keyglide/internal/version"
)

// Daemon owns the long-running process state.
type Daemon struct {
	cfgPath string
	logger  *zap.Logger

	provider   *platform.Provider
	controller *engine.Controller
	hk         *hotkeys.Controller
	store      *stats.Store

	mu      sync.Mutex
	cfg     config.Config
	started time.Time

	sessionActive atomic.Bool
	frontmost     atomic.Value // platform.AppInfo
	screen        atomic.Value // image.Rectangle
	cancel        context.CancelFunc
}

// New loads configuration and wires the daemon. Accessibility permission
// is checked once at startup; without it the daemon refuses to start.
func New(cfgPath string, logger *zap.Logger) (*Daemon, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}
	if provider.Permissions != nil && !provider.Permissions.AccessibilityGranted() {
		return nil, fmt.Errorf("%w: grant accessibility access to this binary and retry", engine.ErrPermissionDenied)
	}

	d := &Daemon{
		cfgPath:  cfgPath,
		logger:   logger,
		provider: provider,
		cfg:      cfg,
		started:  time.Now(),
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}

	hintStyle, gridStyle := overlay.StylesFromConfig(cfg)
	surface := provider.Overlay
	if surface == nil {
		logger.Warn("no overlay backend; sessions run without visible labels")
		surface = nopOverlay{}
	}
	presenter := overlay.New(surface, hintStyle, gridStyle, logger)

	if path := cfg.StatsPath(); path != "" {
		store, err := stats.Open(path)
		if err != nil {
			logger.Warn("stats disabled", zap.Error(err))
		} else {
			d.store = store
		}
	}

	hooks := engine.Hooks{
		OnResult: d.onResult,
		OnActive: d.onActive,
	}
	d.controller = engine.NewController(
		engine.NewSnapshotBuilder(provider.Tree, logger),
		engine.NewDispatcher(provider.Tree, provider.Input, engineCfg.RestoreCursor, logger),
		presenter,
		provider.Screens,
		engineCfg, hooks, logger)

	if provider.Tap != nil {
		d.hk = hotkeys.New(provider.Tap, logger)
	} else {
		logger.Warn("no event tap backend; sessions are CLI-driven only")
	}
	return d, nil
}

// Run blocks until ctx is cancelled or a stop command arrives.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	if d.hk != nil {
		if err := d.hk.Start(d.activateFromHotkey, d.controller.HandleKey); err != nil {
			return err
		}
		defer d.hk.Stop()
		if err := d.hk.Rebind(d.config().Hotkeys); err != nil {
			return err
		}
		d.hk.SetSuppressed(d.frontmostExcluded)
	}

	srv := ipc.NewServer(d.config().SocketPath(), d.handleCommand, d.logger)
	if err := srv.Listen(); err != nil {
		return err
	}
	go srv.Serve(ctx)

	if err := config.Watch(ctx, d.cfgPath, d.logger, d.applyConfig); err != nil {
		d.logger.Warn("config watch unavailable", zap.Error(err))
	}

	go d.watchScope(ctx)

	d.logger.Info("daemon started",
		zap.String("version", version.Version),
		zap.Int("pid", os.Getpid()),
		zap.String("socket", d.config().SocketPath()))

	d.controller.Run(ctx)

	if d.store != nil {
		d.store.Close()
	}
	d.logger.Info("daemon stopped")
	return nil
}

func (d *Daemon) config() config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

func (d *Daemon) applyConfig(cfg config.Config) {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		d.logger.Warn("config change rejected", zap.Error(err))
		return
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()

	d.controller.SetConfig(engineCfg)
	if d.hk != nil {
		if err := d.hk.Rebind(cfg.Hotkeys); err != nil {
			d.logger.Warn("hotkey rebind failed, previous chords stay active", zap.Error(err))
		}
	}
}

func (d *Daemon) activateFromHotkey(mode engine.Mode) {
	d.controller.Activate(mode, platform.Scope{Kind: platform.ScopeFrontmost}, engine.ActionLeftClick)
}

func (d *Daemon) onResult(r engine.Result) {
	if d.store == nil {
		return
	}
	if err := d.store.Record(r); err != nil {
		d.logger.Debug("stats record failed", zap.Error(err))
	}
}

func (d *Daemon) onActive(active bool) {
	d.sessionActive.Store(active)
	if d.hk != nil {
		d.hk.SetCapturing(active)
	}
}

func (d *Daemon) frontmostExcluded() bool {
	app, ok := d.frontmost.Load().(platform.AppInfo)
	if !ok {
		return false
	}
	return d.config().Excluded(app.ID)
}

// watchScope polls the focused application and the active display. A
// change to either while a session is active cancels it: the snapshot
// and overlay geometry no longer describe what the user sees.
func (d *Daemon) watchScope(ctx context.Context) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.pollScope()
		}
	}
}

// pollScope runs one poll step; split out so it is testable.
func (d *Daemon) pollScope() {
	if d.provider.Apps != nil {
		if app, err := d.provider.Apps.Frontmost(); err == nil {
			prev, _ := d.frontmost.Load().(platform.AppInfo)
			d.frontmost.Store(app)
			if prev.PID != 0 && prev.PID != app.PID && d.sessionActive.Load() {
				d.controller.Cancel("scope-lost")
				return
			}
		}
	}
	cur := d.provider.Screens.Active()
	prev, seen := d.screen.Load().(image.Rectangle)
	d.screen.Store(cur)
	if seen && prev != cur && d.sessionActive.Load() {
		d.controller.Cancel("scope-lost")
	}
}

func (d *Daemon) handleCommand(cmd ipc.Command) ipc.Response {
	switch cmd.Action {
	case ipc.ActionStatus:
		return ipc.Ok(ipc.Status{
			Version:       version.Version,
			PID:           os.Getpid(),
			Accessibility: d.provider.Permissions == nil || d.provider.Permissions.AccessibilityGranted(),
			SessionActive: d.sessionActive.Load(),
			UptimeSeconds: int64(time.Since(d.started).Seconds()),
		})
	case ipc.ActionActivate:
		return d.handleActivate(cmd.Params)
	case ipc.ActionCancel:
		d.controller.Cancel("cancelled")
		return ipc.Ok(nil)
	case ipc.ActionRead:
		return d.handleRead(cmd.Params)
	case ipc.ActionReload:
		cfg, err := config.Load(d.cfgPath)
		if err != nil {
			return ipc.Fail(err.Error())
		}
		d.applyConfig(cfg)
		return ipc.Ok(nil)
	case ipc.ActionStats:
		return d.handleStats(cmd.Params)
	case ipc.ActionStop:
		// Reply first; the socket goes away with the daemon.
		defer d.cancel()
		return ipc.Ok(nil)
	default:
		return ipc.Fail("unknown action: " + cmd.Action)
	}
}

func (d *Daemon) handleActivate(params map[string]string) ipc.Response {
	mode, err := engine.ParseMode(paramOr(params, "mode", "hints"))
	if err != nil {
		return ipc.Fail(err.Error())
	}
	pid := 0
	if raw := params["pid"]; raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &pid); err != nil {
			return ipc.Fail("invalid pid: " + raw)
		}
	}
	scope, err := platform.ParseScope(params["scope"], pid)
	if err != nil {
		return ipc.Fail(err.Error())
	}
	action, err := engine.ParseAction(params["action"])
	if err != nil {
		return ipc.Fail(err.Error())
	}
	d.controller.Activate(mode, scope, action)
	return ipc.Ok(map[string]string{"mode": mode.String()})
}

// handleRead walks a fresh snapshot and returns the candidate list
// without starting a session. The builder is stateless, so this runs
// outside the session loop.
func (d *Daemon) handleRead(params map[string]string) ipc.Response {
	pid := 0
	if raw := params["pid"]; raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &pid); err != nil {
			return ipc.Fail("invalid pid: " + raw)
		}
	}
	scope, err := platform.ParseScope(params["scope"], pid)
	if err != nil {
		return ipc.Fail(err.Error())
	}
	cfg := d.config()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	builder := engine.NewSnapshotBuilder(d.provider.Tree, d.logger)
	snap, err := builder.Build(ctx, scope, engine.SnapshotOptions{
		Want:                engine.CapClickable,
		Clip:                d.provider.Screens.Active(),
		MaxCandidates:       cfg.Hints.MaxCandidates,
		ExtraClickableRoles: cfg.Hints.ExtraClickableRoles,
	})
	if err != nil {
		return ipc.Fail(err.Error())
	}
	elems := make([]ipc.Element, len(snap.Candidates))
	for i, c := range snap.Candidates {
		elems[i] = ipc.Element{
			Index:  c.Index,
			Role:   c.Role,
			Title:  c.Title,
			PID:    c.PID,
			Bounds: [4]int{c.Bounds.Min.X, c.Bounds.Min.Y, c.Bounds.Dx(), c.Bounds.Dy()},
			Point:  [2]int{c.Point.X, c.Point.Y},
		}
	}
	return ipc.Ok(elems)
}

func (d *Daemon) handleStats(params map[string]string) ipc.Response {
	if d.store == nil {
		return ipc.Fail("statistics are disabled")
	}
	window := 7 * 24 * time.Hour
	if raw := params["window"]; raw != "" {
		w, err := time.ParseDuration(raw)
		if err != nil {
			return ipc.Fail("invalid window: " + raw)
		}
		window = w
	}
	sums, err := d.store.Summary(window)
	if err != nil {
		return ipc.Fail(err.Error())
	}
	if sums == nil {
		sums = []stats.ModeSummary{}
	}
	return ipc.Ok(sums)
}

func paramOr(params map[string]string, key, fallback string) string {
	if v := params[key]; v != "" {
		return v
	}
	return fallback
}

// nopOverlay keeps the engine functional on backends without drawing
// support; selections still work through blind label typing.
type nopOverlay struct{}

func (nopOverlay) Show() error                                                { return nil }
func (nopOverlay) Hide() error                                                { return nil }
func (nopOverlay) Clear() error                                               { return nil }
func (nopOverlay) DrawHints([]platform.HintDrawing, platform.HintStyle) error { return nil }
func (nopOverlay) DrawGridCells([]platform.CellDrawing, platform.GridStyle) error {
	return nil
}
