package engine

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"time"

	"github.com/keyglide/keyglide/internal/platform"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Mode is a session's navigation mode.
type Mode int

const (
	ModeHints Mode = iota
	ModeHintActions
	ModeGrid
	ModeScroll
)

func (m Mode) String() string {
	switch m {
	case ModeHints:
		return "hints"
	case ModeHintActions:
		return "hints-action"
	case ModeGrid:
		return "grid"
	case ModeScroll:
		return "scroll"
	default:
		return "unknown"
	}
}

// ParseMode converts a CLI/IPC string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "hints":
		return ModeHints, nil
	case "hints-action", "hints_action":
		return ModeHintActions, nil
	case "grid":
		return ModeGrid, nil
	case "scroll":
		return ModeScroll, nil
	default:
		return ModeHints, errors.New("unknown mode: " + s)
	}
}

// Presenter is the engine's view of the overlay layer.
type Presenter interface {
	// PresentHints renders hint labels with the current query applied.
	PresentHints(cands []Candidate, labels []string, query string, live []int) error
	// PresentGrid renders a grid level with the current query applied.
	PresentGrid(grid *Grid, query string, live []int) error
	// PresentActionMenu renders the one-keystroke action chooser beside
	// a resolved target.
	PresentActionMenu(at image.Point) error
	// End clears and hides the overlay surface.
	End()
}

// Result summarizes one completed session for logging and statistics.
type Result struct {
	ID         string
	Mode       Mode
	Outcome    string // selected | cancelled | empty | stale | timeout | superseded | scope-lost
	Candidates int
	Keystrokes int
	Duration   time.Duration
}

// Hooks let the daemon observe the session lifecycle.
type Hooks struct {
	// OnResult fires after every session ends, whatever the outcome.
	OnResult func(Result)
	// OnActive fires when a session starts or ends; the daemon toggles
	// event-tap capture with it.
	OnActive func(active bool)
}

// Config carries the engine policy knobs, populated from user config.
type Config struct {
	HintAlphabet        Alphabet
	GridAlphabet        Alphabet
	GridRows            int
	GridCols            int
	AutoSelectSingle    bool // auto-select a sole hint candidate without a keystroke
	HideUnmatched       bool
	MaxCandidates       int
	ExtraClickableRoles []string
	SessionTimeout      time.Duration
	RestoreCursor       bool
	ScrollStep          int
	ScrollStepHalf      int
	ScrollStepFull      int
}

// Controller owns the full lifecycle of hint/grid/scroll sessions:
// activation, snapshot, labeling, the keystroke loop, dispatch, and
// teardown. All events funnel through one goroutine, so keystrokes are
// processed strictly in arrival order and a new activation deterministically
// cancels the current session before starting the next.
type Controller struct {
	builder    *SnapshotBuilder
	dispatcher *Dispatcher
	presenter  Presenter
	screens    platform.Screens
	cfg        Config
	hooks      Hooks
	logger     *zap.Logger

	events  chan event
	entropy *rand.Rand

	// Owned by the run loop.
	sess *session
	gen  uint64
}

type event interface{}

type activateEvent struct {
	mode   Mode
	scope  platform.Scope
	action Action
}

type keyEvent struct{ key string }

type cancelEvent struct{ reason string }

type snapshotEvent struct {
	gen  uint64
	snap *Snapshot
}

type timeoutEvent struct{ gen uint64 }

type configEvent struct{ cfg Config }

type session struct {
	id         string
	mode       Mode
	scope      platform.Scope
	action     Action
	snapshot   *Snapshot
	labels     []string
	matcher    *Matcher
	grid       *Grid
	gridStack  []*Grid // parents, for backtracking a level
	pending    *Target // resolved target awaiting an action-menu key
	scrolling  *Target // active scroll area in scroll mode
	started    time.Time
	keystrokes int
	walkCancel context.CancelFunc
	timer      *time.Timer
	shown      bool
}

// NewController wires the engine together.
func NewController(builder *SnapshotBuilder, dispatcher *Dispatcher, presenter Presenter, screens platform.Screens, cfg Config, hooks Hooks, logger *zap.Logger) *Controller {
	return &Controller{
		builder:    builder,
		dispatcher: dispatcher,
		presenter:  presenter,
		screens:    screens,
		cfg:        cfg,
		hooks:      hooks,
		logger:     logger,
		events:     make(chan event, 64),
		entropy:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Activate requests a new session. An active session is cancelled first;
// sessions never nest.
func (c *Controller) Activate(mode Mode, scope platform.Scope, action Action) {
	c.events <- activateEvent{mode: mode, scope: scope, action: action}
}

// HandleKey feeds one raw key-down from the event tap.
func (c *Controller) HandleKey(key string) {
	c.events <- keyEvent{key: key}
}

// Cancel ends the active session, if any. Used for escape-equivalent
// external causes: scope loss, screen changes, daemon shutdown.
func (c *Controller) Cancel(reason string) {
	c.events <- cancelEvent{reason: reason}
}

// SetConfig swaps the policy knobs. Applies from the next session; an
// active session keeps the configuration it started with.
func (c *Controller) SetConfig(cfg Config) {
	c.events <- configEvent{cfg: cfg}
}

// Run processes events until ctx is cancelled. All session state lives
// on this goroutine.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.endSession("cancelled")
			return
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

func (c *Controller) handle(ev event) {
	switch ev := ev.(type) {
	case activateEvent:
		c.endSession("superseded")
		c.startSession(ev)
	case keyEvent:
		c.handleKey(ev.key)
	case cancelEvent:
		c.endSession(ev.reason)
	case snapshotEvent:
		if c.sess == nil || ev.gen != c.gen {
			return // stale walk result from a superseded session
		}
		c.snapshotReady(ev.snap)
	case timeoutEvent:
		if c.sess == nil || ev.gen != c.gen {
			return
		}
		c.endSession("timeout")
	case configEvent:
		c.cfg = ev.cfg
	}
}

func (c *Controller) startSession(ev activateEvent) {
	c.gen++
	gen := c.gen
	sess := &session{
		id:      ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy).String(),
		mode:    ev.mode,
		scope:   ev.scope,
		action:  ev.action,
		started: time.Now(),
	}
	c.sess = sess
	if c.hooks.OnActive != nil {
		c.hooks.OnActive(true)
	}
	if c.cfg.SessionTimeout > 0 {
		sess.timer = time.AfterFunc(c.cfg.SessionTimeout, func() {
			c.events <- timeoutEvent{gen: gen}
		})
	}
	c.logger.Debug("session started",
		zap.String("id", sess.id),
		zap.Stringer("mode", sess.mode))

	if ev.mode == ModeGrid {
		// Grid mode ignores the accessibility tree entirely; partition
		// the active display and go straight to the keystroke loop.
		grid, err := PartitionGrid(c.screens.Active(), c.cfg.GridRows, c.cfg.GridCols, c.cfg.GridAlphabet)
		if err != nil {
			c.logger.Warn("grid partition failed", zap.Error(err))
			c.endSession("empty")
			return
		}
		sess.grid = grid
		sess.matcher = NewMatcher(grid.Labels())
		c.presentGrid()
		return
	}

	// The walk can be slow relative to UI responsiveness; run it off the
	// event loop and hand the result back as an event.
	walkCtx, cancel := context.WithCancel(context.Background())
	sess.walkCancel = cancel
	want := CapClickable
	if ev.mode == ModeScroll {
		want = CapScrollable
	}
	opts := SnapshotOptions{
		Want:                want,
		Clip:                c.screens.Active(),
		MaxCandidates:       c.cfg.MaxCandidates,
		ExtraClickableRoles: c.cfg.ExtraClickableRoles,
	}
	go func() {
		snap, err := c.builder.Build(walkCtx, ev.scope, opts)
		if err != nil {
			return // cancelled mid-walk
		}
		c.events <- snapshotEvent{gen: gen, snap: snap}
	}()
}

func (c *Controller) snapshotReady(snap *Snapshot) {
	sess := c.sess
	sess.snapshot = snap
	if snap.Empty() {
		// Nothing to show: end silently, overlay never appears.
		c.endSession("empty")
		return
	}
	sess.labels = c.cfg.HintAlphabet.AssignLabels(len(snap.Candidates))
	sess.matcher = NewMatcher(sess.labels)

	if len(snap.Candidates) == 1 && c.cfg.AutoSelectSingle && sess.mode != ModeScroll {
		c.resolveCandidate(0)
		return
	}
	c.presentHints()
}

func (c *Controller) handleKey(key string) {
	sess := c.sess
	if sess == nil {
		return
	}
	if key == "escape" {
		c.endSession("cancelled")
		return
	}
	sess.keystrokes++

	switch {
	case sess.pending != nil:
		c.handleActionMenuKey(key)
	case sess.scrolling != nil:
		c.handleScrollKey(key)
	case sess.matcher == nil:
		// Snapshot still building; drop keys other than escape.
	case sess.mode == ModeGrid:
		c.handleGridKey(key)
	default:
		c.handleHintKey(key)
	}
}

func (c *Controller) handleHintKey(key string) {
	sess := c.sess
	if key == "backspace" {
		sess.matcher.Backspace()
		c.presentHints()
		return
	}
	if len(key) != 1 {
		return
	}
	switch sess.matcher.Type(key) {
	case StateExhausted:
		// Dead input: drop the keystroke, stay in the session.
		c.logger.Debug("input exhausted", zap.String("query", sess.matcher.Query()+key))
	case StateSelected:
		c.resolveCandidate(sess.matcher.Selected())
	default:
		c.presentHints()
	}
}

func (c *Controller) handleGridKey(key string) {
	sess := c.sess
	switch key {
	case "backspace":
		if sess.matcher.Query() == "" && len(sess.gridStack) > 0 {
			// Backtrack one partition level.
			sess.grid = sess.gridStack[len(sess.gridStack)-1]
			sess.gridStack = sess.gridStack[:len(sess.gridStack)-1]
			sess.matcher = NewMatcher(sess.grid.Labels())
		} else {
			sess.matcher.Backspace()
		}
		c.presentGrid()
		return
	case "enter", "space":
		// Confirm the finest unambiguous point without finishing a label.
		if pt, ok := c.gridConfirmPoint(); ok {
			c.dispatchAt(Target{Point: pt}, sess.action)
		}
		return
	}
	if len(key) != 1 {
		return
	}
	switch sess.matcher.Type(key) {
	case StateExhausted:
		c.logger.Debug("grid input exhausted", zap.String("key", key))
	case StateSelected:
		c.resolveGridCell(sess.matcher.Selected())
	default:
		c.presentGrid()
	}
}

// gridConfirmPoint picks the point an explicit confirm key targets: the
// sole live cell's center when the query pins one down, otherwise the
// center of the whole current level.
func (c *Controller) gridConfirmPoint() (image.Point, bool) {
	sess := c.sess
	live := sess.matcher.Live()
	if len(live) == 1 {
		return sess.grid.Cells[live[0]].Center(), true
	}
	if sess.matcher.Query() == "" {
		b := sess.grid.Bounds
		return image.Point{X: b.Min.X + b.Dx()/2, Y: b.Min.Y + b.Dy()/2}, true
	}
	return image.Point{}, false
}

func (c *Controller) resolveGridCell(idx int) {
	sess := c.sess
	sub, err := sess.grid.Subdivide(idx, c.cfg.GridRows, c.cfg.GridCols, c.cfg.GridAlphabet)
	if err != nil {
		if errors.Is(err, ErrCellTooSmall) {
			// Recursion floor: the keystroke that completed the label is
			// the final selection within the finest cell.
			c.dispatchAt(Target{Point: sess.grid.Cells[idx].Center()}, sess.action)
			return
		}
		c.logger.Warn("subgrid failed", zap.Error(err))
		c.endSession("cancelled")
		return
	}
	// Tear down the current label set and recurse into the chosen cell
	// as a fresh, smaller-scope labeling session.
	sess.gridStack = append(sess.gridStack, sess.grid)
	sess.grid = sub
	sess.matcher = NewMatcher(sub.Labels())
	c.presentGrid()
}

func (c *Controller) resolveCandidate(idx int) {
	sess := c.sess
	cand := sess.snapshot.Candidates[idx]
	target := Target{Point: cand.Point, PID: cand.PID, NativePress: cand.NativePress}

	switch sess.mode {
	case ModeScroll:
		// Selecting a scroll area keeps the session alive for scrolling.
		sess.scrolling = &target
		sess.matcher = nil
		c.presenter.End()
		sess.shown = false
		return
	case ModeHintActions:
		sess.pending = &target
		if err := c.presenter.PresentActionMenu(cand.Point); err != nil {
			c.logger.Warn("action menu render failed", zap.Error(err))
		}
		sess.shown = true
		return
	default:
		c.dispatchAt(target, sess.action)
	}
}

// ActionMenuItems maps single keys to actions for hint-with-actions
// sessions. Exposed so the presenter can label the menu.
var ActionMenuItems = []struct {
	Key    string
	Label  string
	Action Action
}{
	{"l", "left", ActionLeftClick},
	{"r", "right", ActionRightClick},
	{"m", "middle", ActionMiddleClick},
	{"d", "double", ActionDoubleClick},
	{"f", "focus", ActionFocus},
	{"g", "go to", ActionMoveMouse},
}

func (c *Controller) handleActionMenuKey(key string) {
	for _, item := range ActionMenuItems {
		if item.Key == key {
			c.dispatchAt(*c.sess.pending, item.Action)
			return
		}
	}
	// Unknown menu key: ignore, menu stays up.
}

func (c *Controller) handleScrollKey(key string) {
	sess := c.sess
	dx, dy, ok := scrollDelta(key, c.cfg.ScrollStep, c.cfg.ScrollStepHalf, c.cfg.ScrollStepFull)
	if !ok {
		return
	}
	target := *sess.scrolling
	target.ScrollDelta = image.Point{X: dx, Y: dy}
	if err := c.dispatcher.Dispatch(context.Background(), target, ActionScroll); err != nil {
		if errors.Is(err, ErrStaleTarget) {
			c.endSession("stale")
			return
		}
		c.logger.Debug("scroll failed", zap.Error(err))
	}
}

func (c *Controller) dispatchAt(target Target, action Action) {
	err := c.dispatcher.Dispatch(context.Background(), target, action)
	switch {
	case err == nil:
		c.endSession("selected")
	case errors.Is(err, ErrStaleTarget):
		// Expected and non-actionable: the UI simply closes.
		c.logger.Debug("stale target", zap.Int("pid", target.PID))
		c.endSession("stale")
	default:
		c.logger.Warn("dispatch failed", zap.Error(err))
		c.endSession("cancelled")
	}
}

func (c *Controller) presentHints() {
	sess := c.sess
	if err := c.presenter.PresentHints(sess.snapshot.Candidates, sess.labels, sess.matcher.Query(), sess.matcher.Live()); err != nil {
		c.logger.Warn("hint render failed", zap.Error(err))
	}
	sess.shown = true
}

func (c *Controller) presentGrid() {
	sess := c.sess
	if err := c.presenter.PresentGrid(sess.grid, sess.matcher.Query(), sess.matcher.Live()); err != nil {
		c.logger.Warn("grid render failed", zap.Error(err))
	}
	sess.shown = true
}

// endSession tears the session down within the current loop turn: the
// walk is cancelled, the timer stopped, the overlay cleared and hidden.
func (c *Controller) endSession(outcome string) {
	sess := c.sess
	if sess == nil {
		return
	}
	c.sess = nil
	if sess.walkCancel != nil {
		sess.walkCancel()
	}
	if sess.timer != nil {
		sess.timer.Stop()
	}
	if sess.shown || sess.scrolling != nil {
		c.presenter.End()
	}
	if c.hooks.OnActive != nil {
		c.hooks.OnActive(false)
	}
	result := Result{
		ID:         sess.id,
		Mode:       sess.mode,
		Outcome:    outcome,
		Keystrokes: sess.keystrokes,
		Duration:   time.Since(sess.started),
	}
	if sess.snapshot != nil {
		result.Candidates = len(sess.snapshot.Candidates)
	} else if sess.grid != nil {
		result.Candidates = len(sess.grid.Cells)
	}
	if c.hooks.OnResult != nil {
		c.hooks.OnResult(result)
	}
	c.logger.Info("session ended",
		zap.String("id", sess.id),
		zap.Stringer("mode", sess.mode),
		zap.String("outcome", outcome),
		zap.Int("keystrokes", sess.keystrokes),
		zap.Duration("duration", result.Duration))
}
