package engine

import (
	"context"
	"image"
	"sort"
	"time"

	"github.com/keyglide/keyglide/internal/platform"
	"go.uber.org/zap"
)

// SnapshotOptions controls a snapshot walk.
type SnapshotOptions struct {
	// Want is the capability a candidate must carry. Zero means any
	// element with non-degenerate geometry qualifies.
	Want Capability

	// Clip excludes elements fully outside this rectangle. The zero
	// rectangle disables clipping.
	Clip image.Rectangle

	// MaxCandidates caps the walk. Zero means unlimited.
	MaxCandidates int

	// ExtraClickableRoles treats these roles as clickable even when the
	// element does not declare the capability (web apps frequently
	// expose buttons as anonymous groups).
	ExtraClickableRoles []string
}

// SnapshotBuilder walks the accessibility tree into an immutable
// candidate list.
type SnapshotBuilder struct {
	tree   platform.TreeReader
	logger *zap.Logger
}

// NewSnapshotBuilder wires a builder to a tree reader.
func NewSnapshotBuilder(tree platform.TreeReader, logger *zap.Logger) *SnapshotBuilder {
	return &SnapshotBuilder{tree: tree, logger: logger}
}

// Build performs a breadth-first walk from the scope root. An
// inaccessible scope (permission revoked, process exited) yields an
// empty snapshot, not an error; the caller ends the session silently.
// The walk stops early when ctx is cancelled, returning ctx.Err().
func (b *SnapshotBuilder) Build(ctx context.Context, scope platform.Scope, opts SnapshotOptions) (*Snapshot, error) {
	snap := &Snapshot{Scope: scope, Taken: time.Now()}

	root, err := b.tree.Root(ctx, scope)
	if err != nil || root == nil {
		b.logger.Debug("snapshot: scope root unavailable", zap.Error(err))
		return snap, nil
	}

	extra := make(map[string]bool, len(opts.ExtraClickableRoles))
	for _, r := range opts.ExtraClickableRoles {
		extra[r] = true
	}

	queue := []platform.Node{root}
	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n := queue[0]
		queue = queue[1:]

		info, err := b.tree.Info(ctx, n)
		if err != nil {
			// Node vanished mid-walk; skip it and its subtree.
			continue
		}

		if cand, ok := b.candidateFrom(info, opts, extra); ok {
			cand.Index = len(snap.Candidates)
			snap.Candidates = append(snap.Candidates, cand)
			if opts.MaxCandidates > 0 && len(snap.Candidates) >= opts.MaxCandidates {
				break
			}
		}

		var children []platform.Node
		if info.Virtualized {
			// Virtualized containers (tables, long lists) expose
			// thousands of rows; walk only the on-screen subset.
			children, err = b.tree.VisibleChildren(ctx, n)
		} else {
			children, err = b.tree.Children(ctx, n)
		}
		if err != nil {
			continue
		}
		queue = append(queue, children...)
	}

	sortCandidates(snap.Candidates)
	b.logger.Debug("snapshot built",
		zap.Int("candidates", len(snap.Candidates)),
		zap.Duration("elapsed", time.Since(snap.Taken)))
	return snap, nil
}

func (b *SnapshotBuilder) candidateFrom(info platform.ElementInfo, opts SnapshotOptions, extra map[string]bool) (Candidate, bool) {
	// Degenerate geometry: zero size or off-screen negative origin.
	if info.Bounds.Dx() <= 0 || info.Bounds.Dy() <= 0 {
		return Candidate{}, false
	}
	if info.Bounds.Max.X <= 0 || info.Bounds.Max.Y <= 0 {
		return Candidate{}, false
	}
	if !opts.Clip.Empty() && !info.Bounds.Overlaps(opts.Clip) {
		return Candidate{}, false
	}
	if !info.Enabled {
		return Candidate{}, false
	}

	var caps Capability
	if info.Clickable || extra[info.Role] {
		caps |= CapClickable
	}
	if info.Scrollable {
		caps |= CapScrollable
	}
	if info.Focusable {
		caps |= CapFocusable
	}
	if opts.Want != 0 && !caps.Has(opts.Want) {
		return Candidate{}, false
	}

	return Candidate{
		Role:        info.Role,
		Title:       info.Title,
		PID:         info.PID,
		Bounds:      info.Bounds,
		Point:       interactionPoint(info.Role, info.Bounds),
		Enabled:     info.Enabled,
		Caps:        caps,
		NativePress: info.NativePress,
	}, true
}

// sortCandidates orders top-to-bottom, then left-to-right, so labels are
// assigned in reading order and nearby elements receive adjacent codes.
// Indices are rewritten to match the final order.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Bounds.Min.Y != cands[j].Bounds.Min.Y {
			return cands[i].Bounds.Min.Y < cands[j].Bounds.Min.Y
		}
		return cands[i].Bounds.Min.X < cands[j].Bounds.Min.X
	})
	for i := range cands {
		cands[i].Index = i
	}
}
