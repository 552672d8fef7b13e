package engine

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/keyglide/keyglide/internal/platform"
	"go.uber.org/zap"
)

// fakeNode is a tree fixture for walk tests.
type fakeNode struct {
	info     platform.ElementInfo
	children []*fakeNode
	vanished bool // Info fails, simulating a node removed mid-walk
}

type fakeTree struct {
	root         *fakeNode
	rootErr      error
	inaccessible map[int]bool
	pressErr     error
	pressed      []image.Point
	focused      []image.Point
	elementAt    map[image.Point]*fakeNode
}

func (t *fakeTree) Root(ctx context.Context, scope platform.Scope) (platform.Node, error) {
	if t.rootErr != nil {
		return nil, t.rootErr
	}
	if t.root == nil {
		return nil, nil
	}
	return t.root, nil
}

func (t *fakeTree) Children(ctx context.Context, n platform.Node) ([]platform.Node, error) {
	fn := n.(*fakeNode)
	out := make([]platform.Node, len(fn.children))
	for i, c := range fn.children {
		out[i] = c
	}
	return out, nil
}

func (t *fakeTree) VisibleChildren(ctx context.Context, n platform.Node) ([]platform.Node, error) {
	fn := n.(*fakeNode)
	// Fixture convention: only the first child of a virtualized
	// container is on screen.
	if len(fn.children) == 0 {
		return nil, nil
	}
	return []platform.Node{fn.children[0]}, nil
}

func (t *fakeTree) Info(ctx context.Context, n platform.Node) (platform.ElementInfo, error) {
	fn := n.(*fakeNode)
	if fn.vanished {
		return platform.ElementInfo{}, errors.New("element vanished")
	}
	return fn.info, nil
}

func (t *fakeTree) ElementAt(ctx context.Context, pt image.Point) (platform.Node, error) {
	if n, ok := t.elementAt[pt]; ok {
		return n, nil
	}
	return nil, errors.New("no element at point")
}

func (t *fakeTree) Press(ctx context.Context, n platform.Node) error {
	if t.pressErr != nil {
		return t.pressErr
	}
	fn := n.(*fakeNode)
	t.pressed = append(t.pressed, fn.info.Bounds.Min)
	return nil
}

func (t *fakeTree) Focus(ctx context.Context, n platform.Node) error {
	fn := n.(*fakeNode)
	t.focused = append(t.focused, fn.info.Bounds.Min)
	return nil
}

func (t *fakeTree) Accessible(pid int) bool {
	return !t.inaccessible[pid]
}

func clickable(role string, x0, y0, x1, y1 int) platform.ElementInfo {
	return platform.ElementInfo{
		Role:      role,
		PID:       100,
		Bounds:    image.Rect(x0, y0, x1, y1),
		Enabled:   true,
		Clickable: true,
	}
}

func TestSnapshotBuildFiltersAndSorts(t *testing.T) {
	tree := &fakeTree{
		root: &fakeNode{
			info: platform.ElementInfo{Role: "window", PID: 100, Bounds: image.Rect(0, 0, 800, 600), Enabled: true},
			children: []*fakeNode{
				{info: clickable("button", 300, 200, 400, 230)},
				{info: clickable("button", 50, 10, 150, 40)},
				// Same row as the first, further left: sorts before it.
				{info: clickable("button", 100, 200, 200, 230)},
				// Disabled: excluded.
				{info: platform.ElementInfo{Role: "button", PID: 100, Bounds: image.Rect(0, 0, 50, 20), Clickable: true}},
				// Zero-size: excluded.
				{info: clickable("button", 500, 500, 500, 500)},
				// Not clickable: excluded under CapClickable.
				{info: platform.ElementInfo{Role: "text", PID: 100, Bounds: image.Rect(0, 300, 100, 320), Enabled: true}},
			},
		},
	}
	b := NewSnapshotBuilder(tree, zap.NewNop())

	snap, err := b.Build(context.Background(), platform.Scope{}, SnapshotOptions{Want: CapClickable})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(snap.Candidates) != 3 {
		t.Fatalf("got %d candidates, want 3: %+v", len(snap.Candidates), snap.Candidates)
	}
	// Reading order: (50,10), then (100,200), then (300,200).
	wantX := []int{50, 100, 300}
	for i, c := range snap.Candidates {
		if c.Bounds.Min.X != wantX[i] {
			t.Errorf("candidate %d at x=%d, want %d", i, c.Bounds.Min.X, wantX[i])
		}
		if c.Index != i {
			t.Errorf("candidate %d carries Index %d", i, c.Index)
		}
	}
}

func TestSnapshotBuildVanishedNodeSkipsSubtree(t *testing.T) {
	tree := &fakeTree{
		root: &fakeNode{
			info: platform.ElementInfo{Role: "window", PID: 1, Bounds: image.Rect(0, 0, 800, 600), Enabled: true},
			children: []*fakeNode{
				{
					vanished: true,
					children: []*fakeNode{{info: clickable("button", 0, 0, 100, 30)}},
				},
				{info: clickable("button", 0, 100, 100, 130)},
			},
		},
	}
	b := NewSnapshotBuilder(tree, zap.NewNop())

	snap, err := b.Build(context.Background(), platform.Scope{}, SnapshotOptions{Want: CapClickable})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(snap.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1 (vanished subtree skipped)", len(snap.Candidates))
	}
	if snap.Candidates[0].Bounds.Min.Y != 100 {
		t.Errorf("surviving candidate at y=%d, want 100", snap.Candidates[0].Bounds.Min.Y)
	}
}

func TestSnapshotBuildVirtualizedContainer(t *testing.T) {
	tree := &fakeTree{
		root: &fakeNode{
			info: platform.ElementInfo{
				Role: "table", PID: 1, Bounds: image.Rect(0, 0, 800, 600),
				Enabled: true, Virtualized: true,
			},
			children: []*fakeNode{
				{info: clickable("row", 0, 0, 800, 30)},
				{info: clickable("row", 0, 30, 800, 60)}, // off-screen per fixture
			},
		},
	}
	b := NewSnapshotBuilder(tree, zap.NewNop())

	snap, err := b.Build(context.Background(), platform.Scope{}, SnapshotOptions{Want: CapClickable})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(snap.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1 (only visible rows walked)", len(snap.Candidates))
	}
}

func TestSnapshotBuildInaccessibleScopeIsEmptyNotError(t *testing.T) {
	tree := &fakeTree{rootErr: errors.New("permission revoked")}
	b := NewSnapshotBuilder(tree, zap.NewNop())

	snap, err := b.Build(context.Background(), platform.Scope{}, SnapshotOptions{})
	if err != nil {
		t.Fatalf("Build: %v, want nil error for inaccessible scope", err)
	}
	if !snap.Empty() {
		t.Errorf("snapshot not empty: %+v", snap.Candidates)
	}
}

func TestSnapshotBuildCancellation(t *testing.T) {
	tree := &fakeTree{root: &fakeNode{info: clickable("button", 0, 0, 100, 30)}}
	b := NewSnapshotBuilder(tree, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Build(ctx, platform.Scope{}, SnapshotOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Build on cancelled ctx: err = %v, want context.Canceled", err)
	}
}

func TestSnapshotBuildExtraClickableRoles(t *testing.T) {
	tree := &fakeTree{
		root: &fakeNode{
			info: platform.ElementInfo{Role: "group", PID: 1, Bounds: image.Rect(0, 0, 100, 30), Enabled: true},
		},
	}
	b := NewSnapshotBuilder(tree, zap.NewNop())

	snap, err := b.Build(context.Background(), platform.Scope{}, SnapshotOptions{
		Want:                CapClickable,
		ExtraClickableRoles: []string{"group"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(snap.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1 (extra role promoted)", len(snap.Candidates))
	}
}

func TestSnapshotBuildMaxCandidates(t *testing.T) {
	children := make([]*fakeNode, 10)
	for i := range children {
		children[i] = &fakeNode{info: clickable("button", 0, i*40, 100, i*40+30)}
	}
	tree := &fakeTree{
		root: &fakeNode{
			info:     platform.ElementInfo{Role: "window", PID: 1, Bounds: image.Rect(0, 0, 800, 600), Enabled: true},
			children: children,
		},
	}
	b := NewSnapshotBuilder(tree, zap.NewNop())

	snap, err := b.Build(context.Background(), platform.Scope{}, SnapshotOptions{Want: CapClickable, MaxCandidates: 4})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(snap.Candidates) != 4 {
		t.Errorf("got %d candidates, want capped 4", len(snap.Candidates))
	}
}

func TestInteractionPoint(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		bounds image.Rectangle
		want   image.Point
	}{
		{name: "button center", role: "button", bounds: image.Rect(0, 0, 100, 40), want: image.Pt(50, 20)},
		{name: "row left bias", role: "row", bounds: image.Rect(0, 0, 800, 40), want: image.Pt(200, 20)},
		{name: "cell left bias", role: "cell", bounds: image.Rect(100, 0, 300, 40), want: image.Pt(150, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := interactionPoint(tt.role, tt.bounds); got != tt.want {
				t.Errorf("interactionPoint(%q, %v) = %v, want %v", tt.role, tt.bounds, got, tt.want)
			}
		})
	}
}
