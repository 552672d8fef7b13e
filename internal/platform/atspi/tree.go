//go:build linux

package atspi

import (
	"context"
	"fmt"
	"image"

	"github.com/godbus/dbus/v5"

	"github.com/keyglide/keyglide/internal/platform"
)

// node is the platform.Node handle this adapter hands out: the owning
// bus name plus an object path.
type node struct {
	dest string
	path dbus.ObjectPath
}

// AT-SPI state bits consumed here, per the atspi-constants enum.
const (
	stateActive    = 1
	stateEnabled   = 8
	stateFocusable = 11
	stateFocused   = 12
	stateSensitive = 24
	stateShowing   = 25
	stateVisible   = 30
	stateManages   = 31 // MANAGES_DESCENDANTS, set on virtualized containers
)

// Roles that take a synthetic click even without a declared action.
var clickableRoles = map[string]bool{
	"push button":     true,
	"toggle button":   true,
	"check box":       true,
	"radio button":    true,
	"link":            true,
	"menu item":       true,
	"check menu item": true,
	"radio menu item": true,
	"combo box":       true,
	"page tab":        true,
	"list item":       true,
	"table cell":      true,
	"spin button":     true,
	"slider":          true,
}

var scrollableRoles = map[string]bool{
	"scroll pane": true,
	"viewport":    true,
}

type treeReader struct {
	conn *conn
}

func (t *treeReader) object(n node) dbus.BusObject {
	return t.conn.bus.Object(n.dest, n.path)
}

func (t *treeReader) Root(ctx context.Context, scope platform.Scope) (platform.Node, error) {
	switch scope.Kind {
	case platform.ScopeSystem:
		return node{dest: registryName, path: rootPath}, nil
	case platform.ScopeApp:
		app, err := t.appByPID(scope.PID)
		if err != nil {
			return nil, err
		}
		return app, nil
	default:
		frame, _, err := t.activeFrame()
		if err != nil {
			return nil, err
		}
		return frame, nil
	}
}

func (t *treeReader) Children(ctx context.Context, pn platform.Node) ([]platform.Node, error) {
	n := pn.(node)
	var refs [][]interface{}
	if err := t.object(n).CallWithContext(ctx, ifaceAccessible+".GetChildren", 0).Store(&refs); err != nil {
		return nil, nil // vanished nodes yield an empty list
	}
	return t.toNodes(refs), nil
}

// VisibleChildren walks a virtualized container's children and keeps
// only those with the SHOWING state bit. AT-SPI exposes every row of a
// managed-descendants table; off-screen rows are present but not showing.
func (t *treeReader) VisibleChildren(ctx context.Context, pn platform.Node) ([]platform.Node, error) {
	all, err := t.Children(ctx, pn)
	if err != nil {
		return nil, err
	}
	var visible []platform.Node
	for _, child := range all {
		states, err := t.states(ctx, child.(node))
		if err != nil {
			continue
		}
		if states.has(stateShowing) {
			visible = append(visible, child)
		}
	}
	return visible, nil
}

func (t *treeReader) Info(ctx context.Context, pn platform.Node) (platform.ElementInfo, error) {
	n := pn.(node)
	obj := t.object(n)

	var role string
	if err := obj.CallWithContext(ctx, ifaceAccessible+".GetRoleName", 0).Store(&role); err != nil {
		return platform.ElementInfo{}, fmt.Errorf("role of %s: %w", n.path, err)
	}
	states, err := t.states(ctx, n)
	if err != nil {
		return platform.ElementInfo{}, err
	}

	var x, y, w, h int32
	err = obj.CallWithContext(ctx, ifaceComponent+".GetExtents", 0, coordTypeScreen).Store(&x, &y, &w, &h)
	if err != nil {
		// Non-visual nodes carry no Component interface; report them
		// with empty bounds so the walk skips them but keeps recursing.
		x, y, w, h = 0, 0, 0, 0
	}

	var name string
	if v, err := obj.GetProperty(ifaceAccessible + ".Name"); err == nil {
		v.Store(&name)
	}

	nActions := t.actionCount(ctx, n)

	info := platform.ElementInfo{
		Role:        role,
		Title:       name,
		PID:         t.conn.pidOf(n.dest),
		Bounds:      image.Rect(int(x), int(y), int(x+w), int(y+h)),
		Enabled:     states.has(stateEnabled) && states.has(stateSensitive),
		Focused:     states.has(stateFocused),
		Clickable:   nActions > 0 || clickableRoles[role],
		Scrollable:  scrollableRoles[role],
		Focusable:   states.has(stateFocusable),
		NativePress: nActions > 0,
		Virtualized: states.has(stateManages),
	}
	if !states.has(stateShowing) && !states.has(stateVisible) {
		info.Bounds = image.Rectangle{}
	}
	return info, nil
}

func (t *treeReader) ElementAt(ctx context.Context, pt image.Point) (platform.Node, error) {
	frame, _, err := t.activeFrame()
	if err != nil {
		return nil, err
	}
	var ref []interface{}
	err = t.object(frame).CallWithContext(ctx, ifaceComponent+".GetAccessibleAtPoint", 0,
		int32(pt.X), int32(pt.Y), coordTypeScreen).Store(&ref)
	if err != nil {
		return nil, fmt.Errorf("element at %v: %w", pt, err)
	}
	n, ok := refToNode(ref)
	if !ok {
		return nil, fmt.Errorf("no element at %v", pt)
	}
	return n, nil
}

func (t *treeReader) Press(ctx context.Context, pn platform.Node) error {
	n := pn.(node)
	call := t.object(n).CallWithContext(ctx, ifaceAction+".DoAction", 0, int32(0))
	if call.Err != nil {
		return fmt.Errorf("press %s: %w", n.path, call.Err)
	}
	var ok bool
	if err := call.Store(&ok); err == nil && !ok {
		return fmt.Errorf("press %s: action refused", n.path)
	}
	return nil
}

func (t *treeReader) Focus(ctx context.Context, pn platform.Node) error {
	n := pn.(node)
	var ok bool
	err := t.object(n).CallWithContext(ctx, ifaceComponent+".GrabFocus", 0).Store(&ok)
	if err != nil {
		return fmt.Errorf("focus %s: %w", n.path, err)
	}
	if !ok {
		return fmt.Errorf("focus %s: refused", n.path)
	}
	return nil
}

func (t *treeReader) Accessible(pid int) bool {
	return t.conn.reachable(pid)
}

// stateSet is the two-word AT-SPI state bitset.
type stateSet [2]uint32

func (s stateSet) has(bit int) bool {
	return s[bit/32]&(1<<(bit%32)) != 0
}

func (t *treeReader) states(ctx context.Context, n node) (stateSet, error) {
	var raw []uint32
	err := t.object(n).CallWithContext(ctx, ifaceAccessible+".GetState", 0).Store(&raw)
	if err != nil || len(raw) < 2 {
		return stateSet{}, fmt.Errorf("state of %s: %w", n.path, err)
	}
	return stateSet{raw[0], raw[1]}, nil
}

func (t *treeReader) actionCount(ctx context.Context, n node) int {
	v, err := t.object(n).GetProperty(ifaceAction + ".NActions")
	if err != nil {
		return 0
	}
	var count int32
	if err := v.Store(&count); err != nil {
		return 0
	}
	return int(count)
}

// activeFrame finds the frame with the ACTIVE state across all
// registered applications, returning it with its application's name.
func (t *treeReader) activeFrame() (node, string, error) {
	root := node{dest: registryName, path: rootPath}
	appRefs, err := t.Children(context.Background(), root)
	if err != nil {
		return node{}, "", err
	}
	for _, pa := range appRefs {
		app := pa.(node)
		frames, err := t.Children(context.Background(), app)
		if err != nil {
			continue
		}
		for _, pf := range frames {
			frame := pf.(node)
			states, err := t.states(context.Background(), frame)
			if err != nil {
				continue
			}
			if states.has(stateActive) {
				var appName string
				if v, err := t.object(app).GetProperty(ifaceAccessible + ".Name"); err == nil {
					v.Store(&appName)
				}
				return frame, appName, nil
			}
		}
	}
	return node{}, "", fmt.Errorf("no active frame on the accessibility bus")
}

func (t *treeReader) appByPID(pid int) (node, error) {
	root := node{dest: registryName, path: rootPath}
	appRefs, err := t.Children(context.Background(), root)
	if err != nil {
		return node{}, err
	}
	for _, pa := range appRefs {
		app := pa.(node)
		if t.conn.pidOf(app.dest) == pid {
			return app, nil
		}
	}
	return node{}, fmt.Errorf("no accessible application with pid %d", pid)
}

func (t *treeReader) toNodes(refs [][]interface{}) []platform.Node {
	var out []platform.Node
	for _, ref := range refs {
		if n, ok := refToNode(ref); ok {
			out = append(out, n)
		}
	}
	return out
}

// refToNode unpacks the (so) wire pair. The registry uses a null path
// for absent references.
func refToNode(ref []interface{}) (node, bool) {
	if len(ref) != 2 {
		return node{}, false
	}
	dest, ok := ref[0].(string)
	if !ok {
		return node{}, false
	}
	path, ok := ref[1].(dbus.ObjectPath)
	if !ok || path == "/org/a11y/atspi/null" || path == "" {
		return node{}, false
	}
	return node{dest: dest, path: path}, true
}
