//go:build linux

// Package atspi backs the platform interfaces with the AT-SPI2
// accessibility bus. Tree reads go through org.a11y.atspi.Accessible
// and Component; input synthesis through the registry's
// DeviceEventController. Overlay drawing and key capture need a
// compositor-side surface this adapter does not provide, so those
// backends stay nil and the daemon runs CLI-driven without labels.
package atspi

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/keyglide/keyglide/internal/platform"
)

const (
	busService   = "org.a11y.Bus"
	busPath      = "/org/a11y/bus"
	busInterface = "org.a11y.Bus"

	registryName = "org.a11y.atspi.Registry"
	rootPath     = dbus.ObjectPath("/org/a11y/atspi/accessible/root")
	decPath      = dbus.ObjectPath("/org/a11y/atspi/registry/deviceeventcontroller")

	ifaceAccessible = "org.a11y.atspi.Accessible"
	ifaceComponent  = "org.a11y.atspi.Component"
	ifaceAction     = "org.a11y.atspi.Action"
	ifaceDEC        = "org.a11y.atspi.DeviceEventController"

	coordTypeScreen = uint32(0)
)

func init() {
	platform.NewProviderFunc = newProvider
}

// conn is the shared accessibility-bus connection.
type conn struct {
	bus *dbus.Conn

	mu      sync.Mutex
	pidName map[int]string // owning bus name per pid, for staleness checks
}

func newProvider() (*platform.Provider, error) {
	c, err := connect()
	if err != nil {
		return nil, err
	}
	tree := &treeReader{conn: c}
	return &platform.Provider{
		Tree:        tree,
		Input:       &input{conn: c},
		Screens:     &screens{tree: tree},
		Apps:        &apps{tree: tree},
		Permissions: &permissions{conn: c},
	}, nil
}

// connect asks the session bus for the accessibility bus address and
// opens a private connection to it.
func connect() (*conn, error) {
	session, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus: %w", err)
	}
	var address string
	obj := session.Object(busService, busPath)
	if err := obj.Call(busInterface+".GetAddress", 0).Store(&address); err != nil {
		return nil, fmt.Errorf("accessibility bus address: %w", err)
	}
	bus, err := dbus.Connect(address)
	if err != nil {
		return nil, fmt.Errorf("accessibility bus: %w", err)
	}
	return &conn{bus: bus, pidName: map[int]string{}}, nil
}

// pidOf resolves the unix process behind a bus name, caching the
// name for later reachability checks.
func (c *conn) pidOf(busName string) int {
	var pid uint32
	err := c.bus.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixProcessID", 0, busName).Store(&pid)
	if err != nil {
		return 0
	}
	c.mu.Lock()
	c.pidName[int(pid)] = busName
	c.mu.Unlock()
	return int(pid)
}

// reachable reports whether the bus name recorded for pid still has an
// owner. An unknown pid counts as reachable; staleness is a best-effort
// signal, not a gate.
func (c *conn) reachable(pid int) bool {
	c.mu.Lock()
	name, ok := c.pidName[pid]
	c.mu.Unlock()
	if !ok {
		return true
	}
	var has bool
	if err := c.bus.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, name).Store(&has); err != nil {
		return true
	}
	return has
}

type permissions struct {
	conn *conn
}

// AccessibilityGranted probes the registry root. A bus that answers is
// a bus we can walk.
func (p *permissions) AccessibilityGranted() bool {
	obj := p.conn.bus.Object(registryName, rootPath)
	var count int32
	err := obj.Call("org.freedesktop.DBus.Properties.Get", 0, ifaceAccessible, "ChildCount").Store(&count)
	if err != nil {
		// Some registries reject the property but answer the method.
		var children [][]interface{}
		err = obj.Call(ifaceAccessible+".GetChildren", 0).Store(&children)
	}
	return err == nil
}

type apps struct {
	tree *treeReader
}

// Frontmost reports the application owning the active frame.
func (a *apps) Frontmost() (platform.AppInfo, error) {
	frame, appName, err := a.tree.activeFrame()
	if err != nil {
		return platform.AppInfo{}, err
	}
	pid := a.tree.conn.pidOf(frame.dest)
	return platform.AppInfo{ID: appName, Name: appName, PID: pid}, nil
}
