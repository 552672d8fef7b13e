//go:build linux

package atspi

import (
	"context"
	"image"
)

// screens derives display geometry from the accessibility tree: the
// desktop root's extents for the main display, the active frame's
// enclosing extents for the active one. Falls back to a common
// resolution when the registry exposes no geometry at all.
type screens struct {
	tree *treeReader
}

var fallbackScreen = image.Rect(0, 0, 1920, 1080)

func (s *screens) Main() image.Rectangle {
	root := node{dest: registryName, path: rootPath}
	if r, ok := s.extents(root); ok {
		return r
	}
	return fallbackScreen
}

func (s *screens) Active() image.Rectangle {
	frame, _, err := s.tree.activeFrame()
	if err == nil {
		if r, ok := s.extents(frame); ok {
			return r
		}
	}
	return s.Main()
}

func (s *screens) extents(n node) (image.Rectangle, bool) {
	var x, y, w, h int32
	err := s.tree.object(n).CallWithContext(context.Background(),
		ifaceComponent+".GetExtents", 0, coordTypeScreen).Store(&x, &y, &w, &h)
	if err != nil || w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(int(x), int(y), int(x+w), int(y+h)), true
}
