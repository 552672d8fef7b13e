package platform

import (
	"fmt"
	"runtime"
)

// Provider bundles all platform backends for the current OS. Backends a
// platform cannot supply are nil; callers check before use.
type Provider struct {
	Tree        TreeReader
	Input       Input
	Overlay     Overlay
	Screens     Screens
	Apps        Apps
	Tap         EventTap
	Permissions Permissions
}

// ErrUnsupported is returned on unsupported platforms.
var ErrUnsupported = fmt.Errorf("keyglide is not supported on %s/%s", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by platform-specific packages via init().
// See internal/platform/atspi for the Linux AT-SPI2 registration.
var NewProviderFunc func() (*Provider, error)

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
