//go:build linux

package cmd

// The blank import runs the adapter's init, which registers
// platform.NewProviderFunc for this OS.
import _ "github.com/keyglide/keyglide/internal/platform/atspi"
