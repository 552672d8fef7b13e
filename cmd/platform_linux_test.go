//go:build linux

package cmd

import (
	"testing"

	"github.com/keyglide/keyglide/internal/platform"
)

func TestPlatformProviderRegistered(t *testing.T) {
	if platform.NewProviderFunc == nil {
		t.Fatal("no platform backend registered; daemon and preview cannot start")
	}
}
