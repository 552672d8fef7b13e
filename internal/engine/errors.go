package engine

import "errors"

// Error taxonomy for the navigation engine. Fatal errors (permission,
// tap) are surfaced once by the daemon at startup; per-session errors
// are handled inside the session lifecycle and never reach the user as
// dialogs.
var (
	// ErrPermissionDenied means the accessibility permission is not
	// granted. Fatal to the whole feature.
	ErrPermissionDenied = errors.New("accessibility permission not granted")

	// ErrStaleTarget means the element or its process vanished between
	// snapshot and action dispatch.
	ErrStaleTarget = errors.New("target element no longer exists")

	// ErrTapUnavailable means the event tap failed to install. The
	// feature is disabled until a retry succeeds.
	ErrTapUnavailable = errors.New("event tap unavailable")

	// ErrCellTooSmall means a grid cell is below the legible minimum and
	// cannot be subdivided further.
	ErrCellTooSmall = errors.New("grid cell below minimum size")
)
