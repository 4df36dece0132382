package hmr

import "errors"

var (
	// ErrHubClosed is returned by Send after Close.
	ErrHubClosed = errors.New("reload hub closed")
)
