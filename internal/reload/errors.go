package reload

import (
	"errors"
	"fmt"
)

// BroadcastError is returned when the reload signal could not be sent.
type BroadcastError struct {
	Path  string
	Cause error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("failed to broadcast reload for %s: %v", e.Path, e.Cause)
}
func (e *BroadcastError) Unwrap() error { return e.Cause }

var (
	ErrNoBroadcaster = errors.New("no broadcaster configured")
)
