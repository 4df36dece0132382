package path

import (
	"errors"
	"fmt"
)

// -- Error Types --

// RootError is returned when the project root cannot be used.
type RootError struct {
	Root  string
	Cause error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("invalid project root %s: %v", e.Root, e.Cause)
}
func (e *RootError) Unwrap() error { return e.Cause }

// -- Sentinels --

var (
	ErrRootNotSet    = errors.New("project root not set")
	ErrNotADirectory = errors.New("not a directory")
)
