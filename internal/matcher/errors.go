package matcher

import (
	"errors"
	"fmt"
)

// -- Error Types --

// PatternError reports a pattern that cannot be compiled.
type PatternError struct {
	Kind    string // "entry" or "ignore"
	Pattern string
	Cause   error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Kind, e.Pattern, e.Cause)
}
func (e *PatternError) Unwrap() error { return e.Cause }

// -- Sentinels --

var (
	ErrInvalidPattern = errors.New("invalid glob pattern")
	ErrEmptyPattern   = errors.New("empty pattern")
)
