package devserver

import (
	"errors"
	"fmt"
)

// ErrNoUpstream is returned when no SSR application URL is configured.
var ErrNoUpstream = errors.New("server.upstream is required")

// ProxyTargetError reports a proxy target URL that cannot be used.
type ProxyTargetError struct {
	Name  string
	URL   string
	Cause error
}

func (e *ProxyTargetError) Error() string {
	return fmt.Sprintf("invalid %s URL %q: %v", e.Name, e.URL, e.Cause)
}

func (e *ProxyTargetError) Unwrap() error { return e.Cause }
