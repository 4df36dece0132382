package rewrite

import (
	"net/http"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Response is the read-only view of a finished response handed to predicates.
type Response struct {
	Status int
	Header http.Header
}

// Predicate decides per request whether a script should be injected.
type Predicate func(r *http.Request, res Response) bool

type policyKind uint8

const (
	policyNever policyKind = iota
	policyAlways
	policyPredicate
)

// Policy is one of Always, Never or When(fn). The zero value is Never.
type Policy struct {
	kind policyKind
	fn   Predicate
}

// Always injects on every HTML response.
func Always() Policy { return Policy{kind: policyAlways} }

// Never disables injection.
func Never() Policy { return Policy{kind: policyNever} }

// When injects when fn returns true. A nil fn behaves like Never.
func When(fn Predicate) Policy {
	if fn == nil {
		return Never()
	}
	return Policy{kind: policyPredicate, fn: fn}
}

// Bool maps a boolean option onto Always or Never.
func Bool(b bool) Policy {
	if b {
		return Always()
	}
	return Never()
}

// SkipHeader injects unless the request carries the named header,
// e.g. "HX-Request" for htmx partial swaps.
func SkipHeader(name string) Policy {
	return When(func(r *http.Request, _ Response) bool {
		return r.Header.Get(name) == ""
	})
}

// decider is a Policy normalized into one callable. A panicking predicate
// declines injection; the first panic is logged at error level, later ones
// at debug level.
type decider struct {
	name    string
	policy  Policy
	faulted atomic.Bool
}

func newDecider(name string, p Policy) *decider {
	return &decider{name: name, policy: p}
}

func (d *decider) decide(r *http.Request, res Response, log *zerolog.Logger) (inject bool) {
	switch d.policy.kind {
	case policyAlways:
		return true
	case policyNever:
		return false
	}

	defer func() {
		if v := recover(); v != nil {
			inject = false
			level := zerolog.ErrorLevel
			if d.faulted.Swap(true) {
				level = zerolog.DebugLevel
			}
			log.WithLevel(level).
				Str("policy", d.name).
				Str("path", r.URL.Path).
				Interface("panic", v).
				Msg("injection predicate failed, skipping injection")
		}
	}()
	return d.policy.fn(r, res)
}
