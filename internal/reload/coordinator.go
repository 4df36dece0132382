// Package reload decides, per changed file, whether connected browsers must
// do a full page reload.
package reload

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Cyclone1070/ssrreload/internal/matcher"
	"github.com/rs/zerolog"
)

// Config configures a Coordinator.
type Config struct {
	Broadcaster Broadcaster
	// Ignore is optional.
	Ignore IgnoreFilter
	Logger zerolog.Logger
}

// Coordinator owns the session's compiled matcher and reacts to file changes.
// Events are evaluated one at a time; events that arrive before the matcher
// is resolved wait for it.
type Coordinator struct {
	broadcaster Broadcaster
	ignore      IgnoreFilter
	log         zerolog.Logger

	mu    sync.Mutex
	state atomic.Int32

	resolveOnce sync.Once
	ready       chan struct{}
	matcher     *matcher.Matcher
	resolveErr  error
}

// New creates a Coordinator whose matcher is still unresolved.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		broadcaster: cfg.Broadcaster,
		ignore:      cfg.Ignore,
		log:         cfg.Logger,
		ready:       make(chan struct{}),
	}
}

// Resolve installs the matcher built for this session, or the error that
// prevented building it. Only the first call has an effect.
func (c *Coordinator) Resolve(m *matcher.Matcher, err error) {
	c.resolveOnce.Do(func() {
		c.matcher, c.resolveErr = m, err
		close(c.ready)
	})
}

// State reports whether an event is being evaluated right now.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// HandleFileChange evaluates one change. It returns Handled after sending a
// full reload, NotHandled when the file does not match.
func (c *Coordinator) HandleFileChange(ctx context.Context, ev ChangeEvent) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.ready:
	case <-ctx.Done():
		return NotHandled, ctx.Err()
	}
	if c.resolveErr != nil {
		return NotHandled, c.resolveErr
	}

	c.state.Store(int32(Evaluating))
	defer c.state.Store(int32(Idle))

	d := c.matcher.Decide(ev.Path)
	if !d.Matched {
		c.log.Debug().
			Str("file", ev.Path).
			Str("ignoredBy", d.Ignore).
			Msg("change does not require reload")
		return NotHandled, nil
	}

	if c.ignore != nil {
		if rel, escapes := c.matcher.Rel(ev.Path); !escapes && c.ignore.ShouldIgnore(rel, false) {
			c.log.Debug().Str("file", rel).Msg("change ignored by .gitignore")
			return NotHandled, nil
		}
	}

	if c.broadcaster == nil {
		return NotHandled, &BroadcastError{Path: ev.Path, Cause: ErrNoBroadcaster}
	}
	if err := c.broadcaster.FullReload(); err != nil {
		return NotHandled, &BroadcastError{Path: ev.Path, Cause: err}
	}

	c.log.Info().
		Str("file", ev.Path).
		Str("pattern", d.Entry).
		Msg("full reload")
	return Handled, nil
}
