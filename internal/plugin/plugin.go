// Package plugin wires the path matcher, the reload coordinator and the
// response rewriter into a host dev server.
package plugin

import (
	"context"
	"errors"
	"net/http"

	"github.com/Cyclone1070/ssrreload/internal/config"
	"github.com/Cyclone1070/ssrreload/internal/matcher"
	"github.com/Cyclone1070/ssrreload/internal/reload"
	"github.com/Cyclone1070/ssrreload/internal/rewrite"
	"github.com/Cyclone1070/ssrreload/internal/service/fs"
	"github.com/Cyclone1070/ssrreload/internal/service/git"
	pathutil "github.com/Cyclone1070/ssrreload/internal/service/path"
	"github.com/rs/zerolog"
)

// ErrRootNotResolved is reported to file changes that arrive after the plugin
// was closed before the project root was known.
var ErrRootNotResolved = errors.New("project root not resolved")

// Host is the dev server the plugin registers with.
type Host interface {
	// ResolveRoot returns the project root once the host knows it.
	ResolveRoot() (string, error)
	// Use adds a middleware in front of the host's page handler.
	Use(func(http.Handler) http.Handler)
	// OnFileChange subscribes to file changes. A Handled outcome tells the
	// host to skip its own update propagation for the event.
	OnFileChange(func(context.Context, reload.ChangeEvent) reload.Outcome)
	Broadcaster() reload.Broadcaster
}

// Options are the plugin options. A nil policy falls back to the matching
// boolean in Config.
type Options struct {
	Config             config.Config
	InjectViteClient   *rewrite.Policy
	InjectReactRefresh *rewrite.Policy
}

// Plugin is one registration of the reload plugin with a host.
type Plugin struct {
	log         zerolog.Logger
	host        Host
	cfg         config.Config
	coordinator *reload.Coordinator
	rewriter    *rewrite.Rewriter

	// Set before the coordinator is resolved; read only after.
	root      string
	gitignore reload.IgnoreFilter
}

// Register attaches the plugin to host and resolves the project root.
func Register(host Host, opts Options, logger zerolog.Logger) (*Plugin, error) {
	p := New(host, opts, logger)
	if err := p.Start(); err != nil {
		return nil, err
	}
	return p, nil
}

// New installs the rewriting middleware and the change subscription on host.
// Events raised before Start wait for the matcher instead of being lost.
func New(host Host, opts Options, logger zerolog.Logger) *Plugin {
	cfg := opts.Config

	p := &Plugin{log: logger, host: host, cfg: cfg}
	p.coordinator = reload.New(reload.Config{
		Broadcaster: host.Broadcaster(),
		Ignore:      p,
		Logger:      logger,
	})
	p.rewriter = rewrite.New(rewrite.Config{
		Base:          config.NormalizeBase(cfg.Base),
		InjectClient:  policyOr(opts.InjectViteClient, cfg.InjectViteClient),
		InjectRefresh: policyOr(opts.InjectReactRefresh, cfg.InjectReactRefresh),
		Logger:        logger,
	})

	host.Use(p.rewriter.Middleware)
	host.OnFileChange(p.HandleFileChange)
	return p
}

// Start resolves the root and builds the matcher. Errors are returned and
// also reported to every pending and future file change.
func (p *Plugin) Start() error {
	m, err := p.resolve(p.host, p.cfg)
	p.coordinator.Resolve(m, err)
	if err != nil {
		return err
	}

	entry, ignore := m.Len()
	p.log.Info().
		Str("root", p.root).
		Int("entryGlobs", entry).
		Int("ignoreGlobs", ignore).
		Bool("gitignore", p.cfg.RespectGitignore).
		Msg("reload plugin registered")
	return nil
}

func (p *Plugin) resolve(host Host, cfg config.Config) (*matcher.Matcher, error) {
	root, err := host.ResolveRoot()
	if err != nil {
		return nil, err
	}
	root, err = pathutil.CanonicaliseRoot(root)
	if err != nil {
		return nil, err
	}

	m, err := matcher.Build(cfg.EntryPatterns(), cfg.Ignore, root)
	if err != nil {
		return nil, err
	}

	if cfg.RespectGitignore {
		gi, err := git.NewIgnoreMatcher(root, fs.NewOSFileSystem())
		if err != nil {
			return nil, err
		}
		p.gitignore = gi
	}
	p.root = root
	return m, nil
}

func policyOr(p *rewrite.Policy, fallback bool) rewrite.Policy {
	if p != nil {
		return *p
	}
	return rewrite.Bool(fallback)
}

// HandleFileChange is the host's file-change hook.
func (p *Plugin) HandleFileChange(ctx context.Context, ev reload.ChangeEvent) reload.Outcome {
	out, err := p.coordinator.HandleFileChange(ctx, ev)
	if err != nil {
		p.log.Warn().Err(err).Str("file", ev.Path).Msg("reload check failed")
	}
	return out
}

// ShouldIgnore reports whether .gitignore excludes the root-relative path.
// It ignores nothing unless respectGitignore is on.
func (p *Plugin) ShouldIgnore(relativePath string, isDir bool) bool {
	if p.gitignore == nil {
		return false
	}
	return p.gitignore.ShouldIgnore(relativePath, isDir)
}

// Root returns the canonical project root.
func (p *Plugin) Root() string {
	return p.root
}

// Rewriter returns the response rewriter installed on the host.
func (p *Plugin) Rewriter() *rewrite.Rewriter {
	return p.rewriter
}

// State reports the coordinator state.
func (p *Plugin) State() reload.State {
	return p.coordinator.State()
}

// Close fails events still waiting on a Start that has not happened.
func (p *Plugin) Close() {
	p.coordinator.Resolve(nil, ErrRootNotResolved)
}
