// Package devserver is a small development server that hosts the reload
// plugin in front of an SSR application and an optional Vite server.
package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Cyclone1070/ssrreload/internal/config"
	"github.com/Cyclone1070/ssrreload/internal/hmr"
	"github.com/Cyclone1070/ssrreload/internal/plugin"
	"github.com/Cyclone1070/ssrreload/internal/reload"
	"github.com/Cyclone1070/ssrreload/internal/watch"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// viteClientPath is where the real Vite client is re-exposed when a Vite
// server is proxied, relative to the base.
const viteClientPath = hmr.SocketPath + "/vite-client"

// Config configures a Server.
type Config struct {
	Root   string
	Config config.Config
	// Plugin overrides the plugin options derived from Config.
	Plugin *plugin.Options
	Logger zerolog.Logger
}

// Server is a plugin.Host.
type Server struct {
	cfg  config.Config
	root string
	base string
	log  zerolog.Logger

	hub     *hmr.Hub
	plugin  *plugin.Plugin
	watcher *watch.Watcher
	handler http.Handler

	mu         sync.Mutex
	middleware []func(http.Handler) http.Handler
	onChange   []func(context.Context, reload.ChangeEvent) reload.Outcome
}

// New builds the server, registers the reload plugin and starts watching
// the root. Nothing is served until Run.
func New(cfg Config) (*Server, error) {
	if cfg.Config.Server.Upstream == "" {
		return nil, ErrNoUpstream
	}
	upstream, err := parseTarget("upstream", cfg.Config.Server.Upstream)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:  cfg.Config,
		root: cfg.Root,
		base: config.NormalizeBase(cfg.Config.Base),
		log:  cfg.Logger,
		hub:  hmr.NewHub(hmr.Config{Logger: cfg.Logger}),
	}

	opts := plugin.Options{Config: cfg.Config}
	if cfg.Plugin != nil {
		opts = *cfg.Plugin
	}
	s.plugin, err = plugin.Register(s, opts, cfg.Logger)
	if err != nil {
		return nil, err
	}

	s.watcher, err = watch.New(watch.Config{
		Root:    s.plugin.Root(),
		Handler: s.dispatch,
		Filter:  s.plugin,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	s.handler, err = s.routes(upstream)
	if err != nil {
		s.watcher.Close()
		return nil, err
	}
	return s, nil
}

// ResolveRoot implements plugin.Host.
func (s *Server) ResolveRoot() (string, error) {
	return s.root, nil
}

// Use implements plugin.Host.
func (s *Server) Use(mw func(http.Handler) http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middleware = append(s.middleware, mw)
}

// OnFileChange implements plugin.Host.
func (s *Server) OnFileChange(fn func(context.Context, reload.ChangeEvent) reload.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Broadcaster implements plugin.Host.
func (s *Server) Broadcaster() reload.Broadcaster {
	return s.hub
}

// dispatch runs the change subscribers until one handles the event.
// Unhandled changes are left to the Vite server's own watcher.
func (s *Server) dispatch(ctx context.Context, ev reload.ChangeEvent) {
	s.mu.Lock()
	subscribers := append([]func(context.Context, reload.ChangeEvent) reload.Outcome(nil), s.onChange...)
	s.mu.Unlock()

	for _, fn := range subscribers {
		if fn(ctx, ev) == reload.Handled {
			return
		}
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the reload hub.
func (s *Server) Hub() *hmr.Hub {
	return s.hub
}

func (s *Server) routes(upstream *url.URL) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestContext)

	base := s.base
	r.Handle(base+hmr.SocketPath, s.hub)

	var clientImport string
	if s.cfg.Server.ViteURL != "" {
		vite, err := parseTarget("viteURL", s.cfg.Server.ViteURL)
		if err != nil {
			return nil, err
		}
		assets := newProxy(vite, nil, false)
		for _, p := range []string{"@vite/*", "@react-refresh", "@id/*", "@fs/*", "src/*", "node_modules/*"} {
			r.Handle(base+p, assets)
		}
		r.Handle(base+viteClientPath, newProxy(vite, func(string) string {
			return base + "@vite/client"
		}, false))
		clientImport = base + viteClientPath
	}

	script := hmr.ClientScript(base, clientImport)
	r.Get(base+"@vite/client", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/javascript")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(script))
	})

	var page http.Handler = newProxy(upstream, nil, true)
	s.mu.Lock()
	for i := len(s.middleware) - 1; i >= 0; i-- {
		page = s.middleware[i](page)
	}
	s.mu.Unlock()
	r.Handle("/*", page)

	return r, nil
}

// requestContext tags each request with an id and a request-scoped logger.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		logger := s.log.With().
			Str("requestId", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context())))

		logger.Debug().
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// Run serves on the configured listen address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln and watches the root until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watcher.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("dev server listening")

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("shutdown incomplete")
	}
	s.plugin.Close()
	wg.Wait()

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

// URL returns the address browsers should open for addr.
func URL(addr, base string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + base
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return "http://" + host + ":" + port + base
}
