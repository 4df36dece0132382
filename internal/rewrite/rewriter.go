// Package rewrite buffers HTML responses and injects the dev client and
// fast-refresh bootstrap scripts before releasing them.
package rewrite

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Config configures a Rewriter.
type Config struct {
	// Base is the public base path, with leading and trailing "/".
	Base string
	// InjectClient controls the client script. Callers usually pass Bool(true).
	InjectClient Policy
	// InjectRefresh controls the fast-refresh preamble.
	InjectRefresh Policy
	Logger        zerolog.Logger
}

// Rewriter injects scripts into buffered HTML responses.
// One Rewriter serves every request of a dev session; per-request state
// lives in a bufferedWriter.
type Rewriter struct {
	base    string
	client  *decider
	refresh *decider
	log     zerolog.Logger
}

// New creates a Rewriter.
func New(cfg Config) *Rewriter {
	base := cfg.Base
	if base == "" {
		base = "/"
	}
	return &Rewriter{
		base:    base,
		client:  newDecider("injectViteClient", cfg.InjectClient),
		refresh: newDecider("injectReactRefresh", cfg.InjectRefresh),
		log:     cfg.Logger,
	}
}

// Middleware wraps next so its output passes through the rewriter.
func (rw *Rewriter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upgrades hijack the connection and HEAD has no body to inject into
		if r.Header.Get("Upgrade") != "" || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		bw := newBufferedWriter(w)
		next.ServeHTTP(bw, r)
		rw.finalize(bw, r)
	})
}

// finalize releases the buffered response exactly once.
func (rw *Rewriter) finalize(bw *bufferedWriter, r *http.Request) {
	if bw.done {
		return
	}
	bw.done = true

	log := rw.logger(r)
	if err := r.Context().Err(); err != nil {
		log.Debug().Err(err).Int("bytes", bw.buf.Len()).Msg("client gone, discarding buffered response")
		return
	}

	status := bw.statusCode()
	header := bw.w.Header()
	body := bw.buf.Bytes()

	if !rewritable(status, header) {
		bw.w.WriteHeader(status)
		if len(body) > 0 {
			_, _ = bw.w.Write(body)
		}
		return
	}

	out := rw.Rewrite(r, Response{Status: status, Header: header}, body)
	header.Set("Content-Length", strconv.Itoa(len(out)))
	bw.w.WriteHeader(status)
	if _, err := bw.w.Write(out); err != nil {
		log.Debug().Err(err).Msg("write rewritten response")
	}
}

// Rewrite returns body with the scripts the policies ask for. Each policy is
// evaluated once; a script whose marker is already present is never added
// again.
func (rw *Rewriter) Rewrite(r *http.Request, res Response, body []byte) []byte {
	log := rw.logger(r)

	wantRefresh := rw.refresh.decide(r, res, log)
	wantClient := rw.client.decide(r, res, log)

	var block strings.Builder
	if wantRefresh && !bytes.Contains(body, []byte(RefreshMarker)) {
		block.WriteString(RefreshPreamble(rw.base))
	}
	if wantClient && !bytes.Contains(body, []byte(ClientMarker)) {
		block.WriteString(ClientScript(rw.base))
	}
	if block.Len() == 0 {
		return body
	}

	log.Debug().
		Bool("refresh", wantRefresh).
		Bool("client", wantClient).
		Str("path", r.URL.Path).
		Msg("injecting dev scripts")
	return Inject(body, block.String())
}

func (rw *Rewriter) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &rw.log
}

// rewritable reports whether a response is an uncompressed HTML document
// that may carry a body.
func rewritable(status int, h http.Header) bool {
	if status == http.StatusNoContent || status == http.StatusNotModified || status < 200 {
		return false
	}
	if enc := h.Get("Content-Encoding"); enc != "" && !strings.EqualFold(enc, "identity") {
		return false
	}
	return IsHTML(h.Get("Content-Type"))
}

// IsHTML reports whether a Content-Type value denotes an HTML document.
func IsHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	return mt == "text/html"
}
