package devserver

import (
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/rs/zerolog"
)

func parseTarget(name, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ProxyTargetError{Name: name, URL: raw, Cause: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &ProxyTargetError{Name: name, URL: raw, Cause: errors.New("scheme and host required")}
	}
	return u, nil
}

// newProxy forwards requests to target. rewritePath, when set, replaces the
// outgoing path. identity asks the target for an uncompressed body so the
// response stays rewritable.
func newProxy(target *url.URL, rewritePath func(string) string, identity bool) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if rewritePath != nil {
				pr.Out.URL.Path = rewritePath(pr.In.URL.Path)
				pr.Out.URL.RawPath = ""
			}
			if identity {
				pr.Out.Header.Del("Accept-Encoding")
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			zerolog.Ctx(r.Context()).Warn().
				Err(err).
				Str("target", target.Host).
				Msg("proxy request failed")
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}
