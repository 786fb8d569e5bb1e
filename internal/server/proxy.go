package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/michaelbrown/polyrun/internal/remote"
)

// newRemoteProxy forwards every request to target, replacing the path
// entirely and presenting target's host as the origin. Upstream failures
// come back as 502 with remote.ProxyErrorHeader set, so the remote client
// can tell "proxy could not reach the service" apart from a service error.
func newRemoteProxy(logger *slog.Logger, target string) (*httputil.ReverseProxy, error) {
	upstream, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy target %q: %w", target, err)
	}
	if upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("proxy target %q must be an absolute URL", target)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.Out.URL.Path = upstream.Path
			pr.Out.URL.RawPath = upstream.RawPath
			pr.Out.URL.RawQuery = upstream.RawQuery
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("remote proxy error", "target", target, "error", err)
			w.Header().Set(remote.ProxyErrorHeader, "upstream_unreachable")
			w.Header().Set("Content-Type", "application/json")
			writeError(w, http.StatusBadGateway, "remote service unavailable")
		},
	}, nil
}
