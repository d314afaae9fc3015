// Package proxy forwards /backend/* requests to the clinic's upstream
// GeneXus REST services so the browser only ever talks to this server.
package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Backend is a reverse proxy to the upstream base URL.
type Backend struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
	logger zerolog.Logger
}

// NewBackend creates a proxy to baseURL (e.g. "https://apps.example.com/clinic").
func NewBackend(baseURL string, logger zerolog.Logger) (*Backend, error) {
	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}

	rp := httputil.NewSingleHostReverseProxy(target)
	director := rp.Director
	rp.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
	}
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("backend proxy error")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":"backend unavailable"}`)
	}

	return &Backend{target: target, proxy: rp, logger: logger}, nil
}

// RegisterRoutes mounts the proxy under /backend on the echo instance,
// stripping the mount prefix before forwarding.
func (b *Backend) RegisterRoutes(e *echo.Echo) {
	handler := func(c echo.Context) error {
		req := c.Request()
		req.URL.Path = strings.TrimPrefix(req.URL.Path, "/backend")
		if req.URL.Path == "" {
			req.URL.Path = "/"
		}
		b.proxy.ServeHTTP(c.Response(), req)
		return nil
	}
	e.Any("/backend", handler)
	e.Any("/backend/*", handler)
}
