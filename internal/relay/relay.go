// Package relay serves engine media to the webview from the app's own
// origin. Poster frames, burst thumbnails, and proxy streams live on the
// engine's loopback port; the webview cannot fetch that origin directly,
// so asset URLs are rewritten onto /backend/* and proxied through here.
package relay

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// PathPrefix is where engine assets appear on the app origin.
const PathPrefix = "/backend"

// streamFlushInterval keeps proxy video playable while it downloads.
const streamFlushInterval = 100 * time.Millisecond

// New builds the relay handler for the engine at engineBaseURL. Only GET
// and HEAD pass through; the UI talks to the engine API over its own
// client, never through the relay. allowedOrigins admits dev-server
// origins during development and is empty in packaged builds.
func New(engineBaseURL string, allowedOrigins []string, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(engineBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse engine URL %q: %w", engineBaseURL, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("engine URL %q has no scheme or host", engineBaseURL)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.Host = target.Host
		},
		FlushInterval: streamFlushInterval,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("relay upstream error", "path", r.URL.Path, "error", err)
			http.Error(w, "engine unreachable", http.StatusBadGateway)
		},
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))
	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
		}).Handler)
	}

	router.Get("/relay/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})

	media := http.StripPrefix(PathPrefix, proxy)
	router.Method(http.MethodGet, PathPrefix+"/*", media)
	router.Method(http.MethodHead, PathPrefix+"/*", media)

	return router, nil
}

// RewriteAssetURL maps an engine asset URL onto the relay path the
// webview can fetch. Absolute URLs must point at the engine host;
// anything else is refused rather than proxied blind.
func RewriteAssetURL(engineBaseURL, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("empty asset URL")
	}

	asset, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse asset URL %q: %w", raw, err)
	}
	if asset.Host != "" {
		engine, err := url.Parse(engineBaseURL)
		if err != nil {
			return "", fmt.Errorf("parse engine URL %q: %w", engineBaseURL, err)
		}
		if !strings.EqualFold(asset.Host, engine.Host) {
			return "", fmt.Errorf("asset URL %q points outside the engine at %s", raw, engine.Host)
		}
	}

	path := asset.EscapedPath()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	rewritten := PathPrefix + path
	if asset.RawQuery != "" {
		rewritten += "?" + asset.RawQuery
	}
	return rewritten, nil
}

// requestLogger emits one debug line per relay request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("relay request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
