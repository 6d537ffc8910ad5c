package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/text/language"

	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/dashboard"
	"github.com/nao1215/wdglance/internal/upstream"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// DashboardFactory creates a started dashboard. The caller closes it.
type DashboardFactory func() (*dashboard.Dashboard, error)

// Server is the wdglance HTTP server.
type Server struct {
	conf         *config.ServerConf
	layout       *config.ClientConf
	newDashboard DashboardFactory
	client       *upstream.Client
	logger       *slog.Logger

	// shared serves requests which do not run queries (tile list, source
	// info, query matches).
	shared *dashboard.Dashboard

	langs    []string
	matcher  language.Matcher
	upgrader websocket.Upgrader
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithUpstream sets the HTTP client used by the authentication proxy.
func WithUpstream(c *upstream.Client) Option {
	return func(s *Server) {
		s.client = c
	}
}

// New creates a server. The layout is served to clients as is, dashboards
// are created by newDashboard.
func New(conf *config.ServerConf, layout *config.ClientConf, newDashboard DashboardFactory, opts ...Option) (*Server, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		conf:         conf,
		layout:       layout,
		newDashboard: newDashboard,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.client == nil {
		c, err := upstream.New(upstream.WithTimeout(conf.UpstreamTimeout()), upstream.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.client = c
	}
	s.langs, s.matcher = newLangMatcher(conf.Languages, s.logger)

	shared, err := newDashboard()
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard: %w", err)
	}
	s.shared = shared

	mux := http.NewServeMux()
	s.routes(mux)
	s.handler = s.requestID(s.logging(s.recovery(mux)))
	return s, nil
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close releases the shared dashboard.
func (s *Server) Close() error {
	return s.shared.Close()
}

// ListenAndServe serves until ctx ends, then shuts the server down.
// WebSocket sessions end with ctx as well.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.conf.ListenAddr(),
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "address", srv.Addr, "root", s.basePath())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

// basePath returns the path prefix of all routes without the trailing
// slash. urlRootPath may be a full URL.
func (s *Server) basePath() string {
	p := s.conf.URLRootPath
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

func (s *Server) routes(mux *http.ServeMux) {
	base := s.basePath()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET "+base+"/conf/wdglance.json", s.handleLayout)
	mux.HandleFunc("GET "+base+"/conf/tiles", s.handleTiles)
	mux.HandleFunc("GET "+base+"/api/query", s.handleQuery)
	mux.HandleFunc("GET "+base+"/api/query-matches", s.handleQueryMatches)
	mux.HandleFunc("GET "+base+"/ws/query", s.handleWebSocket)
	mux.HandleFunc("GET "+base+"/{tile}/source-info", s.handleSourceInfo)
	mux.HandleFunc("POST "+base+"/{tile}/authenticate", s.handleAuthenticate)
}

// newLangMatcher builds a matcher of the configured UI languages. The
// returned codes are in matcher order, the first one is the fallback.
func newLangMatcher(langs map[string]string, logger *slog.Logger) ([]string, language.Matcher) {
	var (
		codes []string
		tags  []language.Tag
	)
	for _, code := range slices.Sorted(maps.Keys(langs)) {
		tag, err := language.Parse(code)
		if err != nil {
			logger.Warn("ignoring invalid UI language", "code", code, "error", err)
			continue
		}
		codes = append(codes, code)
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return codes, language.NewMatcher(tags)
}

// uiLang negotiates the UI language from the lang parameter and the
// Accept-Language header. Without configured languages the lang
// parameter is used as is.
func (s *Server) uiLang(r *http.Request) string {
	requested := r.URL.Query().Get("lang")
	if s.matcher == nil {
		return requested
	}
	var tags []language.Tag
	if requested != "" {
		if tag, err := language.Parse(requested); err == nil {
			tags = append(tags, tag)
		}
	}
	if accepted, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil {
		tags = append(tags, accepted...)
	}
	_, idx, _ := s.matcher.Match(tags...)
	return s.langs[idx]
}
