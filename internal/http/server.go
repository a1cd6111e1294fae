// Package http serves the sales dashboard pages and its JSON endpoints.
package http

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	applog "salesboard/internal/log"
	"salesboard/internal/middleware/ratelimit"
	"salesboard/internal/middleware/security"
	"salesboard/internal/middleware/trace"
	"salesboard/internal/services"
	appweb "salesboard/web"
)

// requestTimeout bounds every store round trip made for one request.
const requestTimeout = 7 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Analytics *services.AnalyticsService
	Sales     *services.SaleService
	Store     Pinger
	Logger    *applog.Logger

	// RateLimitPerMinute applies to POST requests per client IP.
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	analytics *services.AnalyticsService
	sales     *services.SaleService
	store     Pinger
	logger    *applog.Logger
	errLog    *applog.StructuredLogger

	json     Renderer
	html     *TemplateRenderer
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		analytics: deps.Analytics,
		sales:     deps.Sales,
		store:     deps.Store,
		logger:    logger,
		errLog:    applog.NewStructuredLogger(logger),
		json:      JSONRenderer{},
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(detector.ExtractClientIP, logger),
	}

	html, err := ParseTemplates(appweb.TemplatesFS)
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.html = html

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticCache(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.Handle("/{$}", s.handle(s.html, map[string]route{http.MethodGet: s.dashboardPage}))
	mux.Handle("/api/sales-by-category/{$}", s.handle(s.json, map[string]route{http.MethodGet: s.categoryJSON}))
	mux.Handle("/trend/{$}", s.trendHandler())
	mux.Handle("/api/sales-trend/{$}", s.handle(s.json, map[string]route{http.MethodGet: s.trendJSON}))
	mux.Handle("/api/summary/{$}", s.handle(s.json, map[string]route{http.MethodGet: s.summaryJSON}))
	mux.Handle("/api/sales/{$}", s.limitWrites(s.handle(s.json, map[string]route{
		http.MethodGet:  s.listSales,
		http.MethodPost: s.createSale,
	})))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	var h http.Handler = mux
	h = applog.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(h)
	h = applog.Middleware(logger)(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = detector.Middleware(logger)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// handle adapts route functions keyed by method into a handler. Methods not
// in the table get 405 with an Allow header.
func (s *Server) handle(renderer Renderer, routes map[string]route) http.Handler {
	allowed := make([]string, 0, len(routes))
	for m := range routes {
		allowed = append(allowed, m)
	}
	slices.Sort(allowed)
	allow := strings.Join(allowed, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn, found := routes[r.Method]
		if !found {
			w.Header().Set("Allow", allow)
			renderer.Error(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.serve(w, r, renderer, fn)
	})
}

// trendHandler serves the HTML window listing, or the chart JSON when
// ?format=json is given.
func (s *Server) trendHandler() http.Handler {
	htmlView := s.handle(s.html, map[string]route{http.MethodGet: s.trendPage})
	api := s.handle(s.json, map[string]route{http.MethodGet: s.trendJSON})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.URL.Query().Get("format"), "json") {
			api.ServeHTTP(w, r)
			return
		}
		htmlView.ServeHTTP(w, r)
	})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, renderer Renderer, fn route) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	r = r.WithContext(ctx)

	p, err := fn(r)
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			s.errLog.LogError(ctx, "Request failed", err, operationFor(r), applog.NewFields().
				WithRequestID(trace.GetRequestID(ctx)).
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
		}
		renderer.Error(w, status, publicMessage(status, err))
		return
	}

	if err := renderer.Render(w, p); err != nil {
		s.errLog.LogError(ctx, "Render failed", err, applog.OpRender, nil)
		renderer.Error(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func operationFor(r *http.Request) string {
	if r.Method == http.MethodPost {
		return applog.OpCreate
	}
	return applog.OpAggregate
}

// limitWrites rate limits POST requests per client IP.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		s.json.Error(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleReady checks templates and the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.html == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the rate limiter and gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
		if errors.Is(shutdownErr, http.ErrServerClosed) {
			shutdownErr = nil
		}
	})
	return shutdownErr
}

// Stats exposes request and security counters for logging at shutdown.
func (s *Server) Stats() (requests, serverErrors, suspicious, rateLimited int64) {
	m := s.tracer.GetMetrics()
	return m.TotalRequests, m.ServerErrors, s.detector.SuspiciousCount(), s.limiter.Hits()
}
