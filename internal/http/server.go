package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "mypgrade/internal/log"
	"mypgrade/internal/middleware/ratelimit"
	"mypgrade/internal/middleware/security"
	"mypgrade/internal/middleware/trace"
	"mypgrade/internal/services"
	appweb "mypgrade/web"
)

const (
	requestTimeout    = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	staticMaxAge      = 3600
)

// ReadyCheck reports whether a dependency can serve requests.
type ReadyCheck func(ctx context.Context) error

type Server struct {
	http.Server
	templates *template.Template
	grades    *services.GradeService
	logger    *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	ready    map[string]ReadyCheck

	metrics      *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	mutations int64
	started   time.Time
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger             *applog.Logger
	rateLimitPerMinute int
	ready              map[string]ReadyCheck
}

func WithLogger(l *applog.Logger) Option {
	return func(o *serverOptions) { o.logger = l }
}

// WithRateLimit caps mutating API requests per client per minute.
func WithRateLimit(perMinute int) Option {
	return func(o *serverOptions) { o.rateLimitPerMinute = perMinute }
}

// WithReadyCheck adds a named dependency check to /readyz.
func WithReadyCheck(name string, check ReadyCheck) Option {
	return func(o *serverOptions) { o.ready[name] = check }
}

// NewServer wires routes, middleware and templates around the grade service.
func NewServer(addr string, grades *services.GradeService, opts ...Option) *Server {
	o := serverOptions{
		logger:             applog.New(applog.DefaultConfig()),
		rateLimitPerMinute: ratelimit.DefaultConfig().RequestsPerMinute,
		ready:              make(map[string]ReadyCheck),
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		grades:   grades,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: o.rateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		ready:    o.ready,
		metrics:  &appMetrics{started: time.Now()},
	}

	t, err := parseTemplates()
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err,
			applog.FieldComponent, applog.ComponentTemplate)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(s.tracer.Middleware)
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(staticMaxAge)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(applog.ComponentMiddleware(applog.ComponentGrades))

		r.Get("/subjects", s.handleListSubjects)
		r.Get("/subjects/{id}", s.handleGetSubject)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/boundaries", s.handleBoundaries)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit))

			r.Put("/subjects/{id}/criteria/{criterion}", s.handleUpdateCriterion)
			r.Post("/subjects/{id}/criteria/{criterion}/scores", s.handleAddScore)
			r.Delete("/subjects/{id}/criteria/{criterion}/scores/{index}", s.handleRemoveScore)
			r.Post("/reset", s.handleReset)
		})
	})

	return r
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	respondError(w, r, http.StatusTooManyRequests, "Too many requests, try again shortly")
}

// Shutdown stops the limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) recordMutation() {
	atomic.AddInt64(&s.metrics.mutations, 1)
}
