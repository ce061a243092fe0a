package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"finsheets/internal/api"
	"finsheets/internal/cache"
	"finsheets/internal/log"
	"finsheets/internal/middleware/ratelimit"
	"finsheets/internal/middleware/security"
	"finsheets/internal/middleware/trace"
	"finsheets/internal/sheets"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	sheetsCacheSize     = 256
	cacheSweepInterval  = time.Minute
	maxRequestBodyBytes = 1 << 20
)

// Options tune the server; zero values fall back to defaults.
type Options struct {
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	SheetsCacheTTL     time.Duration
	Logger             *log.Logger
}

// Server exposes a sheets.Store over the REST surface.
type Server struct {
	http.Server

	store  sheets.Store
	logger *log.Logger

	// GET /sheets results keyed by tenant; nil when caching is disabled.
	sheetsCache  *cache.LRUCache[[]api.SheetResponse]
	cacheManager *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
}

// NewServer builds the router around store. When store also implements
// sheets.Pinger, /readyz reports its health.
func NewServer(addr string, store sheets.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		store:    store,
		logger:   logger,
		detector: security.NewDetector(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	if opts.SheetsCacheTTL > 0 {
		s.sheetsCache = cache.NewLRUCache[[]api.SheetResponse](sheetsCacheSize, opts.SheetsCacheTTL)
		s.cacheManager = cache.NewManager(logger)
		s.cacheManager.Register(s.sheetsCache)
		s.cacheManager.StartCleanup(cacheSweepInterval)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(opts.CORSAllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(log.Middleware(s.logger))
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", trace.RequestIDHeader},
		ExposedHeaders: []string{trace.RequestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited))
		r.Use(middleware.AllowContentType("application/json"))

		r.Route("/sheets", func(r chi.Router) {
			r.Get("/", s.handleListSheets)
			r.Post("/", s.handleCreateSheet)
			r.Delete("/{id}", s.handleDeleteSheet)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Post("/", s.handleCreateEntry)
			r.Put("/", s.handleUpdateEntry)
			r.Patch("/{id}", s.handlePatchEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// Shutdown drains requests, then stops background sweepers.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)
	s.limiter.Stop()
	if s.cacheManager != nil {
		s.cacheManager.Stop()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
