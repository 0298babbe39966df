package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ppiankov/parcelscore/internal/model"
	"github.com/ppiankov/parcelscore/internal/store"
)

// Engine is the scoring surface the API serves. *pipeline.Pipeline implements it.
type Engine interface {
	AggregateWithNarrative(ctx context.Context, req model.AggregationRequest) (*model.AggregationResponse, error)
	Match(c model.PropertyCandidate, prefs model.ScoringPreferences, u model.UserContext) (model.PropertyScore, error)
	Rank(candidates []model.PropertyCandidate, prefs model.ScoringPreferences, u model.UserContext) ([]model.PropertyScore, error)
}

// Server represents the HTTP API server
type Server struct {
	config model.ServerConfig
	router *chi.Mux
	engine Engine
	prefs  *store.Store
	logger *slog.Logger
}

// NewServer creates a new API server
func NewServer(cfg model.ServerConfig, engine Engine, prefs *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: cfg,
		engine: engine,
		prefs:  prefs,
		logger: logger,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/aggregate", s.handleAggregate)
		r.Post("/match", s.handleMatch)
		r.Post("/rank", s.handleRank)

		r.Get("/presets", s.handleListPresets)

		r.Route("/preferences/{userID}", func(r chi.Router) {
			r.Get("/", s.handleGetPreferences)
			r.Put("/", s.handlePutPreferences)
			r.Delete("/", s.handleDeletePreferences)
			r.Post("/presets/{name}", s.handleApplyPreset)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
