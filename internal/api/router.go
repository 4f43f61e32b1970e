package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mvidal/phishguard/internal/config"
)

// Server exposes the analysis pipeline and threat-intel lookups over HTTP.
type Server struct {
	cfg      config.APIConfig
	handlers *Handlers
	logger   *zap.Logger
	srv      *http.Server
}

// NewServer creates a new HTTP API server.
func NewServer(cfg config.APIConfig, h *Handlers, logger *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		handlers: h,
		logger:   logger,
	}
}

// Routes builds the Chi router with all routes and middleware.
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/status", s.handlers.Status)
	router.Post("/analyze", s.handlers.Analyze)
	router.Get("/emails", s.handlers.ListEmails)
	router.Delete("/emails", s.handlers.ClearEmails)
	router.Get("/emails/{id}", s.handlers.GetEmail)
	router.Post("/osint/scan", s.handlers.OsintScan)
	router.Get("/osint/summary", s.handlers.OsintSummary)
	router.Get("/model/info", s.handlers.ModelInfo)

	return router
}

// Start starts the HTTP server in a background goroutine.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.cfg.ListenAddress,
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	s.logger.Info("HTTP API starting", zap.String("address", s.cfg.ListenAddress))

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
