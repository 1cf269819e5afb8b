// Package web assembles the HTTP server around the search service.
package web

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/postal-lookup/internal/search"
	"github.com/postal-lookup/internal/web/handlers"
	"github.com/postal-lookup/internal/web/middleware"
)

// Server owns the router, the middleware stack and the listener lifecycle.
type Server struct {
	cfg     Config
	log     *log.Logger
	router  *mux.Router
	http    *http.Server
	limiter *middleware.RateLimiter
}

// New wires routes and middleware. The server is ready to Run afterwards.
func New(cfg Config, svc *search.Service, logger *log.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		log:    logger,
		router: mux.NewRouter(),
	}

	h := handlers.New(svc, logger)
	h.MaxBatchItems = cfg.MaxBatchItems

	s.router.Use(middleware.Logging(logger))
	s.router.Use(middleware.CORS(cfg.CORSOrigin))

	s.router.HandleFunc("/", h.Index).Methods(http.MethodGet, http.MethodOptions)

	api := s.router.PathPrefix("/api").Subrouter()
	if cfg.RateLimitRPS > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		api.Use(s.limiter.Middleware())
	}
	api.HandleFunc("/lookup", h.Lookup).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/search/batch", h.Batch).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/suggest", h.Suggest).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/validate", h.Validate).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/nearby", h.Nearby).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/stats", h.Stats).Methods(http.MethodGet, http.MethodOptions)

	s.http = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler exposes the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases background resources without serving. Run does this on its
// own; Close exists for callers that never reach Run.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// Run serves until SIGINT/SIGTERM or a listener error, then drains in-flight
// requests within the shutdown timeout.
func (s *Server) Run() error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		s.log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.http.Shutdown(ctx)
}
