// Package server exposes the status endpoints of a running gitcord process.
//
// Routes:
//
//	GET /healthz       database reachability
//	GET /leaderboard   contributor scores, highest first
//	GET /cycles/last   report of the most recent sync cycle
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/naka-gawa/gitcord/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CycleReporter returns the last completed sync cycle, if any.
type CycleReporter interface {
	LastReport() (usecase.CycleReport, bool)
}

// Server is the status HTTP server.
type Server struct {
	addr   string
	router *chi.Mux
	db     Pinger
	users  usecase.UserStore
	cycles CycleReporter
	logger *zap.Logger
}

// New builds the router. The server does not listen until Run is called.
func New(addr string, db Pinger, users usecase.UserStore, cycles CycleReporter, logger *zap.Logger) *Server {
	s := &Server{
		addr:   addr,
		router: chi.NewRouter(),
		db:     db,
		users:  users,
		cycles: cycles,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(requestLogger(s.logger))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/leaderboard", s.handleLeaderboard)
	s.router.Get("/cycles/last", s.handleLastCycle)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("status server starting", zap.String("addr", s.addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("status server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := usecase.Leaderboard(r.Context(), s.users)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleLastCycle(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.cycles.LastReport()
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "no sync cycle has completed yet"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}
