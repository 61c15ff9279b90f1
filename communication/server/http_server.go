package server

import (
	"context"
	"encoding/json"
	"net/http"
	"tictactoe/communication"
	"tictactoe/gamemaster"
	"tictactoe/ranking"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

type Option func(s *Server)

// WithAdmin sets the basic auth credentials of the admin routes.
func WithAdmin(user, password string) Option {
	return func(s *Server) {
		s.adminUser = user
		s.adminPassword = password
	}
}

// WithWorkers sets the worker count of inline self-play runs.
func WithWorkers(workers int) Option {
	return func(s *Server) {
		s.workers = workers
	}
}

type Server struct {
	gm    *gamemaster.GameMaster
	jobs  *gamemaster.JobQueue
	store ranking.Store

	adminUser     string
	adminPassword string
	workers       int
	router        chi.Router
}

func NewServer(gm *gamemaster.GameMaster, jobs *gamemaster.JobQueue, store ranking.Store, options ...Option) *Server {
	s := &Server{ // Default values
		gm:            gm,
		jobs:          jobs,
		store:         store,
		adminUser:     "admin",
		adminPassword: "admin",
		workers:       1,
	}
	for _, option := range options {
		option(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Tic Tac Toe API"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/new", s.handleNew)
		r.Post("/turn", s.handleTurn)
		r.Get("/state", s.handleState)
		r.Delete("/session", s.handleDeleteSession)

		r.Post("/selfplay", s.handleSelfPlay)
		r.Post("/selfplay/start", s.handleStartJob)
		r.Get("/selfplay/status", s.handleJobStatus)
		r.Post("/selfplay/cancel", s.handleCancelJob)
		r.Get("/selfplay/jobs", s.handleListJobs)
		r.Get("/selfplay/watch", s.handleWatchJob)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.BasicAuth("tictactoe", map[string]string{s.adminUser: s.adminPassword}))
		r.Post("/rankings/reset", s.handleReset)
		r.Get("/rankings/export", s.handleExport)
		r.Post("/rankings/import", s.handleImport)
		r.Get("/stats", s.handleStats)
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	log.Info().Msgf("listening on %s", addr)
	select {
	case <-ctx.Done():
		log.Info().Msgf("shutdown signal received: %v", ctx.Err())
	case err, ok := <-serverErrCh:
		if ok {
			return errors.Wrap(err, "server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return server.Close()
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("handled request")
		}()
		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, communication.ErrorResponse{Code: code, Message: message})
}
