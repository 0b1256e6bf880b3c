// Package api exposes the engine over JSON/HTTP and provides the matching client.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/idealoop/ideas/internal/engine"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the ideas HTTP API.
type Server struct {
	engine     *engine.Engine
	health     Pinger
	logger     *slog.Logger
	addr       string
	httpServer *http.Server
	listener   net.Listener
	mu         sync.RWMutex
}

// NewServer creates a server for eng. health is pinged by GET /health.
func NewServer(eng *engine.Engine, health Pinger, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{engine: eng, health: health, addr: addr, logger: logger}
}

// Handler returns the routed handler with request-id and access-log middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/ideas", s.handleCreate)
	mux.HandleFunc("GET /api/ideas", s.handleList)
	mux.HandleFunc("GET /api/ideas/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/ideas/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/ideas/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/ideas/{id}/execute", s.handleExecute)
	mux.HandleFunc("POST /api/ideas/{id}/cancel", s.handleCancel)
	mux.HandleFunc("POST /api/ideas/{id}/messages", s.handleReply)
	mux.HandleFunc("GET /api/ideas/{id}/messages", s.handleMessages)
	mux.HandleFunc("GET /api/ideas/{id}/verify", s.handleVerify)

	mux.HandleFunc("GET /api/agent/poll", s.handlePoll)
	mux.HandleFunc("POST /api/agent/claim/{id}", s.handleClaim)
	mux.HandleFunc("POST /api/agent/start/{id}", s.handleStart)
	mux.HandleFunc("POST /api/agent/feedback/{id}", s.handleFeedback)
	mux.HandleFunc("POST /api/agent/ask/{id}", s.handleAsk)
	mux.HandleFunc("POST /api/agent/complete/{id}", s.handleComplete)
	mux.HandleFunc("POST /api/agent/fail/{id}", s.handleFail)

	return s.withRequestLog(mux)
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address once listening, else the configured one.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.health.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeError renders err with the status code for its kind.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, body := classify(err)
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path,
			"request_id", w.Header().Get(RequestIDHeader), "error", err)
	}
	writeJSON(w, code, body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", id,
		)
	})
}
