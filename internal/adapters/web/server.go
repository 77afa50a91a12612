package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shelldog/twitter-crawler/internal/core/domain"
)

// Server exposes the operational surface of a run: liveness, metrics
// and the last run's statistics. It serves no aggregated vulnerability
// data; reporting lives outside this process.
type Server struct {
	addr string
	log  *slog.Logger
	srv  *http.Server

	mu    sync.RWMutex
	stats *domain.RunStats
}

// NewServer creates the ops server for addr.
func NewServer(addr string, log *slog.Logger) *Server {
	s := &Server{
		addr: addr,
		log:  log.With("component", "web"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, "ops"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// PublishStats makes stats available on /api/stats.
func (s *Server) PublishStats(stats domain.RunStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = &stats
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		s.log.Info("ops server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	stats := s.stats
	s.mu.RUnlock()

	if stats == nil {
		http.Error(w, "no completed run yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.log.Error("encoding stats", "error", err)
	}
}
