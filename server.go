package archserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/jirevwe/archserver/config"
	"github.com/jirevwe/archserver/pool"
	"github.com/jirevwe/archserver/store"
	"github.com/jirevwe/archserver/store/sqlite"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server accepts connections and hands each one to a worker pool. It owns
// the pool for as long as Serve runs.
type Server struct {
	cfg     config.Config
	mux     Handler
	store   store.AccessLog
	logger  *slog.Logger
	metrics *Metrics

	mu   sync.Mutex
	pool *pool.WorkerPool
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithStore replaces the access log opened from the configuration.
func WithStore(st store.AccessLog) ServerOption {
	return func(s *Server) { s.store = st }
}

// WithMux replaces the default routing table.
func WithMux(h Handler) ServerOption {
	return func(s *Server) { s.mux = h }
}

func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

func NewServer(cfg config.Config, opts ...ServerOption) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	}

	if s.metrics == nil {
		s.metrics = NewMetrics()
	}

	if s.mux == nil {
		m, err := NewRouter(runtime.GOARCH)
		if err != nil {
			return nil, err
		}
		s.mux = m
	}

	if s.store == nil && cfg.AccessLogPath != "" {
		st, err := sqlite.NewSqlite(cfg.AccessLogPath, s.logger)
		if err != nil {
			return nil, fmt.Errorf("cannot open access log: %w", err)
		}
		s.store = st
	}

	return s, nil
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Pool returns the worker pool while Serve is running, nil otherwise.
func (s *Server) Pool() *pool.WorkerPool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool
}

// ListenAndServe binds the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("cannot listen on %s: %w", s.cfg.Addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. On return the listener
// is closed and the pool has been shut down with the configured policy. The
// access log stays open until Close.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	p, err := pool.NewWorkerPool(s.cfg.Workers,
		pool.WithLogger(s.logger),
		pool.WithShutdownPolicy(s.cfg.ShutdownPolicy),
		pool.WithHooks(s.metrics.Hooks()),
	)
	if err != nil {
		_ = ln.Close()
		return err
	}

	s.mu.Lock()
	s.pool = p
	s.mu.Unlock()

	defer func() {
		_ = p.Shutdown()

		s.mu.Lock()
		s.pool = nil
		s.mu.Unlock()
	}()

	if s.cfg.MetricsAddr != "" {
		stopMetrics := s.serveMetrics()
		defer stopMetrics()
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	s.logger.Info("application started", "addr", ln.Addr().String(), "workers", s.cfg.Workers)

	taskCtx := context.WithoutCancel(ctx)
	var delay time.Duration

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Shutting down")
				return nil
			}

			if errors.Is(err, net.ErrClosed) {
				return err
			}

			delay = nextAcceptDelay(delay)
			s.logger.Error("accept failed", "error", err, "retry_in", delay)

			select {
			case <-ctx.Done():
				s.logger.Info("Shutting down")
				return nil
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		task := newConnTask(taskCtx, s, conn)
		if err = p.Execute(task); err != nil {
			s.logger.Error("cannot dispatch connection", "conn_id", task.id, "error", err)
			_ = conn.Close()
		}
	}
}

// Close releases the access log. Call it after Serve has returned.
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *Server) serveMetrics() func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("metrics server starting", "addr", s.cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func nextAcceptDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return minAcceptDelay
	}
	return min(delay*2, maxAcceptDelay)
}
