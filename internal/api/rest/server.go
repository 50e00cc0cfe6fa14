package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/auditgate/expense-fraud-engine/internal/history"
	"github.com/auditgate/expense-fraud-engine/internal/infrastructure/config"
	"github.com/auditgate/expense-fraud-engine/internal/service/fraud"
)

// Server is the HTTP front of the scoring engine
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer wires the handler set, middleware chain and routes
func NewServer(cfg *config.Config, svc fraud.Service, store history.Store, logger *zap.Logger) *Server {
	handler := NewHandler(svc, store, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/expenses/score", handler.scoreExpense)
	mux.HandleFunc("POST /api/v1/expenses/score-batch", handler.scoreBatch)
	mux.HandleFunc("GET /healthz", handler.healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	limiter := rate.NewLimiter(
		rate.Limit(cfg.Server.RateLimit.RequestsPerSecond),
		cfg.Server.RateLimit.BurstSize)

	root := chain(mux,
		recoveryMiddleware(logger),
		requestIDMiddleware,
		loggingMiddleware(logger),
		rateLimitMiddleware(limiter),
	)

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      root,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: logger,
	}
}

// Start serves until the context is cancelled or a shutdown signal arrives,
// then drains in-flight requests within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
