package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/nkiryanov/ridehail/internal/db"
	"github.com/nkiryanov/ridehail/internal/handlers"
	"github.com/nkiryanov/ridehail/internal/handlers/middleware"
	"github.com/nkiryanov/ridehail/internal/idempotency"
	"github.com/nkiryanov/ridehail/internal/logger"
	"github.com/nkiryanov/ridehail/internal/repository/postgres"
	"github.com/nkiryanov/ridehail/internal/service/account"
	"github.com/nkiryanov/ridehail/internal/service/auth"
	"github.com/nkiryanov/ridehail/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/ridehail/internal/service/ride"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Release connections, called in reverse order
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (_ *ServerApp, err error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: l}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	accountService := account.NewService(auth.DefaultHasher, storage, c.OperationTimeout)
	rideService := ride.NewService(ride.Config{OperationTimeout: c.OperationTimeout}, storage, l)
	authService, err := auth.NewService(auth.Config{}, tokenManager, accountService)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	var opts []handlers.Option
	if c.RedisAddr != "" {
		client, err := idempotency.Connect(ctx, c.RedisAddr)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		opts = append(opts, handlers.WithIdempotency(idempotency.NewRedisStore(client)))
	} else {
		l.Warn("redis address is not set, Idempotency-Key header is ignored")
	}
	if c.RateLimit > 0 {
		opts = append(opts, handlers.WithRateLimiter(middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(c.RateLimit),
			Burst: c.RateBurst,
		})))
	}

	app.Handler = handlers.NewRouter(authService, accountService, rideService, l, opts...)
	return app, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
