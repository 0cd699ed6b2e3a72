package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vidforge/internal/adapter/repo"
	"vidforge/internal/billing"
	"vidforge/internal/generation"
	"vidforge/internal/http/handlers"
	"vidforge/internal/http/httpapi"
	"vidforge/internal/infra"
	"vidforge/internal/middleware"
	"vidforge/internal/provider"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect database")
		return err
	}
	defer pool.Close()

	jobs := repo.NewJobRepository(pool)
	models := repo.NewModelRepository(pool)
	credits := repo.NewCreditRepository(pool)
	payments := repo.NewPaymentRepository(pool)

	predictions := provider.NewClient(provider.Options{
		BaseURL: cfg.ProviderBaseURL,
		Token:   cfg.ProviderToken,
		Timeout: cfg.ProviderTimeout,
	})

	biller := billing.NewService(credits, payments, logger)
	svc := generation.NewService(generation.ServiceOptions{
		Jobs:        jobs,
		Models:      models,
		Predictions: predictions,
		Biller:      biller,
		Logger:      logger,
	})

	app := &handlers.App{
		Generation:    svc,
		Billing:       biller,
		Models:        models,
		Logger:        logger,
		WebhookSecret: cfg.PaymentWebhookSecret,
		Debug:         cfg.IsDevelopment(),
	}

	var limiter middleware.Limiter
	if rdb := infra.NewRedisClient(cfg); rdb != nil {
		defer rdb.Close()
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimitPerMin, time.Minute)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("rate limiting via redis")
	} else {
		limiter = middleware.NewMemoryLimiter(cfg.RateLimitPerMin, time.Minute)
	}

	router := httpapi.NewRouter(app, cfg, logger, limiter)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
