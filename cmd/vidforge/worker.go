package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vidforge/internal/adapter/repo"
	"vidforge/internal/billing"
	"vidforge/internal/generation"
	"vidforge/internal/infra"
	"vidforge/internal/provider"
	"vidforge/internal/worker"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background status reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker()
		},
	}
}

func runWorker() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("worker: db connection failed")
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

	svc := generation.NewService(generation.ServiceOptions{
		Jobs:        jobs,
		Models:      models,
		Predictions: predictions,
		Biller:      billing.NewService(credits, payments, logger),
		Logger:      logger,
	})

	rec := worker.NewReconciler(worker.ReconcilerOptions{
		Jobs:       jobs,
		Generation: svc,
		Logger:     logger,
		Interval:   cfg.ReconcileInterval,
		StaleAfter: cfg.ReconcileStaleAfter,
	})
	rec.Run(ctx)
	return nil
}
