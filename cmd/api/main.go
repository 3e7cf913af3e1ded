package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/billing"
	"server/internal/db"
	"server/internal/domain"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/service"
	"server/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlRunner := infra.NewSQLRunner(dbpool, logger)
	if err := db.EnsureSchema(ctx, sqlRunner); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	accounts := repo.NewAccountRepository(sqlRunner, cfg.InitialCredits)
	events := repo.NewBillingEventRepository(sqlRunner)

	runner := worker.NewRunner(cfg.WorkerCommand, cfg.WorkerScript, cfg.WorkerDir)
	gate := service.NewGate()
	generator := service.NewGenerator(accounts, runner, gate, cfg.CreditCost, logger)

	provider := billing.NewStripeProvider(cfg.StripeSecretKey, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	prices := map[string]domain.Plan{
		cfg.StripePriceMonthly: domain.PlanMonthly,
		cfg.StripePriceAnnual:  domain.PlanAnnual,
	}
	reconciler := service.NewReconciler(accounts, events, prices, cfg.CheckoutCredits, logger)
	plans := service.NewPlans(accounts, provider, logger)

	app := &handlers.App{
		Logger:        logger,
		Generator:     generator,
		Reconciler:    reconciler,
		Plans:         plans,
		Provider:      provider,
		WebhookSecret: cfg.StripeWebhookSecret,
		PriceMonthly:  cfg.StripePriceMonthly,
		PriceAnnual:   cfg.StripePriceAnnual,
	}

	router := httpapi.NewRouter(cfg, logger, app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
