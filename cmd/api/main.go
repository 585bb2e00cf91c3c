package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Its-SuperNova/duchess-backend-sub004/api/routes"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/catalog"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/checkout"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/cron"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/delivery"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/orders"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/settlement"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/webhooks"
	razorpaywebhook "github.com/Its-SuperNova/duchess-backend-sub004/internal/webhooks/razorpay"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/config"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/metrics"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/migrate"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/razorpay"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := razorpay.NewClient(cfg.Razorpay)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	deliveryRepo := delivery.NewRepository(dbClient.DB())
	ruleCache := delivery.NewRuleCache(cfg.Delivery.RuleCacheTTL)

	feeEngine, err := delivery.NewEngine(deliveryRepo, ruleCache, cfg.Delivery, logg, pipelineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery fee engine", err)
		os.Exit(1)
	}

	validator, err := checkout.NewValidator(catalogRepo, feeEngine)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout validator", err)
		os.Exit(1)
	}

	sessionStore, err := checkout.NewSessionStore(redisClient, cfg.Checkout)
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}

	paymentRepo := orders.NewPaymentRepository(dbClient.DB())
	orderRepo := orders.NewOrderRepository(dbClient.DB())
	factRepo := webhooks.NewRepository(dbClient.DB())

	coordinator, err := settlement.NewCoordinator(
		dbClient, paymentRepo, orderRepo, factRepo,
		sessionStore, validator, redisClient,
		cfg.Checkout, logg, pipelineMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement coordinator", err)
		os.Exit(1)
	}

	webhookProcessor, err := razorpaywebhook.NewProcessor(
		dbClient, paymentRepo, orderRepo, factRepo,
		gateway.WebhookSecret(), logg, pipelineMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook processor", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewPaymentExpiryJob(
		dbClient, paymentRepo, orderRepo,
		cfg.Checkout.PendingPaymentTTL, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment expiry job", err)
		os.Exit(1)
	}
	purgeJob, err := cron.NewWebhookFactPurgeJob(factRepo, cfg.Checkout.WebhookEventTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook fact purge job", err)
		os.Exit(1)
	}
	maintenanceLock, err := cron.NewRedisLock(redisClient, redisClient.MaintenanceLockKey(), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance lock", err)
		os.Exit(1)
	}
	maintenance, err := cron.NewService(cron.ServiceParams{
		Logger: logg,
		Jobs:   []cron.Job{expiryJob, purgeJob},
		Lock:   maintenanceLock,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		if err := maintenance.Run(ctx); err != nil && err != context.Canceled {
			logg.Error(ctx, "maintenance service stopped", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Gateway:     gateway,
			Sessions:    sessionStore,
			Validator:   validator,
			Coordinator: coordinator,
			Webhooks:    webhookProcessor,
			RuleCache:   ruleCache,
			Registry:    registry,
		}),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(logCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
