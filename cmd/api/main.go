package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creator-ads/backend/internal/config"
	"github.com/creator-ads/backend/internal/db"
	"github.com/creator-ads/backend/internal/events"
	internalhttp "github.com/creator-ads/backend/internal/http"
	"github.com/creator-ads/backend/internal/http/handlers"
	"github.com/creator-ads/backend/internal/platform"
	"github.com/creator-ads/backend/internal/poller"
	"github.com/creator-ads/backend/internal/repositories"
	"github.com/creator-ads/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	campaignRepo := repositories.NewCampaignRepo(pool)
	resourceRepo := repositories.NewResourceRepo(pool)
	decisionRepo := repositories.NewDecisionRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	credentialRepo := repositories.NewCredentialRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Platform client
	apiClient := platform.NewClient(
		cfg.PlatformBaseURL,
		cfg.PlatformMaxRetries,
		time.Duration(cfg.PlatformBackoffMS)*time.Millisecond,
		time.Duration(cfg.PlatformBackoffCap)*time.Millisecond,
		log,
	)
	clk := poller.NewClock()

	// Services
	credentialService := services.NewCredentialService(credentialRepo, cfg.CredentialCacheTTL, log)
	campaignService := services.NewCampaignService(campaignRepo, auditRepo, log)
	lifecycleService := services.NewLifecycleService(campaignRepo, credentialService, apiClient, auditRepo, publisher, clk, cfg, log)
	syncService := services.NewSyncService(campaignRepo, credentialService, apiClient, auditRepo, publisher, cfg, log)
	provisionService := services.NewProvisionService(resourceRepo, credentialService, apiClient, auditRepo, publisher, clk, cfg, log)
	decisionService := services.NewDecisionService(decisionRepo, publisher, log)

	// Handlers
	campaignHandler := handlers.NewCampaignHandler(campaignService, lifecycleService, syncService, auditRepo, log)
	audienceHandler := handlers.NewAudienceHandler(provisionService, log)
	decisionHandler := handlers.NewDecisionHandler(decisionService, decisionRepo, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)
	wsHub.Start(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	internalhttp.SetupRouter(app, cfg, log, rdb, campaignHandler, audienceHandler, decisionHandler, wsHub)

	go func() {
		log.Info("api server starting", zap.String("port", cfg.APIPort))
		if err := app.Listen(":" + cfg.APIPort); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
