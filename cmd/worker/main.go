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
	"github.com/creator-ads/backend/internal/platform"
	"github.com/creator-ads/backend/internal/repositories"
	"github.com/creator-ads/backend/internal/services"
	"go.uber.org/zap"
)

// The worker runs the reconciliation loops: a slow full sweep over all
// non-terminal campaigns, and a fast sweep over campaigns flagged needs_poll
// by an unverified launch.
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

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	campaignRepo := repositories.NewCampaignRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	credentialRepo := repositories.NewCredentialRepo(pool)
	publisher := events.NewRedisPublisher(rdb, log)

	apiClient := platform.NewClient(
		cfg.PlatformBaseURL,
		cfg.PlatformMaxRetries,
		time.Duration(cfg.PlatformBackoffMS)*time.Millisecond,
		time.Duration(cfg.PlatformBackoffCap)*time.Millisecond,
		log,
	)

	credentialService := services.NewCredentialService(credentialRepo, cfg.CredentialCacheTTL, log)
	syncService := services.NewSyncService(campaignRepo, credentialService, apiClient, auditRepo, publisher, cfg, log)

	go runSyncLoop(ctx, syncService, cfg, log)
	go runNeedsPollLoop(ctx, syncService, cfg, log)

	log.Info("worker started",
		zap.Duration("sync_interval", cfg.SyncInterval),
		zap.Duration("needs_poll_interval", cfg.NeedsPollInterval))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("worker shutting down")
	cancel()
}

func runSyncLoop(ctx context.Context, syncService *services.SyncService, cfg *config.Config, log *zap.Logger) {
	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := syncService.Sync(ctx, services.SyncFilter{})
			if err != nil {
				log.Error("sync sweep failed", zap.Error(err))
				continue
			}
			log.Info("sync sweep completed", zap.Int("synced", result.Synced))
		}
	}
}

func runNeedsPollLoop(ctx context.Context, syncService *services.SyncService, cfg *config.Config, log *zap.Logger) {
	ticker := time.NewTicker(cfg.NeedsPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := syncService.Sync(ctx, services.SyncFilter{NeedsPollOnly: true})
			if err != nil {
				log.Error("needs_poll sweep failed", zap.Error(err))
				continue
			}
			if result.Synced > 0 {
				log.Info("needs_poll sweep completed", zap.Int("synced", result.Synced))
			}
		}
	}
}
