package http

import (
	"time"

	"github.com/creator-ads/backend/internal/config"
	"github.com/creator-ads/backend/internal/http/handlers"
	"github.com/creator-ads/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	campaignHandler *handlers.CampaignHandler,
	audienceHandler *handlers.AudienceHandler,
	decisionHandler *handlers.DecisionHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Campaigns
	protected.Post("/campaigns", campaignHandler.CreateCampaign)
	protected.Get("/campaigns", campaignHandler.ListCampaigns)
	protected.Post("/campaigns/sync", campaignHandler.SyncCampaigns)
	protected.Get("/campaigns/:id", campaignHandler.GetCampaign)
	protected.Put("/campaigns/:id", campaignHandler.UpdateCampaign)
	protected.Post("/campaigns/:id/launch", campaignHandler.LaunchCampaign)
	protected.Post("/campaigns/:id/pause", campaignHandler.PauseCampaign)
	protected.Post("/campaigns/:id/resume", campaignHandler.ResumeCampaign)
	protected.Post("/campaigns/:id/sync", campaignHandler.SyncCampaign)
	protected.Get("/campaigns/:id/audit", campaignHandler.GetAuditTrail)

	// Remote resource provisioning
	protected.Post("/audiences/ensure", audienceHandler.EnsureAudiences)
	protected.Post("/lookalikes/ensure", audienceHandler.EnsureLookalike)
	protected.Post("/videos/ensure", audienceHandler.EnsureVideo)

	// Decisions
	protected.Post("/decisions", decisionHandler.Decide)
	protected.Get("/decisions", decisionHandler.ListDecisions)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
