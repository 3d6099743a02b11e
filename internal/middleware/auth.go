package middleware

import (
	"strings"

	"github.com/creator-ads/backend/internal/auth"
	"github.com/creator-ads/backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CtxOwnerID = "owner_id"

// AuthMiddleware is the identity-service boundary: it maps the request
// credential to an owner id and nothing more.
func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxOwnerID, claims.OwnerID)
		return c.Next()
	}
}

func GetOwnerID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxOwnerID).(uuid.UUID)
	return id
}
