package handlers

import (
	"github.com/creator-ads/backend/internal/http/dto"
	"github.com/creator-ads/backend/internal/middleware"
	"github.com/creator-ads/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AudienceHandler struct {
	provisionService *services.ProvisionService
	log              *zap.Logger
}

func NewAudienceHandler(provisionService *services.ProvisionService, log *zap.Logger) *AudienceHandler {
	return &AudienceHandler{provisionService: provisionService, log: log}
}

// EnsureAudiences provisions one audience per seed type. Partial failure is a
// normal outcome: successes and per-item errors come back together.
func (h *AudienceHandler) EnsureAudiences(c *fiber.Ctx) error {
	var req dto.EnsureAudiencesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if len(req.SeedTypes) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "seed_types is required"})
	}

	ownerID := middleware.GetOwnerID(c)
	result := h.provisionService.EnsureAudiences(c.Context(), ownerID, req.GoalKey, req.SeedTypes)

	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

func (h *AudienceHandler) EnsureLookalike(c *fiber.Ctx) error {
	var req dto.EnsureLookalikeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.SeedType == "" || req.Country == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "seed_type and country are required"})
	}
	if req.Percent <= 0 || req.Percent > 20 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "percent must be between 1 and 20"})
	}

	ownerID := middleware.GetOwnerID(c)
	res, source, err := h.provisionService.EnsureLookalike(c.Context(), ownerID, req.GoalKey, req.SeedType, req.Percent, req.Country)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"resource": res,
		"source":   source,
	}})
}

func (h *AudienceHandler) EnsureVideo(c *fiber.Ctx) error {
	var req dto.EnsureVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Name == "" || req.VideoURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "name and video_url are required"})
	}

	ownerID := middleware.GetOwnerID(c)
	res, source, err := h.provisionService.EnsureVideo(c.Context(), ownerID, req.Name, req.VideoURL)
	if err != nil {
		if res != nil {
			// Created but not yet processed; the caller can poll again later.
			return c.Status(fiber.StatusAccepted).JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
				"resource": res,
				"source":   source,
				"warning":  err.Error(),
			}})
		}
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"resource": res,
		"source":   source,
	}})
}
