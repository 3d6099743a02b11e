package handlers

import (
	"strconv"

	"github.com/creator-ads/backend/internal/http/dto"
	"github.com/creator-ads/backend/internal/middleware"
	"github.com/creator-ads/backend/internal/models"
	"github.com/creator-ads/backend/internal/repositories"
	"github.com/creator-ads/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DecisionHandler struct {
	decisionService *services.DecisionService
	decisionRepo    *repositories.DecisionRepo
	log             *zap.Logger
}

func NewDecisionHandler(decisionService *services.DecisionService, decisionRepo *repositories.DecisionRepo, log *zap.Logger) *DecisionHandler {
	return &DecisionHandler{decisionService: decisionService, decisionRepo: decisionRepo, log: log}
}

// Decide computes a recommended action from a performance score and persists
// it as a pending decision.
func (h *DecisionHandler) Decide(c *fiber.Ctx) error {
	var req dto.DecideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	if req.Score.Score < 0 || req.Score.Score > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "score must be between 0 and 100"})
	}
	campaignID, err := uuid.Parse(req.Context.CampaignID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign_id"})
	}

	score := models.Score{
		Score:      req.Score.Score,
		Grade:      req.Score.Grade,
		Confidence: req.Score.Confidence,
		Reasons:    req.Score.Reasons,
	}
	dctx := services.DecisionContext{
		CampaignID:     campaignID,
		AutomationMode: req.Context.AutomationMode,
		CurrentBudget:  req.Context.CurrentBudget,
		BudgetCap:      req.Context.BudgetCap,
		DaysRunning:    req.Context.DaysRunning,
	}

	ownerID := middleware.GetOwnerID(c)
	decision := h.decisionService.DecideAndLog(c.Context(), ownerID, score, dctx)

	return c.JSON(dto.SuccessResponse{OK: true, Data: decision})
}

func (h *DecisionHandler) ListDecisions(c *fiber.Ctx) error {
	ownerID := middleware.GetOwnerID(c)

	var campaignID *uuid.UUID
	if v := c.Query("campaign_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign_id"})
		}
		campaignID = &id
	}

	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	decisions, err := h.decisionRepo.ListByOwner(c.Context(), ownerID, campaignID, limit, offset)
	if err != nil {
		h.log.Error("list decisions failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: decisions})
}
