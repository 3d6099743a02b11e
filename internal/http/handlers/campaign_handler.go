package handlers

import (
	"errors"
	"strconv"

	"github.com/creator-ads/backend/internal/http/dto"
	"github.com/creator-ads/backend/internal/middleware"
	"github.com/creator-ads/backend/internal/models"
	"github.com/creator-ads/backend/internal/platform"
	"github.com/creator-ads/backend/internal/repositories"
	"github.com/creator-ads/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CampaignHandler struct {
	campaignService  *services.CampaignService
	lifecycleService *services.LifecycleService
	syncService      *services.SyncService
	auditRepo        *repositories.AuditRepo
	log              *zap.Logger
}

func NewCampaignHandler(
	campaignService *services.CampaignService,
	lifecycleService *services.LifecycleService,
	syncService *services.SyncService,
	auditRepo *repositories.AuditRepo,
	log *zap.Logger,
) *CampaignHandler {
	return &CampaignHandler{
		campaignService:  campaignService,
		lifecycleService: lifecycleService,
		syncService:      syncService,
		auditRepo:        auditRepo,
		log:              log,
	}
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	if req.Name == "" || req.Objective == "" || req.DailyBudget <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "name, objective, and daily_budget are required"})
	}

	campaign := &models.Campaign{
		Name:        req.Name,
		Objective:   req.Objective,
		DailyBudget: req.DailyBudget,
		BudgetCap:   req.BudgetCap,
		GroupID:     parseOptionalUUID(req.GroupID),
	}

	ownerID := middleware.GetOwnerID(c)
	if err := h.campaignService.Create(c.Context(), ownerID, campaign); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	ownerID := middleware.GetOwnerID(c)
	campaign, err := h.campaignService.GetByID(c.Context(), id, ownerID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "campaign not found"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	ownerID := middleware.GetOwnerID(c)
	filter := repositories.CampaignFilter{
		Limit:  20,
		Offset: 0,
	}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	if v := c.Query("state"); v != "" {
		filter.State = &v
	}

	campaigns, err := h.campaignService.List(c.Context(), ownerID, filter)
	if err != nil {
		h.log.Error("list campaigns failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: campaigns})
}

func (h *CampaignHandler) UpdateCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	var req dto.UpdateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	campaign := &models.Campaign{
		Name:             req.Name,
		Objective:        req.Objective,
		DailyBudget:      req.DailyBudget,
		BudgetCap:        req.BudgetCap,
		GroupID:          parseOptionalUUID(req.GroupID),
		RemoteCampaignID: req.RemoteCampaignID,
		RemoteAdSetID:    req.RemoteAdSetID,
		RemoteAdID:       req.RemoteAdID,
	}

	ownerID := middleware.GetOwnerID(c)
	if err := h.campaignService.Update(c.Context(), id, ownerID, campaign); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	updated, _ := h.campaignService.GetByID(c.Context(), id, ownerID)
	return c.JSON(dto.SuccessResponse{OK: true, Data: updated})
}

// LaunchCampaign drives a lifecycle transition. Fatal errors surface as user
// messages; retryable and unverified outcomes come back as "still processing".
func (h *CampaignHandler) LaunchCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	var req dto.LaunchCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Mode == "" {
		req.Mode = services.ModeActive
	}

	ownerID := middleware.GetOwnerID(c)
	result, err := h.lifecycleService.Launch(c.Context(), ownerID, id, req.Mode, req.StartTime)
	if err != nil {
		return h.lifecycleError(c, err)
	}

	if result.NeedsPoll {
		return c.Status(fiber.StatusAccepted).JSON(dto.StillProcessingResponse{
			OK:             true,
			Status:         "verifying",
			LifecycleState: result.LifecycleState,
			NeedsPoll:      true,
		})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

func (h *CampaignHandler) PauseCampaign(c *fiber.Ctx) error {
	return h.toggle(c, services.ModePaused)
}

func (h *CampaignHandler) ResumeCampaign(c *fiber.Ctx) error {
	return h.toggle(c, services.ModeActive)
}

func (h *CampaignHandler) toggle(c *fiber.Ctx, mode string) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	ownerID := middleware.GetOwnerID(c)
	result, err := h.lifecycleService.Launch(c.Context(), ownerID, id, mode, nil)
	if err != nil {
		return h.lifecycleError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

func (h *CampaignHandler) lifecycleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrCampaignNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "campaign not found"})
	case errors.Is(err, services.ErrMissingRemoteIDs), errors.Is(err, services.ErrInvalidMode):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrConcurrentLifecycleOp):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
	case platform.IsRetryable(err):
		// failLaunch kept the campaign launching with needs_poll set; the
		// reconciler finishes the job once the throttle clears.
		return c.Status(fiber.StatusAccepted).JSON(dto.StillProcessingResponse{
			OK:             true,
			Status:         "throttled, queued for retry",
			LifecycleState: models.LifecycleLaunching,
			NeedsPoll:      true,
		})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: err.Error()})
	}
}

func (h *CampaignHandler) SyncCampaign(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	ownerID := middleware.GetOwnerID(c)
	result, err := h.syncService.Sync(c.Context(), services.SyncFilter{
		OwnerID:    &ownerID,
		CampaignID: &id,
	})
	if err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "campaign not found"})
		}
		h.log.Error("sync campaign failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

func (h *CampaignHandler) SyncCampaigns(c *fiber.Ctx) error {
	var req dto.SyncCampaignsRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	ownerID := middleware.GetOwnerID(c)
	filter := services.SyncFilter{
		OwnerID: &ownerID,
		GroupID: parseOptionalUUID(req.GroupID),
	}

	result, err := h.syncService.Sync(c.Context(), filter)
	if err != nil {
		h.log.Error("sync campaigns failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

func (h *CampaignHandler) GetAuditTrail(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign id"})
	}

	ownerID := middleware.GetOwnerID(c)
	if _, err := h.campaignService.GetByID(c.Context(), id, ownerID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "campaign not found"})
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

	logs, err := h.auditRepo.GetByEntity(c.Context(), "campaign", id, limit, offset)
	if err != nil {
		h.log.Error("audit trail failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}

func parseOptionalUUID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}
