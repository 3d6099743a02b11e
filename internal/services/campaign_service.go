package services

import (
	"context"

	"github.com/creator-ads/backend/internal/models"
	"github.com/creator-ads/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type campaignCRUD interface {
	campaignStore
	Create(ctx context.Context, c *models.Campaign) error
	UpdateDraft(ctx context.Context, c *models.Campaign) error
}

// CampaignService handles owner-scoped campaign CRUD. Lifecycle state is
// never mutated here; that belongs to LifecycleService and SyncService.
type CampaignService struct {
	campaigns campaignCRUD
	audit     auditLogger
	log       *zap.Logger
}

func NewCampaignService(campaigns campaignCRUD, audit auditLogger, log *zap.Logger) *CampaignService {
	return &CampaignService{campaigns: campaigns, audit: audit, log: log}
}

func (s *CampaignService) Create(ctx context.Context, ownerID uuid.UUID, c *models.Campaign) error {
	c.OwnerID = ownerID
	c.LifecycleState = models.LifecycleDraft

	if err := s.campaigns.Create(ctx, c); err != nil {
		return err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		OwnerID:    &ownerID,
		ActorType:  "user",
		Action:     "campaign_created",
		EntityType: "campaign",
		EntityID:   &c.ID,
		Success:    true,
	})
	return nil
}

func (s *CampaignService) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, ErrCampaignNotFound
	}
	if c.OwnerID != ownerID {
		return nil, ErrCampaignNotFound
	}
	return c, nil
}

func (s *CampaignService) List(ctx context.Context, ownerID uuid.UUID, f repositories.CampaignFilter) ([]models.Campaign, error) {
	f.OwnerID = &ownerID
	return s.campaigns.List(ctx, f)
}

// Update edits draft fields, including the remote id triple once the
// publishing flow assigns it. The lifecycle state is left untouched.
func (s *CampaignService) Update(ctx context.Context, id, ownerID uuid.UUID, c *models.Campaign) error {
	existing, err := s.GetByID(ctx, id, ownerID)
	if err != nil {
		return err
	}

	c.ID = existing.ID
	c.OwnerID = existing.OwnerID
	return s.campaigns.UpdateDraft(ctx, c)
}
