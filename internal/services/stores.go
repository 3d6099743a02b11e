package services

import (
	"context"

	"github.com/creator-ads/backend/internal/models"
	"github.com/creator-ads/backend/internal/platform"
	"github.com/creator-ads/backend/internal/repositories"
	"github.com/google/uuid"
)

// Consumer-side interfaces over the repositories and the platform client, so
// service logic can be exercised against fakes. The concrete pgx-backed repos
// and *platform.Client satisfy them.

type campaignStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	BeginLaunch(ctx context.Context, id uuid.UUID, fromState string) (bool, error)
	SetLifecycleResult(ctx context.Context, id uuid.UUID, state string, needsPoll bool, lastError *string, remoteStatus map[string]any) error
	List(ctx context.Context, f repositories.CampaignFilter) ([]models.Campaign, error)
}

type resourceStore interface {
	GetByLogicalKey(ctx context.Context, ownerID uuid.UUID, resourceType, name string) (*models.RemoteResource, error)
	Create(ctx context.Context, res *models.RemoteResource) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type decisionStore interface {
	Create(ctx context.Context, d *models.Decision) error
}

type auditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

type credentialResolver interface {
	Resolve(ctx context.Context, ownerID uuid.UUID) (platform.Credentials, error)
}

type platformAPI interface {
	GetObjectStatus(ctx context.Context, creds platform.Credentials, id string) (*platform.ObjectStatus, error)
	GetObject(ctx context.Context, creds platform.Credentials, id string, fields []string) (map[string]any, error)
	UpdateObjectStatus(ctx context.Context, creds platform.Credentials, id, status string) error
	CreateObject(ctx context.Context, creds platform.Credentials, parent, collection string, payload map[string]any) (string, error)
}
