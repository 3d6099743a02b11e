package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creator-ads/backend/internal/config"
	"github.com/creator-ads/backend/internal/events"
	"github.com/creator-ads/backend/internal/models"
	"github.com/creator-ads/backend/internal/platform"
	"github.com/creator-ads/backend/internal/poller"
	"github.com/creator-ads/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resource sources reported to callers
const (
	SourceExisting = "existing"
	SourceCreated  = "created"
)

// ProvisionService implements the ensure pattern: a remote resource is
// created at most once per logical (owner, type, name) key; later calls for
// the same key are pure lookups.
type ProvisionService struct {
	resources resourceStore
	creds     credentialResolver
	api       platformAPI
	audit     auditLogger
	publisher events.Publisher
	clk       poller.Clock
	cfg       *config.Config
	log       *zap.Logger
}

func NewProvisionService(
	resources resourceStore,
	creds credentialResolver,
	api platformAPI,
	audit auditLogger,
	publisher events.Publisher,
	clk poller.Clock,
	cfg *config.Config,
	log *zap.Logger,
) *ProvisionService {
	return &ProvisionService{
		resources: resources,
		creds:     creds,
		api:       api,
		audit:     audit,
		publisher: publisher,
		clk:       clk,
		cfg:       cfg,
		log:       log,
	}
}

type createFunc func(ctx context.Context, creds platform.Credentials) (remoteID string, err error)

// Ensure returns the resource mapped to the logical key, creating it remotely
// exactly once on first use. The returned source tells whether a remote call
// was made.
func (s *ProvisionService) Ensure(ctx context.Context, ownerID uuid.UUID, resourceType, name string, parentID *uuid.UUID, create createFunc) (*models.RemoteResource, string, error) {
	existing, err := s.resources.GetByLogicalKey(ctx, ownerID, resourceType, name)
	if err == nil {
		return existing, SourceExisting, nil
	}
	if !errors.Is(err, repositories.ErrResourceNotFound) {
		return nil, "", fmt.Errorf("lookup %s %q: %w", resourceType, name, err)
	}

	creds, err := s.creds.Resolve(ctx, ownerID)
	if err != nil {
		return nil, "", err
	}

	remoteID, err := create(ctx, creds)
	s.auditCreate(ctx, ownerID, resourceType, name, remoteID, err)
	if err != nil {
		return nil, "", fmt.Errorf("create %s %q: %w", resourceType, name, err)
	}

	res := &models.RemoteResource{
		OwnerID:          ownerID,
		ResourceType:     resourceType,
		Name:             name,
		RemoteID:         remoteID,
		Status:           models.ResourceStatusPending,
		ParentResourceID: parentID,
	}
	if err := s.resources.Create(ctx, res); err != nil {
		return nil, "", fmt.Errorf("persist %s %q: %w", resourceType, name, err)
	}

	s.publishProvisioned(ctx, res)
	return res, SourceCreated, nil
}

func (s *ProvisionService) publishProvisioned(ctx context.Context, res *models.RemoteResource) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, events.StreamCampaigns, events.Event{
		Type: events.EventResourceProvisioned,
		Payload: map[string]any{
			"owner_id":      res.OwnerID.String(),
			"resource_type": res.ResourceType,
			"name":          res.Name,
			"remote_id":     res.RemoteID,
		},
	})
}

// namePrefix scopes resource names by campaign goal so different goals get
// distinct audiences under the same owner.
func (s *ProvisionService) namePrefix(goalKey string) string {
	if goalKey == "" {
		return s.cfg.AudienceNamePrefix
	}
	return fmt.Sprintf("%s_%s", s.cfg.AudienceNamePrefix, strings.ToUpper(goalKey))
}

// AudienceName builds the deterministic audience name so logically equivalent
// requests collide on the same key instead of creating duplicates.
func (s *ProvisionService) AudienceName(goalKey, seedType string) string {
	return fmt.Sprintf("%s_%s", s.namePrefix(goalKey), strings.ToUpper(seedType))
}

// LookalikeName: "<PREFIX>_LAL_<SEED>_<N>pct_<CC>".
func (s *ProvisionService) LookalikeName(goalKey, seedType string, percent int, country string) string {
	return fmt.Sprintf("%s_LAL_%s_%dpct_%s",
		s.namePrefix(goalKey), strings.ToUpper(seedType), percent, strings.ToUpper(country))
}

// EnsureAudience provisions one custom audience seeded by engagement type.
func (s *ProvisionService) EnsureAudience(ctx context.Context, ownerID uuid.UUID, goalKey, seedType string) (*models.RemoteResource, string, error) {
	name := s.AudienceName(goalKey, seedType)
	return s.Ensure(ctx, ownerID, models.ResourceTypeAudience, name, nil,
		func(ctx context.Context, creds platform.Credentials) (string, error) {
			return s.api.CreateObject(ctx, creds, "act_"+creds.AdAccountID, "customaudiences", map[string]any{
				"name":        name,
				"subtype":     "ENGAGEMENT",
				"description": fmt.Sprintf("Auto-provisioned %s audience", seedType),
				"rule":        map[string]any{"event_sources": []map[string]any{{"type": seedType}}},
			})
		})
}

// EnsureLookalike provisions a lookalike audience, ensuring its seed audience
// first. A seed failure fails fast without creating the dependent.
func (s *ProvisionService) EnsureLookalike(ctx context.Context, ownerID uuid.UUID, goalKey, seedType string, percent int, country string) (*models.RemoteResource, string, error) {
	seed, _, err := s.EnsureAudience(ctx, ownerID, goalKey, seedType)
	if err != nil {
		return nil, "", fmt.Errorf("ensure seed audience: %w", err)
	}

	name := s.LookalikeName(goalKey, seedType, percent, country)
	return s.Ensure(ctx, ownerID, models.ResourceTypeLookalike, name, &seed.ID,
		func(ctx context.Context, creds platform.Credentials) (string, error) {
			return s.api.CreateObject(ctx, creds, "act_"+creds.AdAccountID, "customaudiences", map[string]any{
				"name":               name,
				"subtype":            "LOOKALIKE",
				"origin_audience_id": seed.RemoteID,
				"lookalike_spec": map[string]any{
					"type":    "similarity",
					"ratio":   float64(percent) / 100,
					"country": strings.ToUpper(country),
				},
			})
		})
}

type EnsuredAudience struct {
	ID       uuid.UUID `json:"id"`
	RemoteID string    `json:"remote_id"`
	Type     string    `json:"type"`
	Name     string    `json:"name"`
	Source   string    `json:"source"`
}

type AudienceBatchResult struct {
	Audiences []EnsuredAudience `json:"audiences"`
	Errors    []string          `json:"errors"`
}

// EnsureAudiences provisions one audience per seed type. Each seed type is
// attempted independently; failures are collected alongside successes.
func (s *ProvisionService) EnsureAudiences(ctx context.Context, ownerID uuid.UUID, goalKey string, seedTypes []string) *AudienceBatchResult {
	result := &AudienceBatchResult{
		Audiences: []EnsuredAudience{},
		Errors:    []string{},
	}

	for _, seedType := range seedTypes {
		res, source, err := s.EnsureAudience(ctx, ownerID, goalKey, seedType)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", seedType, err))
			continue
		}
		result.Audiences = append(result.Audiences, EnsuredAudience{
			ID:       res.ID,
			RemoteID: res.RemoteID,
			Type:     res.ResourceType,
			Name:     res.Name,
			Source:   source,
		})
	}
	return result
}

// EnsureVideo provisions an uploaded video from an object-store URL and waits
// for remote processing to finish, bounded by the video poll config.
func (s *ProvisionService) EnsureVideo(ctx context.Context, ownerID uuid.UUID, name, videoURL string) (*models.RemoteResource, string, error) {
	logicalName := fmt.Sprintf("%s_%s", s.cfg.AudienceNamePrefix, strings.ToUpper(name))
	res, source, err := s.Ensure(ctx, ownerID, models.ResourceTypeVideo, logicalName, nil,
		func(ctx context.Context, creds platform.Credentials) (string, error) {
			return s.api.CreateObject(ctx, creds, "act_"+creds.AdAccountID, "advideos", map[string]any{
				"name":     logicalName,
				"file_url": videoURL,
			})
		})
	if err != nil {
		return nil, "", err
	}

	if res.Status == models.ResourceStatusReady {
		return res, source, nil
	}

	status, err := s.waitVideoReady(ctx, ownerID, res.RemoteID)
	if err != nil {
		// Processing may still finish remotely; keep the row pending.
		return res, source, fmt.Errorf("video %q not ready: %w", logicalName, err)
	}

	if uerr := s.resources.UpdateStatus(ctx, res.ID, status); uerr != nil {
		return res, source, fmt.Errorf("persist video status: %w", uerr)
	}
	res.Status = status
	return res, source, nil
}

// waitVideoReady polls the remote processing status until ready or error.
func (s *ProvisionService) waitVideoReady(ctx context.Context, ownerID uuid.UUID, remoteID string) (string, error) {
	creds, err := s.creds.Resolve(ctx, ownerID)
	if err != nil {
		return "", err
	}

	status, err := poller.Poll(ctx, s.clk,
		poller.Config{MaxAttempts: s.cfg.VideoPollMaxAttempts, Interval: s.cfg.VideoPollInterval},
		func(ctx context.Context) (string, error) {
			obj, err := s.api.GetObject(ctx, creds, remoteID, []string{"status"})
			if err != nil {
				return "", err
			}
			return videoStatus(obj), nil
		},
		func(st string) bool { return st == models.ResourceStatusReady },
		func(st string) bool { return st == models.ResourceStatusError },
		func(attempt int, st string) {
			s.log.Debug("video processing",
				zap.String("remote_id", remoteID),
				zap.Int("attempt", attempt),
				zap.String("status", st),
			)
		})
	if err != nil {
		return status, err
	}
	return status, nil
}

// videoStatus extracts the processing state from {"status":{"video_status":...}}.
func videoStatus(obj map[string]any) string {
	st, ok := obj["status"].(map[string]any)
	if !ok {
		return models.ResourceStatusPending
	}
	switch st["video_status"] {
	case "ready":
		return models.ResourceStatusReady
	case "error":
		return models.ResourceStatusError
	default:
		return models.ResourceStatusPending
	}
}

func (s *ProvisionService) auditCreate(ctx context.Context, ownerID uuid.UUID, resourceType, name, remoteID string, callErr error) {
	request := fmt.Sprintf("create %s %q", resourceType, name)
	response := "id=" + remoteID
	if callErr != nil {
		response = callErr.Error()
	}
	_ = s.audit.Log(ctx, models.AuditLog{
		OwnerID:         &ownerID,
		ActorType:       "system",
		Action:          "resource_create",
		EntityType:      "remote_resource",
		RequestSummary:  &request,
		ResponseSummary: &response,
		Success:         callErr == nil,
	})
}
