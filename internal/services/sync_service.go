package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/creator-ads/backend/internal/config"
	"github.com/creator-ads/backend/internal/events"
	"github.com/creator-ads/backend/internal/models"
	"github.com/creator-ads/backend/internal/platform"
	"github.com/creator-ads/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncService re-reads remote status for a set of campaigns and converges
// local lifecycle state to remote truth. It is the sole long-term corrector
// of launches whose verification never completed.
type SyncService struct {
	campaigns campaignStore
	creds     credentialResolver
	api       platformAPI
	audit     auditLogger
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewSyncService(
	campaigns campaignStore,
	creds credentialResolver,
	api platformAPI,
	audit auditLogger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *SyncService {
	return &SyncService{
		campaigns: campaigns,
		creds:     creds,
		api:       api,
		audit:     audit,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// SyncFilter selects which campaigns to reconcile: a single campaign, a named
// group, or all non-terminal ones (optionally only those flagged needs_poll).
type SyncFilter struct {
	OwnerID       *uuid.UUID
	CampaignID    *uuid.UUID
	GroupID       *uuid.UUID
	NeedsPollOnly bool
}

type CampaignSync struct {
	CampaignID     uuid.UUID      `json:"campaign_id"`
	LifecycleState string         `json:"lifecycle_state"`
	RemoteStatus   map[string]any `json:"remote_status,omitempty"`
	Error          string         `json:"error,omitempty"`
}

type SyncResult struct {
	Synced    int            `json:"synced"`
	Campaigns []CampaignSync `json:"campaigns"`
}

// Sync reconciles every campaign matched by the filter. Campaigns are
// processed independently: one failure never blocks the others.
func (s *SyncService) Sync(ctx context.Context, f SyncFilter) (*SyncResult, error) {
	campaigns, err := s.selectCampaigns(ctx, f)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Campaigns: make([]CampaignSync, 0, len(campaigns))}
	for i := range campaigns {
		c := &campaigns[i]
		sync := s.syncOne(ctx, c)
		result.Campaigns = append(result.Campaigns, sync)
		if sync.Error == "" {
			result.Synced++
		}
	}
	return result, nil
}

func (s *SyncService) selectCampaigns(ctx context.Context, f SyncFilter) ([]models.Campaign, error) {
	if f.CampaignID != nil {
		c, err := s.campaigns.GetByID(ctx, *f.CampaignID)
		if err != nil {
			return nil, ErrCampaignNotFound
		}
		if f.OwnerID != nil && c.OwnerID != *f.OwnerID {
			return nil, ErrCampaignNotFound
		}
		return []models.Campaign{*c}, nil
	}

	filter := repositories.CampaignFilter{
		OwnerID:     f.OwnerID,
		GroupID:     f.GroupID,
		NonTerminal: true,
		Limit:       s.cfg.SyncBatchLimit,
	}
	if f.NeedsPollOnly {
		needsPoll := true
		filter.NeedsPoll = &needsPoll
	}
	return s.campaigns.List(ctx, filter)
}

// syncOne fetches the three remote statuses and advances or corrects local
// state. Any fetch error marks the campaign failed with the concatenated
// messages; every attempt is audited.
func (s *SyncService) syncOne(ctx context.Context, c *models.Campaign) CampaignSync {
	sync := CampaignSync{CampaignID: c.ID, LifecycleState: c.LifecycleState}

	if models.IsTerminalLifecycle(c.LifecycleState) || !c.HasAllRemoteIDs() {
		return sync
	}

	creds, err := s.creds.Resolve(ctx, c.OwnerID)
	if err != nil {
		return s.markFailed(ctx, c, &sync, err.Error())
	}

	snap := &remoteSnapshot{statuses: make(map[string]*platform.ObjectStatus, 3)}
	var fetchErrors []string
	for _, obj := range remoteObjects(c) {
		st, err := s.api.GetObjectStatus(ctx, creds, obj.id)
		if err != nil {
			fetchErrors = append(fetchErrors, fmt.Sprintf("%s: %v", obj.label, err))
			continue
		}
		snap.statuses[obj.label] = st
	}

	if len(fetchErrors) > 0 {
		return s.markFailed(ctx, c, &sync, strings.Join(fetchErrors, "; "))
	}

	newState, needsPoll := resolveSyncState(snap, c.LifecycleState)
	if !models.IsValidLifecycleTransition(c.LifecycleState, newState) {
		// Remote truth disagrees with a transition the state machine forbids;
		// keep local state and surface it for diagnosis.
		s.log.Warn("sync computed forbidden transition",
			zap.String("campaign_id", c.ID.String()),
			zap.String("from", c.LifecycleState),
			zap.String("to", newState),
		)
		newState, needsPoll = c.LifecycleState, c.NeedsPoll
	}

	if err := s.campaigns.SetLifecycleResult(ctx, c.ID, newState, needsPoll, nil, snap.asMap()); err != nil {
		return s.markFailed(ctx, c, &sync, fmt.Sprintf("persist sync result: %v", err))
	}

	s.auditSync(ctx, c, fmt.Sprintf("synced, state %s -> %s", c.LifecycleState, newState), true)
	if newState != c.LifecycleState {
		s.publishLifecycleChanged(ctx, c, newState)
	}

	sync.LifecycleState = newState
	sync.RemoteStatus = snap.asMap()
	return sync
}

func (s *SyncService) markFailed(ctx context.Context, c *models.Campaign, sync *CampaignSync, msg string) CampaignSync {
	if err := s.campaigns.SetLifecycleResult(ctx, c.ID, models.LifecycleFailed, false, &msg, nil); err != nil {
		s.log.Error("failed to persist sync failure",
			zap.String("campaign_id", c.ID.String()), zap.Error(err))
	}
	s.auditSync(ctx, c, "sync failed: "+msg, false)
	s.publishLifecycleChanged(ctx, c, models.LifecycleFailed)

	sync.LifecycleState = models.LifecycleFailed
	sync.Error = msg
	return *sync
}

// resolveSyncState applies the same all-active/all-paused predicate as launch
// verification; anything else keeps the current state, retaining needs_poll
// for unconfirmed launches.
func resolveSyncState(snap *remoteSnapshot, current string) (string, bool) {
	state, needsPoll := resolveLifecycleState(snap, "", current)
	if state == current && current != models.LifecycleLaunching {
		needsPoll = false
	}
	return state, needsPoll
}

func (s *SyncService) auditSync(ctx context.Context, c *models.Campaign, summary string, success bool) {
	_ = s.audit.Log(ctx, models.AuditLog{
		OwnerID:         &c.OwnerID,
		ActorType:       "worker",
		Action:          "campaign_sync",
		EntityType:      "campaign",
		EntityID:        &c.ID,
		ResponseSummary: &summary,
		Success:         success,
	})
}

func (s *SyncService) publishLifecycleChanged(ctx context.Context, c *models.Campaign, newState string) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, events.StreamCampaigns, events.Event{
		Type: events.EventCampaignLifecycleChanged,
		Payload: map[string]any{
			"campaign_id":     c.ID.String(),
			"owner_id":        c.OwnerID.String(),
			"lifecycle_state": newState,
		},
	})
}
