package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creator-ads/backend/internal/config"
	"github.com/creator-ads/backend/internal/events"
	"github.com/creator-ads/backend/internal/models"
	"github.com/creator-ads/backend/internal/platform"
	"github.com/creator-ads/backend/internal/poller"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Launch target modes
const (
	ModeActive    = "active"
	ModePaused    = "paused"
	ModeScheduled = "scheduled"
)

var (
	// ErrMissingRemoteIDs: the campaign is not fully published remotely, so a
	// launch must fail before any remote call.
	ErrMissingRemoteIDs = errors.New("MISSING_REMOTE_IDS: campaign is missing remote campaign/ad set/ad ids")
	// ErrCampaignNotFound covers both absent rows and ownership mismatches.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrConcurrentLifecycleOp: another launch/reconcile won the state CAS.
	ErrConcurrentLifecycleOp = errors.New("concurrent lifecycle operation in progress")
	// ErrInvalidMode rejects unknown launch modes before touching state.
	ErrInvalidMode = errors.New("invalid launch mode, must be one of: active, paused, scheduled")
)

// LifecycleService owns the campaign state machine: it mutates remote status
// through the rate-limited client, verifies the effect, and converges local
// state to remote truth.
type LifecycleService struct {
	campaigns campaignStore
	creds     credentialResolver
	api       platformAPI
	audit     auditLogger
	publisher events.Publisher
	clk       poller.Clock
	cfg       *config.Config
	log       *zap.Logger
}

func NewLifecycleService(
	campaigns campaignStore,
	creds credentialResolver,
	api platformAPI,
	audit auditLogger,
	publisher events.Publisher,
	clk poller.Clock,
	cfg *config.Config,
	log *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		campaigns: campaigns,
		creds:     creds,
		api:       api,
		audit:     audit,
		publisher: publisher,
		clk:       clk,
		cfg:       cfg,
		log:       log,
	}
}

type LaunchResult struct {
	LifecycleState string         `json:"lifecycle_state"`
	RemoteStatus   map[string]any `json:"remote_status,omitempty"`
	NeedsPoll      bool           `json:"needs_poll"`
}

// remoteObject pairs a label with a remote id, in mutation order.
type remoteObject struct {
	label string
	id    string
}

func remoteObjects(c *models.Campaign) []remoteObject {
	return []remoteObject{
		{"campaign", derefStr(c.RemoteCampaignID)},
		{"ad_set", derefStr(c.RemoteAdSetID)},
		{"ad", derefStr(c.RemoteAdID)},
	}
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Launch drives a campaign toward the target mode: persist launching first,
// mutate the three remote objects outer to inner, then verify after a settle
// delay. Verification failures never mark the campaign failed; the status
// change itself may have landed, so the reconciler re-checks later.
//
// startTime is informational only. The schedule lives on the remote ad set,
// written when the campaign was published; activating a scheduled campaign
// just flips its status and lets the platform honor the stored start time.
func (s *LifecycleService) Launch(ctx context.Context, ownerID, campaignID uuid.UUID, mode string, startTime *time.Time) (*LaunchResult, error) {
	if mode != ModeActive && mode != ModePaused && mode != ModeScheduled {
		return nil, ErrInvalidMode
	}

	c, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, ErrCampaignNotFound
	}
	if c.OwnerID != ownerID {
		return nil, ErrCampaignNotFound
	}

	if !c.HasAllRemoteIDs() {
		msg := ErrMissingRemoteIDs.Error()
		if perr := s.campaigns.SetLifecycleResult(ctx, c.ID, models.LifecycleFailed, false, &msg, nil); perr != nil {
			return nil, fmt.Errorf("persist failed state: %w", perr)
		}
		s.auditLaunch(ctx, c, mode, "launch rejected: "+msg, false)
		return nil, ErrMissingRemoteIDs
	}

	moved, err := s.campaigns.BeginLaunch(ctx, c.ID, c.LifecycleState)
	if err != nil {
		return nil, fmt.Errorf("persist launching state: %w", err)
	}
	if !moved {
		return nil, ErrConcurrentLifecycleOp
	}

	creds, err := s.creds.Resolve(ctx, c.OwnerID)
	if err != nil {
		return nil, s.failLaunch(ctx, c, mode, err)
	}

	target := platform.StatusActive
	if mode == ModePaused {
		target = platform.StatusPaused
	}

	// Remote calls must happen in order: campaign, ad set, ad. The first
	// failure stops the sequence.
	for _, obj := range remoteObjects(c) {
		callErr := s.api.UpdateObjectStatus(ctx, creds, obj.id, target)
		s.auditRemoteCall(ctx, c, "remote_status_update",
			fmt.Sprintf("POST /%s status=%s (%s)", obj.id, target, obj.label), callErr)
		if callErr != nil {
			return nil, s.failLaunch(ctx, c, mode, fmt.Errorf("update %s status: %w", obj.label, callErr))
		}
	}

	if err := s.clk.Sleep(ctx, s.cfg.LaunchSettleDelay); err != nil {
		return nil, err
	}

	snapshot, verifyErr := s.verifyRemoteStatus(ctx, creds, c)
	if verifyErr != nil {
		// The status change may have landed; stay launching and let the
		// reconciler confirm later.
		msg := verifyErr.Error()
		if perr := s.campaigns.SetLifecycleResult(ctx, c.ID, models.LifecycleLaunching, true, &msg, nil); perr != nil {
			return nil, fmt.Errorf("persist unverified launch: %w", perr)
		}
		s.auditLaunch(ctx, c, mode, "verification failed: "+msg, false)
		return &LaunchResult{LifecycleState: models.LifecycleLaunching, NeedsPoll: true}, nil
	}

	state, needsPoll := resolveLifecycleState(snapshot, mode, models.LifecycleLaunching)
	if perr := s.campaigns.SetLifecycleResult(ctx, c.ID, state, needsPoll, nil, snapshot.asMap()); perr != nil {
		return nil, fmt.Errorf("persist launch result: %w", perr)
	}

	s.auditLaunch(ctx, c, mode, fmt.Sprintf("launch verified, state=%s", state), true)
	s.publishLifecycleChanged(ctx, c, state)

	return &LaunchResult{
		LifecycleState: state,
		RemoteStatus:   snapshot.asMap(),
		NeedsPoll:      needsPoll,
	}, nil
}

// Pause and Resume are the explicit active/paused toggle over the same
// launch machinery.
func (s *LifecycleService) Pause(ctx context.Context, ownerID, campaignID uuid.UUID) (*LaunchResult, error) {
	return s.Launch(ctx, ownerID, campaignID, ModePaused, nil)
}

func (s *LifecycleService) Resume(ctx context.Context, ownerID, campaignID uuid.UUID) (*LaunchResult, error) {
	return s.Launch(ctx, ownerID, campaignID, ModeActive, nil)
}

// failLaunch records the outcome of a remote mutation error, keeping the
// original error as the returned one. A throttle error that exhausted retries
// is not fatal: the campaign stays launching with needs_poll set, and the
// reconciler picks it up once the throttle window clears.
func (s *LifecycleService) failLaunch(ctx context.Context, c *models.Campaign, mode string, cause error) error {
	msg := cause.Error()

	if platform.IsRetryable(cause) {
		if perr := s.campaigns.SetLifecycleResult(ctx, c.ID, models.LifecycleLaunching, true, &msg, nil); perr != nil {
			return fmt.Errorf("persist throttled launch: %w", perr)
		}
		s.auditLaunch(ctx, c, mode, "launch throttled: "+msg, false)
		return cause
	}

	if perr := s.campaigns.SetLifecycleResult(ctx, c.ID, models.LifecycleFailed, false, &msg, nil); perr != nil {
		return fmt.Errorf("persist failed state after %q: %w", msg, perr)
	}
	s.auditLaunch(ctx, c, mode, "launch failed: "+msg, false)
	s.publishLifecycleChanged(ctx, c, models.LifecycleFailed)
	return cause
}

// remoteSnapshot holds the effective statuses of the three objects.
type remoteSnapshot struct {
	statuses map[string]*platform.ObjectStatus // label -> status
}

func (r *remoteSnapshot) asMap() map[string]any {
	out := make(map[string]any, len(r.statuses))
	for label, st := range r.statuses {
		out[label] = map[string]any{
			"id":               st.ID,
			"status":           st.Status,
			"effective_status": st.EffectiveStatus,
		}
	}
	return out
}

func (r *remoteSnapshot) allEffective(status string) bool {
	if len(r.statuses) != 3 {
		return false
	}
	for _, st := range r.statuses {
		if st.EffectiveStatus != status {
			return false
		}
	}
	return true
}

// verifyRemoteStatus polls the effective status of all three objects until
// they converge on all-active or all-paused, or attempts run out (a single
// attempt by default). The last snapshot is still usable on timeout.
func (s *LifecycleService) verifyRemoteStatus(ctx context.Context, creds platform.Credentials, c *models.Campaign) (*remoteSnapshot, error) {
	snap, err := poller.Poll(ctx, s.clk,
		poller.Config{MaxAttempts: s.cfg.VerifyMaxAttempts, Interval: s.cfg.VerifyInterval},
		func(ctx context.Context) (*remoteSnapshot, error) {
			return s.fetchRemoteSnapshot(ctx, creds, c)
		},
		func(r *remoteSnapshot) bool {
			return r.allEffective(platform.StatusActive) || r.allEffective(platform.StatusPaused)
		},
		nil, nil)
	if err != nil && !errors.Is(err, poller.ErrTimeout) {
		return nil, err
	}
	return snap, nil
}

func (s *LifecycleService) fetchRemoteSnapshot(ctx context.Context, creds platform.Credentials, c *models.Campaign) (*remoteSnapshot, error) {
	snap := &remoteSnapshot{statuses: make(map[string]*platform.ObjectStatus, 3)}
	for _, obj := range remoteObjects(c) {
		st, err := s.api.GetObjectStatus(ctx, creds, obj.id)
		if err != nil {
			return nil, fmt.Errorf("read %s status: %w", obj.label, err)
		}
		snap.statuses[obj.label] = st
	}
	return snap, nil
}

// resolveLifecycleState applies the all-active/all-paused predicate. When
// neither holds: a scheduled target resolves to scheduled, anything else
// keeps the fallback state with needs_poll set.
func resolveLifecycleState(snap *remoteSnapshot, mode, fallback string) (string, bool) {
	switch {
	case snap.allEffective(platform.StatusActive):
		return models.LifecycleActive, false
	case snap.allEffective(platform.StatusPaused):
		return models.LifecyclePaused, false
	case mode == ModeScheduled:
		return models.LifecycleScheduled, false
	default:
		return fallback, true
	}
}

func (s *LifecycleService) auditLaunch(ctx context.Context, c *models.Campaign, mode, summary string, success bool) {
	_ = s.audit.Log(ctx, models.AuditLog{
		OwnerID:         &c.OwnerID,
		ActorType:       "system",
		Action:          "campaign_launch",
		EntityType:      "campaign",
		EntityID:        &c.ID,
		ResponseSummary: &summary,
		Success:         success,
		Meta:            map[string]any{"mode": mode, "launch_attempts": c.LaunchAttempts + 1},
	})
}

func (s *LifecycleService) auditRemoteCall(ctx context.Context, c *models.Campaign, action, request string, callErr error) {
	response := "ok"
	if callErr != nil {
		response = callErr.Error()
	}
	_ = s.audit.Log(ctx, models.AuditLog{
		OwnerID:         &c.OwnerID,
		ActorType:       "system",
		Action:          action,
		EntityType:      "campaign",
		EntityID:        &c.ID,
		RequestSummary:  &request,
		ResponseSummary: &response,
		Success:         callErr == nil,
	})
}

func (s *LifecycleService) publishLifecycleChanged(ctx context.Context, c *models.Campaign, newState string) {
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
