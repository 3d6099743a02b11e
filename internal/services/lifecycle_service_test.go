package services

import (
	"context"
	"errors"
	"testing"

	"github.com/creator-ads/backend/internal/models"
	"github.com/creator-ads/backend/internal/platform"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLifecycleFixture(c *models.Campaign) (*LifecycleService, *fakeCampaignStore, *fakePlatformAPI, *fakeAuditLogger, *fakePublisher) {
	store := newFakeCampaignStore(c)
	api := &fakePlatformAPI{
		updateErrs: map[string]error{},
		statuses:   map[string]*platform.ObjectStatus{},
		statusErrs: map[string]error{},
	}
	audit := &fakeAuditLogger{}
	pub := &fakePublisher{}
	svc := NewLifecycleService(store, &fakeCredentialResolver{creds: platform.Credentials{AccessToken: "tok", AdAccountID: "1"}},
		api, audit, pub, &fakeClock{}, testConfig(), zap.NewNop())
	return svc, store, api, audit, pub
}

func setAllStatuses(api *fakePlatformAPI, effective string) {
	for _, id := range []string{"cmp-1", "adset-1", "ad-1"} {
		api.statuses[id] = &platform.ObjectStatus{ID: id, Status: effective, EffectiveStatus: effective}
	}
}

func TestLaunchRejectsInvalidMode(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleDraft)
	svc, _, api, _, _ := newLifecycleFixture(c)

	_, err := svc.Launch(context.Background(), ownerID, c.ID, "warp", nil)
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Empty(t, api.updateCalls)
}

func TestLaunchOwnerMismatch(t *testing.T) {
	c := testCampaign(uuid.New(), models.LifecycleDraft)
	svc, _, _, _, _ := newLifecycleFixture(c)

	_, err := svc.Launch(context.Background(), uuid.New(), c.ID, ModeActive, nil)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestLaunchMissingRemoteIDsFailsBeforeAnyRemoteCall(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleDraft)
	c.RemoteAdID = nil
	svc, store, api, audit, _ := newLifecycleFixture(c)

	_, err := svc.Launch(context.Background(), ownerID, c.ID, ModeActive, nil)

	assert.ErrorIs(t, err, ErrMissingRemoteIDs)
	assert.Empty(t, api.updateCalls)
	require.NotEmpty(t, store.setCalls)
	assert.Equal(t, models.LifecycleFailed, store.lastSet().state)
	require.NotNil(t, store.lastSet().lastError)
	assert.NotEmpty(t, audit.entries)
}

func TestLaunchMissingRemoteIDsPersistFailurePropagates(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleDraft)
	c.RemoteAdID = nil
	svc, store, _, _, _ := newLifecycleFixture(c)
	store.setErr = errors.New("db down")

	_, err := svc.Launch(context.Background(), ownerID, c.ID, ModeActive, nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingRemoteIDs)
	assert.Contains(t, err.Error(), "db down")
}

func TestLaunchConcurrentOperation(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleDraft)
	svc, store, api, _, _ := newLifecycleFixture(c)
	store.beginOK = false

	_, err := svc.Launch(context.Background(), ownerID, c.ID, ModeActive, nil)

	assert.ErrorIs(t, err, ErrConcurrentLifecycleOp)
	assert.Empty(t, api.updateCalls)
}

func TestLaunchUpdatesRemoteObjectsInOrder(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleDraft)
	svc, store, api, _, pub := newLifecycleFixture(c)
	setAllStatuses(api, platform.StatusActive)

	result, err := svc.Launch(context.Background(), ownerID, c.ID, ModeActive, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"cmp-1", "adset-1", "ad-1"}, api.updateCalls)
	assert.Equal(t, models.LifecycleActive, result.LifecycleState)
	assert.False(t, result.NeedsPoll)
	assert.Equal(t, models.LifecycleActive, store.lastSet().state)
	require.NotEmpty(t, pub.published)
	assert.Equal(t, models.LifecycleActive, pub.published[0].Payload["lifecycle_state"])
}

func TestLaunchStopsOnFirstRemoteFailure(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleDraft)
	svc, store, api, _, _ := newLifecycleFixture(c)
	api.updateErrs["adset-1"] = &platform.APIError{Status: 400, Code: 100, Message: "invalid parameter"}

	_, err := svc.Launch(context.Background(), ownerID, c.ID, ModeActive, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ad_set")
	// The ad is never touched after the ad set fails.
	assert.Equal(t, []string{"cmp-1", "adset-1"}, api.updateCalls)
	assert.Equal(t, models.LifecycleFailed, store.lastSet().state)
}

func TestLaunchThrottleExhaustionStaysLaunchingForReconciler(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleDraft)
	svc, store, api, _, pub := newLifecycleFixture(c)
	api.updateErrs["cmp-1"] = &platform.APIError{Status: 429, Code: 4, Message: "too many calls", Retryable: true}

	_, err := svc.Launch(context.Background(), ownerID, c.ID, ModeActive, nil)

	require.Error(t, err)
	assert.True(t, platform.IsRetryable(err))
	// The throttled mutation may still land; the campaign is left for the
	// needs_poll sweep rather than marked failed.
	assert.Equal(t, models.LifecycleLaunching, store.lastSet().state)
	assert.True(t, store.lastSet().needsPoll)
	assert.Empty(t, pub.published)
}

func TestLaunchVerificationFailureStaysLaunching(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleDraft)
	svc, store, api, _, _ := newLifecycleFixture(c)
	api.statusErrs["ad-1"] = errors.New("read timeout")

	result, err := svc.Launch(context.Background(), ownerID, c.ID, ModeActive, nil)

	// A verification failure is not a launch failure: the status change may
	// have landed remotely.
	require.NoError(t, err)
	assert.Equal(t, models.LifecycleLaunching, result.LifecycleState)
	assert.True(t, result.NeedsPoll)
	assert.Equal(t, models.LifecycleLaunching, store.lastSet().state)
	assert.True(t, store.lastSet().needsPoll)
}

func TestLaunchUnconvergedSnapshotKeepsLaunchingWithNeedsPoll(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleDraft)
	svc, _, api, _, _ := newLifecycleFixture(c)
	setAllStatuses(api, platform.StatusActive)
	api.statuses["ad-1"] = &platform.ObjectStatus{ID: "ad-1", Status: platform.StatusActive, EffectiveStatus: "PENDING_REVIEW"}

	result, err := svc.Launch(context.Background(), ownerID, c.ID, ModeActive, nil)

	require.NoError(t, err)
	assert.Equal(t, models.LifecycleLaunching, result.LifecycleState)
	assert.True(t, result.NeedsPoll)
}

func TestLaunchScheduledModeResolvesScheduled(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleDraft)
	svc, _, api, _, _ := newLifecycleFixture(c)
	setAllStatuses(api, platform.StatusActive)
	api.statuses["ad-1"] = &platform.ObjectStatus{ID: "ad-1", Status: platform.StatusActive, EffectiveStatus: "PENDING_REVIEW"}

	result, err := svc.Launch(context.Background(), ownerID, c.ID, ModeScheduled, nil)

	require.NoError(t, err)
	assert.Equal(t, models.LifecycleScheduled, result.LifecycleState)
	assert.False(t, result.NeedsPoll)
}

func TestPauseTargetsPausedStatus(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleActive)
	svc, store, api, _, _ := newLifecycleFixture(c)
	setAllStatuses(api, platform.StatusPaused)

	result, err := svc.Pause(context.Background(), ownerID, c.ID)

	require.NoError(t, err)
	assert.Equal(t, models.LifecyclePaused, result.LifecycleState)
	assert.Equal(t, models.LifecyclePaused, store.lastSet().state)
}

func TestResumeTargetsActiveStatus(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecyclePaused)
	svc, _, api, _, _ := newLifecycleFixture(c)
	setAllStatuses(api, platform.StatusActive)

	result, err := svc.Resume(context.Background(), ownerID, c.ID)

	require.NoError(t, err)
	assert.Equal(t, models.LifecycleActive, result.LifecycleState)
}

func TestLaunchCredentialFailureMarksFailed(t *testing.T) {
	ownerID := uuid.New()
	c := testCampaign(ownerID, models.LifecycleDraft)
	store := newFakeCampaignStore(c)
	api := &fakePlatformAPI{}
	svc := NewLifecycleService(store, &fakeCredentialResolver{err: errors.New("no credentials")},
		api, &fakeAuditLogger{}, &fakePublisher{}, &fakeClock{}, testConfig(), zap.NewNop())

	_, err := svc.Launch(context.Background(), ownerID, c.ID, ModeActive, nil)

	require.Error(t, err)
	assert.Empty(t, api.updateCalls)
	assert.Equal(t, models.LifecycleFailed, store.lastSet().state)
}
