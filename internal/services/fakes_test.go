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
	"github.com/creator-ads/backend/internal/repositories"
	"github.com/google/uuid"
)

// Fakes over the consumer-side interfaces in stores.go, shared by the service
// tests in this package.

type setLifecycleCall struct {
	id        uuid.UUID
	state     string
	needsPoll bool
	lastError *string
}

type fakeCampaignStore struct {
	byID     map[uuid.UUID]*models.Campaign
	listOut  []models.Campaign
	listErr  error
	beginOK  bool
	beginErr error
	setCalls []setLifecycleCall
	setErr   error
}

func newFakeCampaignStore(campaigns ...*models.Campaign) *fakeCampaignStore {
	f := &fakeCampaignStore{byID: make(map[uuid.UUID]*models.Campaign), beginOK: true}
	for _, c := range campaigns {
		f.byID[c.ID] = c
		f.listOut = append(f.listOut, *c)
	}
	return f
}

func (f *fakeCampaignStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return c, nil
}

func (f *fakeCampaignStore) BeginLaunch(ctx context.Context, id uuid.UUID, fromState string) (bool, error) {
	return f.beginOK, f.beginErr
}

func (f *fakeCampaignStore) SetLifecycleResult(ctx context.Context, id uuid.UUID, state string, needsPoll bool, lastError *string, remoteStatus map[string]any) error {
	f.setCalls = append(f.setCalls, setLifecycleCall{id: id, state: state, needsPoll: needsPoll, lastError: lastError})
	return f.setErr
}

func (f *fakeCampaignStore) List(ctx context.Context, filter repositories.CampaignFilter) ([]models.Campaign, error) {
	return f.listOut, f.listErr
}

func (f *fakeCampaignStore) lastSet() setLifecycleCall {
	return f.setCalls[len(f.setCalls)-1]
}

type fakeResourceStore struct {
	byKey      map[string]*models.RemoteResource
	created    []*models.RemoteResource
	createErr  error
	statusSets map[uuid.UUID]string
}

func newFakeResourceStore() *fakeResourceStore {
	return &fakeResourceStore{
		byKey:      make(map[string]*models.RemoteResource),
		statusSets: make(map[uuid.UUID]string),
	}
}

func resourceKey(ownerID uuid.UUID, resourceType, name string) string {
	return fmt.Sprintf("%s|%s|%s", ownerID, resourceType, name)
}

func (f *fakeResourceStore) GetByLogicalKey(ctx context.Context, ownerID uuid.UUID, resourceType, name string) (*models.RemoteResource, error) {
	res, ok := f.byKey[resourceKey(ownerID, resourceType, name)]
	if !ok {
		return nil, repositories.ErrResourceNotFound
	}
	return res, nil
}

func (f *fakeResourceStore) Create(ctx context.Context, res *models.RemoteResource) error {
	if f.createErr != nil {
		return f.createErr
	}
	res.ID = uuid.New()
	res.CreatedAt = time.Now()
	f.created = append(f.created, res)
	f.byKey[resourceKey(res.OwnerID, res.ResourceType, res.Name)] = res
	return nil
}

func (f *fakeResourceStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	f.statusSets[id] = status
	return nil
}

type fakeDecisionStore struct {
	created   []*models.Decision
	createErr error
}

func (f *fakeDecisionStore) Create(ctx context.Context, d *models.Decision) error {
	if f.createErr != nil {
		return f.createErr
	}
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	f.created = append(f.created, d)
	return nil
}

type fakeAuditLogger struct {
	entries []models.AuditLog
}

func (f *fakeAuditLogger) Log(ctx context.Context, entry models.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeCredentialResolver struct {
	creds platform.Credentials
	err   error
}

func (f *fakeCredentialResolver) Resolve(ctx context.Context, ownerID uuid.UUID) (platform.Credentials, error) {
	return f.creds, f.err
}

type fakePublisher struct {
	published []events.Event
}

func (f *fakePublisher) Publish(ctx context.Context, stream string, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}

type fakePlatformAPI struct {
	updateCalls []string
	updateErrs  map[string]error
	statuses    map[string]*platform.ObjectStatus
	statusErrs  map[string]error
	statusCalls int
	createFn    func(parent, collection string, payload map[string]any) (string, error)
	createCalls int
	getObjectFn func(id string, fields []string) (map[string]any, error)
}

func (f *fakePlatformAPI) GetObjectStatus(ctx context.Context, creds platform.Credentials, id string) (*platform.ObjectStatus, error) {
	f.statusCalls++
	if err := f.statusErrs[id]; err != nil {
		return nil, err
	}
	if st, ok := f.statuses[id]; ok {
		return st, nil
	}
	return &platform.ObjectStatus{ID: id, Status: platform.StatusActive, EffectiveStatus: platform.StatusActive}, nil
}

func (f *fakePlatformAPI) GetObject(ctx context.Context, creds platform.Credentials, id string, fields []string) (map[string]any, error) {
	if f.getObjectFn != nil {
		return f.getObjectFn(id, fields)
	}
	return map[string]any{}, nil
}

func (f *fakePlatformAPI) UpdateObjectStatus(ctx context.Context, creds platform.Credentials, id, status string) error {
	f.updateCalls = append(f.updateCalls, id)
	if err := f.updateErrs[id]; err != nil {
		return err
	}
	return nil
}

func (f *fakePlatformAPI) CreateObject(ctx context.Context, creds platform.Credentials, parent, collection string, payload map[string]any) (string, error) {
	f.createCalls++
	if f.createFn != nil {
		return f.createFn(parent, collection, payload)
	}
	return fmt.Sprintf("remote-%d", f.createCalls), nil
}

type fakeClock struct {
	slept []time.Duration
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.slept = append(f.slept, d)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		LaunchSettleDelay:    time.Millisecond,
		VerifyMaxAttempts:    1,
		VerifyInterval:       time.Millisecond,
		VideoPollMaxAttempts: 3,
		VideoPollInterval:    time.Millisecond,
		SyncBatchLimit:       100,
		AudienceNamePrefix:   "CREATOR",
	}
}

func strPtr(s string) *string { return &s }

func testCampaign(ownerID uuid.UUID, state string) *models.Campaign {
	return &models.Campaign{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Name:             "Test Campaign",
		Objective:        "OUTCOME_LEADS",
		DailyBudget:      50,
		BudgetCap:        200,
		RemoteCampaignID: strPtr("cmp-1"),
		RemoteAdSetID:    strPtr("adset-1"),
		RemoteAdID:       strPtr("ad-1"),
		LifecycleState:   state,
	}
}
