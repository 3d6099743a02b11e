package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creator-ads/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCredentialRepo struct {
	rows  map[uuid.UUID]*models.PlatformCredential
	calls int
}

func (f *fakeCredentialRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.PlatformCredential, error) {
	f.calls++
	row, ok := f.rows[ownerID]
	if !ok {
		return nil, errors.New("platform credential not found")
	}
	return row, nil
}

func TestCredentialResolveCachesPerOwner(t *testing.T) {
	ownerID := uuid.New()
	repo := &fakeCredentialRepo{rows: map[uuid.UUID]*models.PlatformCredential{
		ownerID: {OwnerID: ownerID, AccessToken: "tok", AdAccountID: "42"},
	}}
	svc := NewCredentialService(repo, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		creds, err := svc.Resolve(context.Background(), ownerID)
		require.NoError(t, err)
		assert.Equal(t, "tok", creds.AccessToken)
		assert.Equal(t, "42", creds.AdAccountID)
	}

	assert.Equal(t, 1, repo.calls)
}

func TestCredentialResolveMissingOwner(t *testing.T) {
	repo := &fakeCredentialRepo{rows: map[uuid.UUID]*models.PlatformCredential{}}
	svc := NewCredentialService(repo, time.Minute, zap.NewNop())

	_, err := svc.Resolve(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve platform credentials")
}

func TestCredentialInvalidateForcesRefetch(t *testing.T) {
	ownerID := uuid.New()
	repo := &fakeCredentialRepo{rows: map[uuid.UUID]*models.PlatformCredential{
		ownerID: {OwnerID: ownerID, AccessToken: "tok", AdAccountID: "42"},
	}}
	svc := NewCredentialService(repo, time.Minute, zap.NewNop())

	_, err := svc.Resolve(context.Background(), ownerID)
	require.NoError(t, err)
	svc.Invalidate(ownerID)
	_, err = svc.Resolve(context.Background(), ownerID)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.calls)
}
