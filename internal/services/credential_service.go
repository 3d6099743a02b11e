package services

import (
	"context"
	"fmt"
	"time"

	"github.com/creator-ads/backend/internal/cache"
	"github.com/creator-ads/backend/internal/models"
	"github.com/creator-ads/backend/internal/platform"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type credentialStore interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.PlatformCredential, error)
}

// CredentialService resolves per-owner platform credentials through an
// explicit TTL cache, so a burst of lifecycle operations for one owner does
// not hammer the credential table.
type CredentialService struct {
	repo  credentialStore
	cache *cache.TTL[uuid.UUID, platform.Credentials]
	log   *zap.Logger
}

func NewCredentialService(repo credentialStore, ttl time.Duration, log *zap.Logger) *CredentialService {
	return &CredentialService{
		repo:  repo,
		cache: cache.NewTTL[uuid.UUID, platform.Credentials](ttl),
		log:   log,
	}
}

func (s *CredentialService) Resolve(ctx context.Context, ownerID uuid.UUID) (platform.Credentials, error) {
	if creds, ok := s.cache.Get(ownerID); ok {
		return creds, nil
	}

	row, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return platform.Credentials{}, fmt.Errorf("resolve platform credentials: %w", err)
	}

	creds := platform.Credentials{
		AccessToken: row.AccessToken,
		AdAccountID: row.AdAccountID,
	}
	s.cache.Set(ownerID, creds)
	return creds, nil
}

// Invalidate drops the cached entry, e.g. after the platform rejects a token.
func (s *CredentialService) Invalidate(ownerID uuid.UUID) {
	s.cache.Delete(ownerID)
}
