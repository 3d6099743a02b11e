package repositories

import (
	"context"
	"errors"

	"github.com/creator-ads/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCredentialNotFound = errors.New("platform credential not found")

// CredentialRepo reads the platform tokens written by the (out of scope)
// credential-management service.
type CredentialRepo struct {
	pool *pgxpool.Pool
}

func NewCredentialRepo(pool *pgxpool.Pool) *CredentialRepo {
	return &CredentialRepo{pool: pool}
}

func (r *CredentialRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.PlatformCredential, error) {
	var c models.PlatformCredential
	err := r.pool.QueryRow(ctx, `
		SELECT owner_id, access_token, ad_account_id, page_id, updated_at
		FROM platform_credentials WHERE owner_id = $1
	`, ownerID).Scan(&c.OwnerID, &c.AccessToken, &c.AdAccountID, &c.PageID, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
