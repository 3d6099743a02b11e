package repositories

import (
	"context"
	"errors"

	"github.com/creator-ads/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrResourceNotFound = errors.New("remote resource not found")

type ResourceRepo struct {
	pool *pgxpool.Pool
}

func NewResourceRepo(pool *pgxpool.Pool) *ResourceRepo {
	return &ResourceRepo{pool: pool}
}

// GetByLogicalKey looks up a resource by its unique (owner, type, name) key.
func (r *ResourceRepo) GetByLogicalKey(ctx context.Context, ownerID uuid.UUID, resourceType, name string) (*models.RemoteResource, error) {
	var res models.RemoteResource
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, resource_type, name, remote_id, status, parent_resource_id, created_at
		FROM remote_resources
		WHERE owner_id = $1 AND resource_type = $2 AND name = $3
	`, ownerID, resourceType, name).Scan(&res.ID, &res.OwnerID, &res.ResourceType,
		&res.Name, &res.RemoteID, &res.Status, &res.ParentResourceID, &res.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ResourceRepo) Create(ctx context.Context, res *models.RemoteResource) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO remote_resources (owner_id, resource_type, name, remote_id, status, parent_resource_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, res.OwnerID, res.ResourceType, res.Name, res.RemoteID, res.Status, res.ParentResourceID,
	).Scan(&res.ID, &res.CreatedAt)
}

// UpdateStatus is the only permitted mutation after creation.
func (r *ResourceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE remote_resources SET status = $1 WHERE id = $2`, status, id)
	return err
}

func (r *ResourceRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, resourceType *string) ([]models.RemoteResource, error) {
	query := `
		SELECT id, owner_id, resource_type, name, remote_id, status, parent_resource_id, created_at
		FROM remote_resources WHERE owner_id = $1`
	args := []any{ownerID}
	if resourceType != nil {
		query += ` AND resource_type = $2`
		args = append(args, *resourceType)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []models.RemoteResource
	for rows.Next() {
		var res models.RemoteResource
		if err := rows.Scan(&res.ID, &res.OwnerID, &res.ResourceType, &res.Name,
			&res.RemoteID, &res.Status, &res.ParentResourceID, &res.CreatedAt); err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}
