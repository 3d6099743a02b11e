package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/creator-ads/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const campaignColumns = `id, owner_id, group_id, name, objective, daily_budget, budget_cap,
	       remote_campaign_id, remote_ad_set_id, remote_ad_id,
	       lifecycle_state, launch_attempts, needs_poll, last_error,
	       last_sync_at, last_remote_status, created_at, updated_at`

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(&c.ID, &c.OwnerID, &c.GroupID, &c.Name, &c.Objective,
		&c.DailyBudget, &c.BudgetCap,
		&c.RemoteCampaignID, &c.RemoteAdSetID, &c.RemoteAdID,
		&c.LifecycleState, &c.LaunchAttempts, &c.NeedsPoll, &c.LastError,
		&c.LastSyncAt, &c.LastRemoteStatus, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	if c.LifecycleState == "" {
		c.LifecycleState = models.LifecycleDraft
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (owner_id, group_id, name, objective, daily_budget, budget_cap,
		                       remote_campaign_id, remote_ad_set_id, remote_ad_id, lifecycle_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, c.OwnerID, c.GroupID, c.Name, c.Objective, c.DailyBudget, c.BudgetCap,
		c.RemoteCampaignID, c.RemoteAdSetID, c.RemoteAdID, c.LifecycleState,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return scanCampaign(r.pool.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
}

// UpdateDraft updates editable fields; lifecycle_state is never touched here.
func (r *CampaignRepo) UpdateDraft(ctx context.Context, c *models.Campaign) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET name = $1, objective = $2, daily_budget = $3, budget_cap = $4,
		       group_id = $5, remote_campaign_id = $6, remote_ad_set_id = $7, remote_ad_id = $8,
		       updated_at = now()
		WHERE id = $9
	`, c.Name, c.Objective, c.DailyBudget, c.BudgetCap, c.GroupID,
		c.RemoteCampaignID, c.RemoteAdSetID, c.RemoteAdID, c.ID)
	return err
}

// BeginLaunch moves a campaign into launching, bumping launch_attempts and
// clearing last_error, compare-and-swapped against the state the caller read.
// Zero rows affected means a concurrent operation won the transition.
func (r *CampaignRepo) BeginLaunch(ctx context.Context, id uuid.UUID, fromState string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET lifecycle_state = $1, launch_attempts = launch_attempts + 1,
		    last_error = NULL, needs_poll = FALSE, updated_at = now()
		WHERE id = $2 AND lifecycle_state = $3
	`, models.LifecycleLaunching, id, fromState)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetLifecycleResult persists the outcome of a launch or reconciliation.
func (r *CampaignRepo) SetLifecycleResult(ctx context.Context, id uuid.UUID, state string, needsPoll bool, lastError *string, remoteStatus map[string]any) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET lifecycle_state = $1, needs_poll = $2, last_error = $3,
		    last_remote_status = $4, last_sync_at = $5, updated_at = now()
		WHERE id = $6
	`, state, needsPoll, lastError, remoteStatus, time.Now().UTC(), id)
	return err
}

type CampaignFilter struct {
	OwnerID     *uuid.UUID
	GroupID     *uuid.UUID
	State       *string
	NonTerminal bool
	NeedsPoll   *bool
	Limit       int
	Offset      int
}

func (r *CampaignRepo) List(ctx context.Context, f CampaignFilter) ([]models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.OwnerID != nil {
		where = append(where, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, *f.OwnerID)
		argIdx++
	}
	if f.GroupID != nil {
		where = append(where, fmt.Sprintf("group_id = $%d", argIdx))
		args = append(args, *f.GroupID)
		argIdx++
	}
	if f.State != nil {
		where = append(where, fmt.Sprintf("lifecycle_state = $%d", argIdx))
		args = append(args, *f.State)
		argIdx++
	}
	if f.NonTerminal {
		where = append(where, fmt.Sprintf("lifecycle_state NOT IN ($%d, $%d)", argIdx, argIdx+1))
		args = append(args, models.LifecycleDraft, models.LifecycleFailed)
		argIdx += 2
	}
	if f.NeedsPoll != nil {
		where = append(where, fmt.Sprintf("needs_poll = $%d", argIdx))
		args = append(args, *f.NeedsPoll)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}
