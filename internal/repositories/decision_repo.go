package repositories

import (
	"context"
	"fmt"

	"github.com/creator-ads/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DecisionRepo struct {
	pool *pgxpool.Pool
}

func NewDecisionRepo(pool *pgxpool.Pool) *DecisionRepo {
	return &DecisionRepo{pool: pool}
}

// Create appends a decision row. Decisions are append-only; only status may
// change later when an operator applies or rejects them.
func (r *DecisionRepo) Create(ctx context.Context, d *models.Decision) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO decisions (owner_id, campaign_id, action, reason, score_used,
		                       confidence, recommended_budget, guardrails, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, d.OwnerID, d.CampaignID, d.Action, d.Reason, d.ScoreUsed,
		d.Confidence, d.RecommendedBudget, d.Guardrails, d.Status,
	).Scan(&d.ID, &d.CreatedAt)
}

func (r *DecisionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE decisions SET status = $1 WHERE id = $2`, status, id)
	return err
}

func (r *DecisionRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, campaignID *uuid.UUID, limit, offset int) ([]models.Decision, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, owner_id, campaign_id, action, reason, score_used,
		       confidence, recommended_budget, guardrails, status, created_at
		FROM decisions WHERE owner_id = $1`
	args := []any{ownerID}
	argIdx := 2
	if campaignID != nil {
		query += ` AND campaign_id = $2`
		args = append(args, *campaignID)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []models.Decision
	for rows.Next() {
		var d models.Decision
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.CampaignID, &d.Action, &d.Reason,
			&d.ScoreUsed, &d.Confidence, &d.RecommendedBudget, &d.Guardrails,
			&d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
