package services

import (
	"context"
	"fmt"

	"github.com/creator-ads/backend/internal/events"
	"github.com/creator-ads/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Automation modes
const (
	AutomationAutonomous = "autonomous"
	AutomationManual     = "manual"
)

// Budget scale factors by score confidence
const (
	scaleFactorHigh    = 1.25
	scaleFactorDefault = 1.15
)

// DecisionContext carries the campaign-side inputs of a decision.
type DecisionContext struct {
	CampaignID     uuid.UUID `json:"campaign_id"`
	AutomationMode string    `json:"automation_mode"`
	CurrentBudget  float64   `json:"current_budget"`
	BudgetCap      float64   `json:"budget_cap"`
	DaysRunning    int       `json:"days_running"`
}

// Decide maps a performance score and campaign context to a recommended
// action. The rule table is evaluated top to bottom, first match wins;
// guardrail notes are appended regardless of which rule fired. Pure function:
// no side effects, always succeeds on valid inputs.
func Decide(score models.Score, dctx DecisionContext) models.Decision {
	d := models.Decision{
		CampaignID: dctx.CampaignID,
		ScoreUsed:  score.Score,
		Confidence: score.Confidence,
		Guardrails: []string{},
		Status:     models.DecisionStatusPending,
	}

	strong := score.Score >= 80 && score.Confidence != models.ConfidenceLow

	switch {
	case strong && dctx.AutomationMode == AutomationAutonomous && dctx.CurrentBudget < dctx.BudgetCap:
		factor := scaleFactorDefault
		if score.Confidence == models.ConfidenceHigh {
			factor = scaleFactorHigh
		}
		recommended := dctx.CurrentBudget * factor
		if recommended > dctx.BudgetCap {
			recommended = dctx.BudgetCap
		}
		d.Action = models.ActionScaleUp
		d.RecommendedBudget = &recommended
		d.Reason = fmt.Sprintf("score %.0f with %s confidence supports scaling budget to %.2f", score.Score, score.Confidence, recommended)

	case strong:
		d.Action = models.ActionMaintain
		d.Reason = "strong performance, but autonomous mode is disabled or budget is at cap"

	case score.Score >= 60:
		d.Action = models.ActionTestVariation
		d.Reason = fmt.Sprintf("score %.0f is promising; test a creative or audience variation", score.Score)

	case score.Score >= 40:
		d.Action = models.ActionRotateCreative
		d.Reason = fmt.Sprintf("score %.0f suggests creative fatigue; rotate creative", score.Score)

	case score.Score < 40:
		d.Action = models.ActionPause
		d.Reason = fmt.Sprintf("score %.0f is below the pause threshold", score.Score)

	default:
		d.Action = models.ActionMaintain
		d.Reason = "no rule matched; holding steady"
	}

	if score.Confidence == models.ConfidenceLow {
		d.Guardrails = append(d.Guardrails, "low confidence in score; treat the recommendation as advisory")
	}
	if dctx.DaysRunning < 3 {
		d.Guardrails = append(d.Guardrails, "campaign has been running under 3 days; metrics may not be stable yet")
	}

	return d
}

// DecisionService wraps the pure engine with decision logging.
type DecisionService struct {
	decisions decisionStore
	publisher events.Publisher
	log       *zap.Logger
}

func NewDecisionService(decisions decisionStore, publisher events.Publisher, log *zap.Logger) *DecisionService {
	return &DecisionService{decisions: decisions, publisher: publisher, log: log}
}

// DecideAndLog computes the decision and persists it as a pending action.
// Persistence failures are logged but never propagated: the computed decision
// is still valid and returned to the caller.
func (s *DecisionService) DecideAndLog(ctx context.Context, ownerID uuid.UUID, score models.Score, dctx DecisionContext) models.Decision {
	d := Decide(score, dctx)
	d.OwnerID = ownerID

	if err := s.decisions.Create(ctx, &d); err != nil {
		s.log.Warn("failed to persist decision",
			zap.String("campaign_id", dctx.CampaignID.String()),
			zap.String("action", d.Action),
			zap.Error(err),
		)
		return d
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.StreamCampaigns, events.Event{
			Type: events.EventDecisionLogged,
			Payload: map[string]any{
				"campaign_id": dctx.CampaignID.String(),
				"owner_id":    ownerID.String(),
				"action":      d.Action,
			},
		})
	}

	return d
}
