package services

import (
	"context"
	"errors"
	"testing"

	"github.com/creator-ads/backend/internal/events"
	"github.com/creator-ads/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decideCtx(mode string, current, cap float64, days int) DecisionContext {
	return DecisionContext{
		CampaignID:     uuid.New(),
		AutomationMode: mode,
		CurrentBudget:  current,
		BudgetCap:      cap,
		DaysRunning:    days,
	}
}

func TestDecideScaleUpHighConfidence(t *testing.T) {
	d := Decide(
		models.Score{Score: 85, Confidence: models.ConfidenceHigh},
		decideCtx(AutomationAutonomous, 100, 200, 10),
	)

	assert.Equal(t, models.ActionScaleUp, d.Action)
	require.NotNil(t, d.RecommendedBudget)
	assert.InDelta(t, 125.0, *d.RecommendedBudget, 0.001)
	assert.Empty(t, d.Guardrails)
	assert.Equal(t, models.DecisionStatusPending, d.Status)
}

func TestDecideScaleUpMediumConfidenceUsesDefaultFactor(t *testing.T) {
	d := Decide(
		models.Score{Score: 90, Confidence: models.ConfidenceMedium},
		decideCtx(AutomationAutonomous, 100, 200, 10),
	)

	assert.Equal(t, models.ActionScaleUp, d.Action)
	require.NotNil(t, d.RecommendedBudget)
	assert.InDelta(t, 115.0, *d.RecommendedBudget, 0.001)
}

func TestDecideScaleUpClampedToCap(t *testing.T) {
	d := Decide(
		models.Score{Score: 85, Confidence: models.ConfidenceHigh},
		decideCtx(AutomationAutonomous, 190, 200, 10),
	)

	assert.Equal(t, models.ActionScaleUp, d.Action)
	require.NotNil(t, d.RecommendedBudget)
	assert.InDelta(t, 200.0, *d.RecommendedBudget, 0.001)
}

func TestDecideStrongButConstrained(t *testing.T) {
	tests := []struct {
		name string
		dctx DecisionContext
	}{
		{"manual mode", decideCtx(AutomationManual, 100, 200, 10)},
		{"budget at cap", decideCtx(AutomationAutonomous, 200, 200, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(models.Score{Score: 85, Confidence: models.ConfidenceHigh}, tt.dctx)
			assert.Equal(t, models.ActionMaintain, d.Action)
			assert.Nil(t, d.RecommendedBudget)
		})
	}
}

func TestDecideScoreBands(t *testing.T) {
	tests := []struct {
		score      float64
		confidence string
		want       string
	}{
		{79, models.ConfidenceHigh, models.ActionTestVariation},
		{60, models.ConfidenceHigh, models.ActionTestVariation},
		{59, models.ConfidenceHigh, models.ActionRotateCreative},
		{40, models.ConfidenceHigh, models.ActionRotateCreative},
		{39, models.ConfidenceHigh, models.ActionPause},
		{0, models.ConfidenceLow, models.ActionPause},
		// A high score with low confidence is not "strong" and falls through
		// to the next band.
		{85, models.ConfidenceLow, models.ActionTestVariation},
	}

	for _, tt := range tests {
		d := Decide(
			models.Score{Score: tt.score, Confidence: tt.confidence},
			decideCtx(AutomationAutonomous, 100, 200, 10),
		)
		assert.Equal(t, tt.want, d.Action, "score %.0f conf %s", tt.score, tt.confidence)
	}
}

func TestDecideGuardrails(t *testing.T) {
	d := Decide(
		models.Score{Score: 70, Confidence: models.ConfidenceLow},
		decideCtx(AutomationAutonomous, 100, 200, 1),
	)

	assert.Len(t, d.Guardrails, 2)
}

func TestDecideIsDeterministic(t *testing.T) {
	score := models.Score{Score: 85, Confidence: models.ConfidenceHigh}
	dctx := decideCtx(AutomationAutonomous, 100, 200, 10)

	first := Decide(score, dctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Decide(score, dctx))
	}
}

func TestDecideAndLogPersistsDecision(t *testing.T) {
	store := &fakeDecisionStore{}
	pub := &fakePublisher{}
	svc := NewDecisionService(store, pub, zap.NewNop())
	ownerID := uuid.New()

	d := svc.DecideAndLog(context.Background(),
		ownerID,
		models.Score{Score: 85, Confidence: models.ConfidenceHigh},
		decideCtx(AutomationAutonomous, 100, 200, 10),
	)

	assert.Equal(t, models.ActionScaleUp, d.Action)
	assert.Equal(t, ownerID, d.OwnerID)
	require.Len(t, store.created, 1)
	require.Len(t, pub.published, 1)
	assert.Equal(t, events.EventDecisionLogged, pub.published[0].Type)
}

func TestDecideAndLogPreservesFractionalScore(t *testing.T) {
	store := &fakeDecisionStore{}
	svc := NewDecisionService(store, &fakePublisher{}, zap.NewNop())

	d := svc.DecideAndLog(context.Background(),
		uuid.New(),
		models.Score{Score: 72.5, Confidence: models.ConfidenceMedium},
		decideCtx(AutomationAutonomous, 100, 200, 10),
	)

	// The persisted row carries the same fractional score the caller gets back.
	assert.InDelta(t, 72.5, d.ScoreUsed, 0.001)
	require.Len(t, store.created, 1)
	assert.InDelta(t, 72.5, store.created[0].ScoreUsed, 0.001)
}

func TestDecideAndLogSwallowsPersistenceFailure(t *testing.T) {
	store := &fakeDecisionStore{createErr: errors.New("db down")}
	pub := &fakePublisher{}
	svc := NewDecisionService(store, pub, zap.NewNop())

	d := svc.DecideAndLog(context.Background(),
		uuid.New(),
		models.Score{Score: 85, Confidence: models.ConfidenceHigh},
		decideCtx(AutomationAutonomous, 100, 200, 10),
	)

	// The computed decision is still returned; nothing is published.
	assert.Equal(t, models.ActionScaleUp, d.Action)
	assert.Empty(t, pub.published)
}
