package models

import (
	"time"

	"github.com/google/uuid"
)

// Decision actions
const (
	ActionScaleUp         = "scale_up"
	ActionMaintain        = "maintain"
	ActionRotateCreative  = "rotate_creative"
	ActionTightenAudience = "tighten_audience"
	ActionPause           = "pause"
	ActionTestVariation   = "test_variation"
)

// Decision statuses
const (
	DecisionStatusPending  = "pending"
	DecisionStatusApplied  = "applied"
	DecisionStatusRejected = "rejected"
)

// Confidence levels shared by scores and decisions
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Score grades
const (
	GradeFail   = "fail"
	GradeWeak   = "weak"
	GradePass   = "pass"
	GradeStrong = "strong"
)

type Decision struct {
	ID                uuid.UUID `json:"id"`
	OwnerID           uuid.UUID `json:"owner_id"`
	CampaignID        uuid.UUID `json:"campaign_id"`
	Action            string    `json:"action"`
	Reason            string    `json:"reason"`
	ScoreUsed         float64   `json:"score_used"`
	Confidence        string    `json:"confidence"`
	RecommendedBudget *float64  `json:"recommended_budget,omitempty"`
	Guardrails        []string  `json:"guardrails"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// Score is produced by the external scoring collaborator and only consumed
// here; it is never persisted by this service.
type Score struct {
	Score      float64  `json:"score"`
	Grade      string   `json:"grade"`
	Confidence string   `json:"confidence"`
	Reasons    []string `json:"reasons,omitempty"`
}
