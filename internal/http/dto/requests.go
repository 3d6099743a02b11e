package dto

import "time"

type CreateCampaignRequest struct {
	Name        string  `json:"name"`
	Objective   string  `json:"objective"`
	DailyBudget float64 `json:"daily_budget"`
	BudgetCap   float64 `json:"budget_cap"`
	GroupID     *string `json:"group_id,omitempty"`
}

type UpdateCampaignRequest struct {
	Name             string  `json:"name"`
	Objective        string  `json:"objective"`
	DailyBudget      float64 `json:"daily_budget"`
	BudgetCap        float64 `json:"budget_cap"`
	GroupID          *string `json:"group_id,omitempty"`
	RemoteCampaignID *string `json:"remote_campaign_id,omitempty"`
	RemoteAdSetID    *string `json:"remote_ad_set_id,omitempty"`
	RemoteAdID       *string `json:"remote_ad_id,omitempty"`
}

type LaunchCampaignRequest struct {
	Mode      string     `json:"mode"` // active / paused / scheduled
	StartTime *time.Time `json:"start_time,omitempty"`
}

type SyncCampaignsRequest struct {
	GroupID *string `json:"group_id,omitempty"`
}

type EnsureAudiencesRequest struct {
	GoalKey   string   `json:"goal_key"`
	SeedTypes []string `json:"seed_types"`
}

type EnsureLookalikeRequest struct {
	GoalKey  string `json:"goal_key"`
	SeedType string `json:"seed_type"`
	Percent  int    `json:"percent"`
	Country  string `json:"country"`
}

type EnsureVideoRequest struct {
	Name     string `json:"name"`
	VideoURL string `json:"video_url"`
}

type DecideRequest struct {
	Score   ScoreInput   `json:"score"`
	Context ContextInput `json:"context"`
}

type ScoreInput struct {
	Score      float64  `json:"score"`
	Grade      string   `json:"grade"`
	Confidence string   `json:"confidence"`
	Reasons    []string `json:"reasons,omitempty"`
}

type ContextInput struct {
	CampaignID     string  `json:"campaign_id"`
	AutomationMode string  `json:"automation_mode"`
	CurrentBudget  float64 `json:"current_budget"`
	BudgetCap      float64 `json:"budget_cap"`
	DaysRunning    int     `json:"days_running"`
}
