package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign lifecycle states
const (
	LifecycleDraft     = "draft"
	LifecycleLaunching = "launching"
	LifecycleActive    = "active"
	LifecyclePaused    = "paused"
	LifecycleScheduled = "scheduled"
	LifecycleFailed    = "failed"
)

// Valid lifecycle transitions: from -> []to. There is no path back to draft;
// any non-draft state may fail on a fatal remote error. launching -> launching
// covers repeated verification of an unconfirmed launch.
var ValidLifecycleTransitions = map[string][]string{
	LifecycleDraft:     {LifecycleLaunching, LifecycleFailed},
	LifecycleLaunching: {LifecycleLaunching, LifecycleActive, LifecyclePaused, LifecycleScheduled, LifecycleFailed},
	LifecycleActive:    {LifecycleLaunching, LifecycleActive, LifecyclePaused, LifecycleFailed},
	LifecyclePaused:    {LifecycleLaunching, LifecycleActive, LifecyclePaused, LifecycleFailed},
	LifecycleScheduled: {LifecycleLaunching, LifecycleActive, LifecyclePaused, LifecycleScheduled, LifecycleFailed},
	LifecycleFailed:    {LifecycleLaunching, LifecycleFailed},
}

func IsValidLifecycleTransition(from, to string) bool {
	allowed, ok := ValidLifecycleTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalLifecycle reports whether the reconciler should skip the campaign.
// Draft campaigns have nothing remote to reconcile; failed ones need an
// explicit relaunch.
func IsTerminalLifecycle(state string) bool {
	return state == LifecycleDraft || state == LifecycleFailed
}

type Campaign struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	GroupID     *uuid.UUID `json:"group_id,omitempty"`
	Name        string     `json:"name"`
	Objective   string     `json:"objective"`
	DailyBudget float64    `json:"daily_budget"`
	BudgetCap   float64    `json:"budget_cap"`

	// Remote id triple. A campaign with any of these set but not all three
	// is not yet fully published.
	RemoteCampaignID *string `json:"remote_campaign_id,omitempty"`
	RemoteAdSetID    *string `json:"remote_ad_set_id,omitempty"`
	RemoteAdID       *string `json:"remote_ad_id,omitempty"`

	LifecycleState   string         `json:"lifecycle_state"`
	LaunchAttempts   int            `json:"launch_attempts"`
	NeedsPoll        bool           `json:"needs_poll"`
	LastError        *string        `json:"last_error,omitempty"`
	LastSyncAt       *time.Time     `json:"last_sync_at,omitempty"`
	LastRemoteStatus map[string]any `json:"last_remote_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAllRemoteIDs reports whether the campaign is fully published remotely.
func (c *Campaign) HasAllRemoteIDs() bool {
	return c.RemoteCampaignID != nil && *c.RemoteCampaignID != "" &&
		c.RemoteAdSetID != nil && *c.RemoteAdSetID != "" &&
		c.RemoteAdID != nil && *c.RemoteAdID != ""
}

// RemoteIDs returns the triple in mutation order: campaign, ad set, ad.
func (c *Campaign) RemoteIDs() []string {
	ids := make([]string, 0, 3)
	for _, p := range []*string{c.RemoteCampaignID, c.RemoteAdSetID, c.RemoteAdID} {
		if p != nil && *p != "" {
			ids = append(ids, *p)
		}
	}
	return ids
}
