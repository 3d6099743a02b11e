package events

import "context"

// Event types
const (
	EventCampaignLifecycleChanged = "campaign_lifecycle_changed"
	EventDecisionLogged           = "decision_logged"
	EventResourceProvisioned      = "resource_provisioned"
)

// Streams
const (
	StreamCampaigns = "events:campaign"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
