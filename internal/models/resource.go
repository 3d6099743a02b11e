package models

import (
	"time"

	"github.com/google/uuid"
)

// Remote resource types
const (
	ResourceTypeAudience  = "audience"
	ResourceTypeLookalike = "lookalike"
	ResourceTypeVideo     = "video"
)

// Remote resource statuses as reported by the platform
const (
	ResourceStatusPending = "pending"
	ResourceStatusReady   = "ready"
	ResourceStatusError   = "error"
)

// RemoteResource maps a logical key (owner_id, resource_type, name) to a
// remote platform object. At most one row may ever exist per logical key;
// only status is mutated after creation.
type RemoteResource struct {
	ID               uuid.UUID  `json:"id"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	ResourceType     string     `json:"resource_type"`
	Name             string     `json:"name"`
	RemoteID         string     `json:"remote_id"`
	Status           string     `json:"status"`
	ParentResourceID *uuid.UUID `json:"parent_resource_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
