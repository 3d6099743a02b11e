package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records every remote call attempt and lifecycle/sync action,
// success or failure. The log is append-only and never skipped.
type AuditLog struct {
	ID              uuid.UUID  `json:"id"`
	OwnerID         *uuid.UUID `json:"owner_id,omitempty"`
	ActorType       string     `json:"actor_type"` // user/system/worker
	Action          string     `json:"action"`
	EntityType      string     `json:"entity_type"`
	EntityID        *uuid.UUID `json:"entity_id,omitempty"`
	RequestSummary  *string    `json:"request_summary,omitempty"`
	ResponseSummary *string    `json:"response_summary,omitempty"`
	Success         bool       `json:"success"`
	Meta            any        `json:"meta,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
