package models

import (
	"time"

	"github.com/google/uuid"
)

// PlatformCredential holds the ads platform access for one owner. Rows are
// written by the credential-management service, which is outside this core;
// we only read them.
type PlatformCredential struct {
	OwnerID     uuid.UUID `json:"owner_id"`
	AccessToken string    `json:"-"`
	AdAccountID string    `json:"ad_account_id"`
	PageID      *string   `json:"page_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
