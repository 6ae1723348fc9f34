package models

import (
	"time"

	"github.com/google/uuid"
)

// Invite is a time- and use-bounded token granting a role within an agency
// upon redemption. IsActive is flipped off lazily, the first time a failed
// redemption discovers the invite is expired or exhausted.
type Invite struct {
	ID            uuid.UUID      `json:"id"`
	CorporationID uuid.UUID      `json:"corporation_id"`
	Code          string         `json:"invite_code"`
	Link          string         `json:"invite_link"`
	CreatedBy     uuid.UUID      `json:"created_by"`
	Role          MembershipRole `json:"role"`
	MaxUses       *int           `json:"max_uses,omitempty"` // nil = unlimited
	CurrentUses   int            `json:"current_uses"`
	ExpiresAt     time.Time      `json:"expires_at"`
	IsActive      bool           `json:"is_active"`
	Note          string         `json:"note,omitempty"`
	Email         string         `json:"email,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Redeemable reports whether the invite can still be redeemed at the given
// instant: active, not expired, and under its usage limit.
func (i *Invite) Redeemable(now time.Time) bool {
	if !i.IsActive || now.After(i.ExpiresAt) {
		return false
	}
	return i.MaxUses == nil || i.CurrentUses < *i.MaxUses
}
