package models

import (
	"time"

	"github.com/google/uuid"
)

// AgencySettings controls how creators may join an agency. AllowPublicJoin
// and RequireApproval are independent, composable flags.
type AgencySettings struct {
	AllowPublicJoin bool `json:"allow_public_join"`
	RequireApproval bool `json:"require_approval"`
	MaxCreators     int  `json:"max_creators"` // 0 = unlimited
}

// Agency represents a tenant organization that recruits creators and reviews
// their submissions. MemberCount and ActiveInvites are denormalized counters
// maintained by increment-on-write, never by recount.
type Agency struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"` // normalized slug
	DisplayName   string            `json:"display_name"`
	Description   string            `json:"description"`
	Industry      string            `json:"industry"`
	SocialMedia   map[string]string `json:"social_media"`
	Settings      AgencySettings    `json:"settings"`
	OwnerID       uuid.UUID         `json:"owner_id"`
	MemberCount   int               `json:"member_count"`
	ActiveInvites int               `json:"active_invites"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
