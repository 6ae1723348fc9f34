package models

import (
	"time"

	"github.com/google/uuid"
)

// MembershipRole is the role of a user inside an agency.
type MembershipRole string

const (
	MemberRoleOwner   MembershipRole = "owner"
	MemberRoleAdmin   MembershipRole = "admin"
	MemberRoleCreator MembershipRole = "creator"
)

// MembershipStatus is the approval state of a membership.
type MembershipStatus string

const (
	MembershipPending MembershipStatus = "pending"
	MembershipActive  MembershipStatus = "active"
)

// Membership binds a user to an agency. A user holds at most one membership
// globally (enforced by a unique index on user_id).
type Membership struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	CorporationID uuid.UUID        `json:"corporation_id"`
	Role          MembershipRole   `json:"role"`
	Status        MembershipStatus `json:"status"`
	InvitedBy     *uuid.UUID       `json:"invited_by,omitempty"`
	JoinedAt      time.Time        `json:"joined_at"`
}
