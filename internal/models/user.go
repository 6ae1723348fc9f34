package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role on the platform.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCreator Role = "creator"
)

// User represents a platform user. TotalSubmissions and ApprovedSubmissions
// are denormalized counters bumped inside the same transaction as the
// submission write that triggers them.
type User struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	Password            string    `json:"-"`
	Username            string    `json:"username"`
	Role                Role      `json:"role"`
	TotalSubmissions    int       `json:"total_submissions"`
	ApprovedSubmissions int       `json:"approved_submissions"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	Username            string    `json:"username"`
	Role                Role      `json:"role"`
	TotalSubmissions    int       `json:"total_submissions"`
	ApprovedSubmissions int       `json:"approved_submissions"`
	CreatedAt           time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:                  u.ID,
		Email:               u.Email,
		Username:            u.Username,
		Role:                u.Role,
		TotalSubmissions:    u.TotalSubmissions,
		ApprovedSubmissions: u.ApprovedSubmissions,
		CreatedAt:           u.CreatedAt,
	}
}
