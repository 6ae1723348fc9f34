package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies the social platform a submitted video lives on. It is
// an open string type so new platforms are a one-constant change.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
)

// Known reports whether the platform is one the portal accepts today.
func (p Platform) Known() bool {
	return p == PlatformTikTok || p == PlatformInstagram
}

// SubmissionStatus is the review state of a submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Terminal reports whether the status admits no further transition.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

// VideoSubmission is a creator-supplied social video link awaiting or having
// received an admin decision. VideoURL is unique system-wide; Status moves
// exactly once from pending to approved or rejected.
type VideoSubmission struct {
	ID              uuid.UUID        `json:"id"`
	CreatorID       uuid.UUID        `json:"creator_id"`
	CreatorUsername string           `json:"creator_username"`
	VideoURL        string           `json:"video_url"`
	Platform        Platform         `json:"platform"`
	Caption         string           `json:"caption,omitempty"`
	Hashtags        []string         `json:"hashtags,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Status          SubmissionStatus `json:"status"`
	AdminID         *uuid.UUID       `json:"admin_id,omitempty"`
	AdminFeedback   string           `json:"admin_feedback,omitempty"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
