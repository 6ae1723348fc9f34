package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailKind identifies what triggered an outbound email.
type EmailKind string

const (
	EmailKindInvite EmailKind = "invite"
	EmailKindReview EmailKind = "review"
)

// EmailLog records one outbound notification email handled by the worker.
type EmailLog struct {
	ID        uuid.UUID `json:"id"`
	Kind      EmailKind `json:"kind"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"` // queued, sent, failed
	CreatedAt time.Time `json:"created_at"`
}
