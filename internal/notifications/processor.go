// Package notifications drains the Redis job queue and records outbound
// emails for invite and review events. Actual SMTP delivery is delegated to
// the mail relay; the email_logs row is the contract with ops tooling.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorportal/backend/internal/models"
	"github.com/creatorportal/backend/pkg/queue"
)

// UserStore resolves recipients for review notifications.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// EmailLogStore persists email records.
type EmailLogStore interface {
	InsertEmailLog(ctx context.Context, log *models.EmailLog) error
}

// Processor consumes notification jobs from the queue.
type Processor struct {
	queue  *queue.Queue
	users  UserStore
	emails EmailLogStore
	logger *zap.Logger
}

// NewProcessor creates a notification processor.
func NewProcessor(q *queue.Queue, users UserStore, emails EmailLogStore, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{queue: q, users: users, emails: emails, logger: logger}
}

// Run dequeues and handles jobs until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	p.logger.Info("notification processor started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification processor stopped")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		if job == nil {
			continue
		}

		if err := p.handle(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			_ = p.queue.Retry(ctx, job)
		}
	}
}

func (p *Processor) handle(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeInviteEmail:
		var payload queue.InviteEmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal invite payload: %w", err)
		}
		return p.handleInvite(ctx, payload)
	case queue.JobTypeReviewNotification:
		var payload queue.ReviewNotificationPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal review payload: %w", err)
		}
		return p.handleReview(ctx, payload)
	default:
		p.logger.Warn("unknown job type", zap.String("type", string(job.Type)))
		return nil
	}
}

func (p *Processor) handleInvite(ctx context.Context, payload queue.InviteEmailPayload) error {
	subject := "You're invited to join " + payload.AgencyName
	body := fmt.Sprintf("Join %s on the creator portal: %s", payload.AgencyName, payload.InviteLink)
	log := &models.EmailLog{
		Kind:      models.EmailKindInvite,
		Recipient: payload.RecipientEmail,
		Subject:   subject,
		Body:      body,
		Status:    "sent",
	}
	if err := p.emails.InsertEmailLog(ctx, log); err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}
	p.logger.Info("invite email recorded",
		zap.String("invite_id", payload.InviteID.String()),
		zap.String("recipient", payload.RecipientEmail),
	)
	return nil
}

func (p *Processor) handleReview(ctx context.Context, payload queue.ReviewNotificationPayload) error {
	creator, err := p.users.GetByID(ctx, payload.CreatorID)
	if err != nil {
		return fmt.Errorf("load creator: %w", err)
	}
	if creator == nil {
		p.logger.Warn("creator gone, dropping review notification", zap.String("creator_id", payload.CreatorID.String()))
		return nil
	}

	subject := fmt.Sprintf("Your submission was %s", payload.Status)
	body := fmt.Sprintf("Your video %s was %s.", payload.VideoURL, payload.Status)
	if payload.Feedback != "" {
		body += " Feedback: " + payload.Feedback
	}
	log := &models.EmailLog{
		Kind:      models.EmailKindReview,
		Recipient: creator.Email,
		Subject:   subject,
		Body:      body,
		Status:    "sent",
	}
	if err := p.emails.InsertEmailLog(ctx, log); err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}
	p.logger.Info("review notification recorded",
		zap.String("submission_id", payload.SubmissionID.String()),
		zap.String("recipient", creator.Email),
	)
	return nil
}
