package submissions

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorportal/backend/internal/domain"
	"github.com/creatorportal/backend/internal/models"
)

// Store is the persistence surface the submission service needs.
type Store interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	CreateBatch(ctx context.Context, creatorID uuid.UUID, subs []*models.VideoSubmission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.VideoSubmission, error)
	Review(ctx context.Context, id, adminID uuid.UUID, status models.SubmissionStatus, feedback string, reviewedAt time.Time) (*models.VideoSubmission, error)
	List(ctx context.Context, f Filter) ([]models.VideoSubmission, error)
	Aggregate(ctx context.Context, agencyID *uuid.UUID, sinceMidnight time.Time) (*Stats, error)
}

// UserStore loads creators for username attribution.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service implements submission creation and the review state machine.
type Service struct {
	store  Store
	users  UserStore
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a submission service.
func NewService(store Store, users UserStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, users: users, now: time.Now, logger: logger}
}

// SubmitParams are the creator-supplied submission fields. At least one URL
// must be set.
type SubmitParams struct {
	TikTokURL    string
	InstagramURL string
	Caption      string
	Hashtags     string
	Notes        string
}

// Submit creates one pending submission per provided URL. Each URL is checked
// for system-wide uniqueness first; the creator's total_submissions counter
// grows by the number of URLs in this call.
func (s *Service) Submit(ctx context.Context, creatorID uuid.UUID, p SubmitParams) ([]*models.VideoSubmission, error) {
	type entry struct {
		platform models.Platform
		url      string
	}
	var entries []entry
	if u := trim(p.TikTokURL); u != "" {
		entries = append(entries, entry{models.PlatformTikTok, u})
	}
	if u := trim(p.InstagramURL); u != "" {
		entries = append(entries, entry{models.PlatformInstagram, u})
	}
	if len(entries) == 0 {
		return nil, domain.ErrNoVideoURL
	}

	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, &domain.Error{Kind: domain.KindNotFound, Message: "creator not found"}
	}

	for _, e := range entries {
		exists, err := s.store.ExistsByURL(ctx, e.url)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.DuplicateURL(e.url)
		}
	}

	tags := ParseHashtags(p.Hashtags)
	now := s.now()
	subs := make([]*models.VideoSubmission, 0, len(entries))
	for _, e := range entries {
		subs = append(subs, &models.VideoSubmission{
			ID:              uuid.New(),
			CreatorID:       creatorID,
			CreatorUsername: creator.Username,
			VideoURL:        e.url,
			Platform:        e.platform,
			Caption:         p.Caption,
			Hashtags:        tags,
			Notes:           p.Notes,
			Status:          models.SubmissionPending,
			SubmittedAt:     now,
		})
	}

	if err := s.store.CreateBatch(ctx, creatorID, subs); err != nil {
		return nil, err
	}
	s.logger.Info("submissions created",
		zap.String("creator_id", creatorID.String()),
		zap.Int("count", len(subs)),
	)
	return subs, nil
}

// Review actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Review applies an admin decision. The transition happens at most once:
// a submission whose status is no longer pending yields the conflict error
// regardless of the action. Approvals bump the creator's
// approved_submissions counter; rejections do not.
func (s *Service) Review(ctx context.Context, id, adminID uuid.UUID, action, feedback string) (*models.VideoSubmission, error) {
	var status models.SubmissionStatus
	switch action {
	case ActionApprove:
		status = models.SubmissionApproved
	case ActionReject:
		status = models.SubmissionRejected
	default:
		return nil, domain.ErrInvalidAction
	}

	sub, err := s.store.Review(ctx, id, adminID, status, feedback, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("submission reviewed",
		zap.String("submission_id", id.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("status", string(status)),
	)
	return sub, nil
}

// List returns submissions matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]models.VideoSubmission, error) {
	return s.store.List(ctx, f)
}

// GetStats computes aggregates over the submission set. The same-day count is
// bounded at local midnight.
func (s *Service) GetStats(ctx context.Context, agencyID *uuid.UUID) (*Stats, error) {
	return s.store.Aggregate(ctx, agencyID, StartOfDay(s.now()))
}

// StartOfDay returns local midnight of the instant's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
