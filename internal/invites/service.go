package invites

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorportal/backend/internal/domain"
	"github.com/creatorportal/backend/internal/models"
)

// Store is the persistence surface the invite service needs.
type Store interface {
	Insert(ctx context.Context, inv *models.Invite) error
	GetActiveByCode(ctx context.Context, code string) (*models.Invite, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invite, error)
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
	ListActive(ctx context.Context, agencyID uuid.UUID) ([]models.Invite, error)
}

// Service generates, validates, and revokes invitation codes.
type Service struct {
	store             Store
	linkBaseURL       string
	defaultExpiryDays int
	now               func() time.Time
	logger            *zap.Logger
}

// NewService creates an invite service.
func NewService(store Store, linkBaseURL string, defaultExpiryDays int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:             store,
		linkBaseURL:       linkBaseURL,
		defaultExpiryDays: defaultExpiryDays,
		now:               time.Now,
		logger:            logger,
	}
}

// CreateParams are the issuer-supplied invite attributes.
type CreateParams struct {
	Role          models.MembershipRole
	MaxUses       *int
	ExpiresInDays int // 0 = service default
	Note          string
	Email         string
}

// Create issues a new invite for the agency. Always succeeds for well-formed
// input; the agency's active_invites counter is bumped in the same
// transaction as the insert.
func (s *Service) Create(ctx context.Context, agencyID, issuerID uuid.UUID, p CreateParams) (*models.Invite, error) {
	switch p.Role {
	case models.MemberRoleCreator, models.MemberRoleAdmin:
	default:
		return nil, domain.ErrInvalidRole
	}
	if p.MaxUses != nil && *p.MaxUses < 1 {
		return nil, &domain.Error{Kind: domain.KindValidation, Message: "max_uses must be at least 1"}
	}

	days := p.ExpiresInDays
	if days <= 0 {
		days = s.defaultExpiryDays
	}

	code := NewCode()
	inv := &models.Invite{
		ID:            uuid.New(),
		CorporationID: agencyID,
		Code:          code,
		Link:          s.linkBaseURL + "?code=" + code,
		CreatedBy:     issuerID,
		Role:          p.Role,
		MaxUses:       p.MaxUses,
		ExpiresAt:     s.now().AddDate(0, 0, days),
		IsActive:      true,
		Note:          p.Note,
		Email:         p.Email,
	}
	if err := s.store.Insert(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.Info("invite created",
		zap.String("invite_id", inv.ID.String()),
		zap.String("agency_id", agencyID.String()),
		zap.String("role", string(inv.Role)),
	)
	return inv, nil
}

// Validate looks up a redeemable invite by code. When the code matches an
// active invite that turns out to be expired or exhausted, the invite is
// lazily deactivated as a side effect and the caller gets the
// expired-or-exhausted error; a plain miss is a not-found.
func (s *Service) Validate(ctx context.Context, code string) (*models.Invite, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, domain.ErrInviteNotFound
	}
	inv, err := s.store.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrInviteNotFound
	}
	if !inv.Redeemable(s.now()) {
		if _, err := s.store.Deactivate(ctx, inv.ID); err != nil {
			// Lazy cleanup is best-effort; the redemption still fails.
			s.logger.Warn("lazy invite deactivation failed", zap.String("invite_id", inv.ID.String()), zap.Error(err))
		}
		return nil, domain.ErrInviteExhausted
	}
	return inv, nil
}

// ListActive returns the agency's active invites, newest first.
func (s *Service) ListActive(ctx context.Context, agencyID uuid.UUID) ([]models.Invite, error) {
	return s.store.ListActive(ctx, agencyID)
}

// Get returns an invite by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrInviteNotFound
	}
	return inv, nil
}

// Revoke deactivates an invite early. Revoking an already-inactive or unknown
// invite returns not-found.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrInviteNotFound
	}
	ok, err := s.store.Deactivate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInviteNotFound
	}
	inv.IsActive = false
	return inv, nil
}
