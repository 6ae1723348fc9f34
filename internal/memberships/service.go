package memberships

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorportal/backend/internal/domain"
	"github.com/creatorportal/backend/internal/models"
)

// Store is the persistence surface the membership service needs.
type Store interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error)
	CommitJoin(ctx context.Context, m *models.Membership, inviteID *uuid.UUID) error
	Approve(ctx context.Context, agencyID, userID uuid.UUID) (*models.Membership, error)
	RejectPending(ctx context.Context, agencyID, userID uuid.UUID) error
}

// AgencyStore loads agencies. Implemented by the agencies repository.
type AgencyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error)
}

// InviteValidator validates invite codes. Implemented by the invite service.
type InviteValidator interface {
	Validate(ctx context.Context, code string) (*models.Invite, error)
}

// Service enforces the membership invariants: one membership per user
// globally, member_count maintained in the same atomic unit as the join, and
// approval gating per agency settings.
type Service struct {
	store    Store
	agencies AgencyStore
	invites  InviteValidator
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a membership service.
func NewService(store Store, agencies AgencyStore, invites InviteValidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		agencies: agencies,
		invites:  invites,
		now:      time.Now,
		logger:   logger,
	}
}

// JoinViaInvite redeems an invite code for the user. The membership insert,
// the invite usage increment, and the agency member_count bump commit in one
// transaction.
func (s *Service) JoinViaInvite(ctx context.Context, userID uuid.UUID, code string) (*models.Agency, error) {
	inv, err := s.invites.Validate(ctx, code)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyMember
	}

	ag, err := s.agencies.GetByID(ctx, inv.CorporationID)
	if err != nil {
		return nil, err
	}
	if ag == nil {
		return nil, domain.ErrAgencyNotFound
	}
	if ag.Settings.MaxCreators > 0 && ag.MemberCount >= ag.Settings.MaxCreators {
		return nil, domain.ErrAgencyFull
	}

	m := s.newMembership(userID, ag, inv.Role)
	m.InvitedBy = &inv.CreatedBy
	if err := s.store.CommitJoin(ctx, m, &inv.ID); err != nil {
		return nil, err
	}
	ag.MemberCount++

	s.logger.Info("joined via invite",
		zap.String("user_id", userID.String()),
		zap.String("agency_id", ag.ID.String()),
		zap.String("status", string(m.Status)),
	)
	return ag, nil
}

// JoinPublic joins the user to a publicly listed agency without an invite.
// Public join and approval gating are independent settings: a public agency
// that requires approval yields a pending membership, not a rejection.
func (s *Service) JoinPublic(ctx context.Context, userID, agencyID uuid.UUID) (*models.Agency, error) {
	ag, err := s.agencies.GetByID(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	if ag == nil {
		return nil, domain.ErrAgencyNotFound
	}
	if !ag.Settings.AllowPublicJoin {
		return nil, domain.ErrPublicJoinDisabled
	}

	existing, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyMember
	}
	if ag.Settings.MaxCreators > 0 && ag.MemberCount >= ag.Settings.MaxCreators {
		return nil, domain.ErrAgencyFull
	}

	m := s.newMembership(userID, ag, models.MemberRoleCreator)
	if err := s.store.CommitJoin(ctx, m, nil); err != nil {
		return nil, err
	}
	ag.MemberCount++

	s.logger.Info("joined public agency",
		zap.String("user_id", userID.String()),
		zap.String("agency_id", ag.ID.String()),
		zap.String("status", string(m.Status)),
	)
	return ag, nil
}

// GetMembership returns the user's membership, or nil when they have none.
func (s *Service) GetMembership(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	return s.store.GetByUser(ctx, userID)
}

// ApproveMembership flips a pending membership to active.
func (s *Service) ApproveMembership(ctx context.Context, agencyID, userID uuid.UUID) (*models.Membership, error) {
	return s.store.Approve(ctx, agencyID, userID)
}

// RejectMembership removes a pending membership.
func (s *Service) RejectMembership(ctx context.Context, agencyID, userID uuid.UUID) error {
	return s.store.RejectPending(ctx, agencyID, userID)
}

func (s *Service) newMembership(userID uuid.UUID, ag *models.Agency, role models.MembershipRole) *models.Membership {
	status := models.MembershipActive
	if ag.Settings.RequireApproval {
		status = models.MembershipPending
	}
	return &models.Membership{
		ID:            uuid.New(),
		UserID:        userID,
		CorporationID: ag.ID,
		Role:          role,
		Status:        status,
		JoinedAt:      s.now(),
	}
}
