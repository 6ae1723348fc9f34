package memberships

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorportal/backend/internal/domain"
	"github.com/creatorportal/backend/internal/models"
)

// Repository handles membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a memberships repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const membershipColumns = `id, user_id, corporation_id, role, status, invited_by, joined_at`

// GetByUser returns the user's membership anywhere in the system, or nil.
// There is at most one; this is the already-a-member gate.
func (r *Repository) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1`, userID).
		Scan(&m.ID, &m.UserID, &m.CorporationID, &m.Role, &m.Status, &m.InvitedBy, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// HasAgencyAccess reports whether the user holds an active owner or admin
// membership in the agency.
func (r *Repository) HasAgencyAccess(ctx context.Context, agencyID, userID uuid.UUID) (bool, error) {
	var role models.MembershipRole
	err := r.pool.QueryRow(ctx,
		`SELECT role FROM memberships WHERE corporation_id = $1 AND user_id = $2 AND status = 'active'`,
		agencyID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == models.MemberRoleOwner || role == models.MemberRoleAdmin, nil
}

// Member is a membership row joined with user details for listing.
type Member struct {
	ID       uuid.UUID               `json:"id"`
	UserID   uuid.UUID               `json:"user_id"`
	Username string                  `json:"username"`
	Email    string                  `json:"email"`
	Role     models.MembershipRole   `json:"role"`
	Status   models.MembershipStatus `json:"status"`
	JoinedAt string                  `json:"joined_at"`
}

// ListByAgency returns the agency's members, newest join first.
func (r *Repository) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]Member, error) {
	const q = `SELECT m.id, m.user_id, u.username, u.email, m.role, m.status, m.joined_at
		FROM memberships m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.corporation_id = $1
		ORDER BY m.joined_at DESC`
	rows, err := r.pool.Query(ctx, q, agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Username, &m.Email, &m.Role, &m.Status, &m.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// CommitJoin applies the join write set in one transaction: the membership
// insert, the invite usage increment when joining via invite, and the agency
// member_count bump. All three commit together or not at all.
//
// The invite increment is conditional on current_uses < max_uses, so of two
// concurrent redemptions of the last remaining use exactly one commits; the
// loser rolls back and sees the expired-or-exhausted error.
func (r *Repository) CommitJoin(ctx context.Context, m *models.Membership, inviteID *uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const mq = `INSERT INTO memberships (id, user_id, corporation_id, role, status, invited_by, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.Exec(ctx, mq, m.ID, m.UserID, m.CorporationID, string(m.Role), string(m.Status), m.InvitedBy, m.JoinedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyMember
		}
		return err
	}

	if inviteID != nil {
		tag, err := tx.Exec(ctx,
			`UPDATE invites SET current_uses = current_uses + 1
			 WHERE id = $1 AND is_active = TRUE AND (max_uses IS NULL OR current_uses < max_uses)`, inviteID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrInviteExhausted
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE agencies SET member_count = member_count + 1, updated_at = NOW() WHERE id = $1`, m.CorporationID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Approve flips a pending membership to active.
func (r *Repository) Approve(ctx context.Context, agencyID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := r.pool.QueryRow(ctx,
		`UPDATE memberships SET status = 'active'
		 WHERE corporation_id = $1 AND user_id = $2 AND status = 'pending'
		 RETURNING `+membershipColumns, agencyID, userID).
		Scan(&m.ID, &m.UserID, &m.CorporationID, &m.Role, &m.Status, &m.InvitedBy, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.classifyPendingMiss(ctx, agencyID, userID)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RejectPending removes a pending membership and decrements member_count in
// the same transaction, preserving the member_count invariant.
func (r *Repository) RejectPending(ctx context.Context, agencyID, userID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM memberships WHERE corporation_id = $1 AND user_id = $2 AND status = 'pending'`,
		agencyID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.classifyPendingMiss(ctx, agencyID, userID)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE agencies SET member_count = GREATEST(member_count - 1, 0), updated_at = NOW() WHERE id = $1`, agencyID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// classifyPendingMiss distinguishes "no such membership" from "membership
// exists but is not pending" for approve/reject misses.
func (r *Repository) classifyPendingMiss(ctx context.Context, agencyID, userID uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM memberships WHERE corporation_id = $1 AND user_id = $2)`,
		agencyID, userID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrMembershipNotPending
	}
	return domain.ErrMembershipNotFound
}
