package invites

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorportal/backend/internal/models"
)

// Repository handles invite persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an invites repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const inviteColumns = `id, corporation_id, code, link, created_by, role, max_uses, current_uses, expires_at, is_active, note, email, created_at`

func scanInvite(row pgx.Row) (*models.Invite, error) {
	var inv models.Invite
	err := row.Scan(&inv.ID, &inv.CorporationID, &inv.Code, &inv.Link, &inv.CreatedBy, &inv.Role,
		&inv.MaxUses, &inv.CurrentUses, &inv.ExpiresAt, &inv.IsActive, &inv.Note, &inv.Email, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Insert persists a new invite and bumps the agency's active_invites counter
// in the same transaction.
func (r *Repository) Insert(ctx context.Context, inv *models.Invite) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO invites (id, corporation_id, code, link, created_by, role, max_uses, current_uses, expires_at, is_active, note, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, TRUE, $9, $10)
		RETURNING created_at`
	err = tx.QueryRow(ctx, q, inv.ID, inv.CorporationID, inv.Code, inv.Link, inv.CreatedBy,
		string(inv.Role), inv.MaxUses, inv.ExpiresAt, inv.Note, inv.Email).Scan(&inv.CreatedAt)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE agencies SET active_invites = active_invites + 1, updated_at = NOW() WHERE id = $1`, inv.CorporationID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetActiveByCode returns the active invite with the given code, or nil when
// no active invite matches.
func (r *Repository) GetActiveByCode(ctx context.Context, code string) (*models.Invite, error) {
	inv, err := scanInvite(r.pool.QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE code = $1 AND is_active = TRUE`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

// GetByID returns an invite by id, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	inv, err := scanInvite(r.pool.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

// Deactivate flips is_active off and decrements the agency counter. The WHERE
// clause makes it idempotent: an already-inactive invite is a no-op.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var corporationID uuid.UUID
	err = tx.QueryRow(ctx,
		`UPDATE invites SET is_active = FALSE WHERE id = $1 AND is_active = TRUE RETURNING corporation_id`, id).
		Scan(&corporationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE agencies SET active_invites = GREATEST(active_invites - 1, 0), updated_at = NOW() WHERE id = $1`, corporationID); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

// ListActive returns the agency's active invites, newest first. Expired but
// not-yet-deactivated invites are included; display layers check expires_at
// and max_uses themselves.
func (r *Repository) ListActive(ctx context.Context, agencyID uuid.UUID) ([]models.Invite, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE corporation_id = $1 AND is_active = TRUE ORDER BY created_at DESC`, agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Invite
	for rows.Next() {
		var inv models.Invite
		if err := rows.Scan(&inv.ID, &inv.CorporationID, &inv.Code, &inv.Link, &inv.CreatedBy, &inv.Role,
			&inv.MaxUses, &inv.CurrentUses, &inv.ExpiresAt, &inv.IsActive, &inv.Note, &inv.Email, &inv.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}
