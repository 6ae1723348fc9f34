package agencies

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

// Repository handles agency persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an agencies repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const agencyColumns = `id, name, display_name, description, industry, social_media,
	allow_public_join, require_approval, max_creators, owner_id, member_count, active_invites, created_at, updated_at`

func scanAgency(row pgx.Row) (*models.Agency, error) {
	var ag models.Agency
	err := row.Scan(&ag.ID, &ag.Name, &ag.DisplayName, &ag.Description, &ag.Industry, &ag.SocialMedia,
		&ag.Settings.AllowPublicJoin, &ag.Settings.RequireApproval, &ag.Settings.MaxCreators,
		&ag.OwnerID, &ag.MemberCount, &ag.ActiveInvites, &ag.CreatedAt, &ag.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ag, nil
}

// Create persists a new agency and its owner membership in one transaction,
// so member_count = 1 and the owner row commit together.
func (r *Repository) Create(ctx context.Context, ag *models.Agency) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO agencies (name, display_name, description, industry, social_media,
			allow_public_join, require_approval, max_creators, owner_id, member_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, q, ag.Name, ag.DisplayName, ag.Description, ag.Industry, ag.SocialMedia,
		ag.Settings.AllowPublicJoin, ag.Settings.RequireApproval, ag.Settings.MaxCreators, ag.OwnerID).
		Scan(&ag.ID, &ag.CreatedAt, &ag.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "agencies_name_key") {
			return domain.ErrSlugTaken
		}
		return err
	}
	ag.MemberCount = 1

	const mq = `INSERT INTO memberships (user_id, corporation_id, role, status) VALUES ($1, $2, $3, 'active')`
	if _, err := tx.Exec(ctx, mq, ag.OwnerID, ag.ID, string(models.MemberRoleOwner)); err != nil {
		if isUniqueViolation(err, "memberships_user_id_key") {
			return domain.ErrAlreadyMember
		}
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns an agency by ID, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	ag, err := scanAgency(r.pool.QueryRow(ctx, `SELECT `+agencyColumns+` FROM agencies WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ag, err
}

// ListPublic returns agencies that allow public joining.
func (r *Repository) ListPublic(ctx context.Context) ([]models.Agency, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+agencyColumns+` FROM agencies WHERE allow_public_join = TRUE ORDER BY display_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Agency
	for rows.Next() {
		var ag models.Agency
		if err := rows.Scan(&ag.ID, &ag.Name, &ag.DisplayName, &ag.Description, &ag.Industry, &ag.SocialMedia,
			&ag.Settings.AllowPublicJoin, &ag.Settings.RequireApproval, &ag.Settings.MaxCreators,
			&ag.OwnerID, &ag.MemberCount, &ag.ActiveInvites, &ag.CreatedAt, &ag.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, ag)
	}
	return list, rows.Err()
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}
