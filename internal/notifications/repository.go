package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorportal/backend/internal/models"
)

// Repository persists outbound email records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notifications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertEmailLog records one outbound email.
func (r *Repository) InsertEmailLog(ctx context.Context, log *models.EmailLog) error {
	const q = `INSERT INTO email_logs (kind, recipient, subject, body, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, string(log.Kind), log.Recipient, log.Subject, log.Body, log.Status).
		Scan(&log.ID, &log.CreatedAt)
}

// ListRecent returns the newest email logs for ops inspection.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.EmailLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, kind, recipient, subject, body, status, created_at FROM email_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmailLog
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.Kind, &l.Recipient, &l.Subject, &l.Body, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
