package submissions

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorportal/backend/internal/domain"
	"github.com/creatorportal/backend/internal/models"
)

// Repository handles video submission persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a submissions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const submissionColumns = `id, creator_id, creator_username, video_url, platform, caption, hashtags, notes,
	status, admin_id, admin_feedback, submitted_at, reviewed_at, updated_at`

func scanSubmission(row pgx.Row) (*models.VideoSubmission, error) {
	var s models.VideoSubmission
	err := row.Scan(&s.ID, &s.CreatorID, &s.CreatorUsername, &s.VideoURL, &s.Platform, &s.Caption, &s.Hashtags,
		&s.Notes, &s.Status, &s.AdminID, &s.AdminFeedback, &s.SubmittedAt, &s.ReviewedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ExistsByURL reports whether any submission already carries the URL.
func (r *Repository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM video_submissions WHERE video_url = $1)`, url).Scan(&exists)
	return exists, err
}

// CreateBatch inserts the submissions and bumps the creator's
// total_submissions counter by the batch size in one transaction. A
// dual-platform submission counts as 2.
func (r *Repository) CreateBatch(ctx context.Context, creatorID uuid.UUID, subs []*models.VideoSubmission) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO video_submissions (id, creator_id, creator_username, video_url, platform, caption, hashtags, notes, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)
		RETURNING updated_at`
	for _, s := range subs {
		err := tx.QueryRow(ctx, q, s.ID, s.CreatorID, s.CreatorUsername, s.VideoURL, string(s.Platform),
			s.Caption, s.Hashtags, s.Notes, s.SubmittedAt).Scan(&s.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				// Backstop for the check-then-insert race on video_url.
				return domain.DuplicateURL(s.VideoURL)
			}
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET total_submissions = total_submissions + $2, updated_at = NOW() WHERE id = $1`,
		creatorID, len(subs)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns a submission by id, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.VideoSubmission, error) {
	s, err := scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM video_submissions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// Review applies the one-way state transition. The UPDATE predicate requires
// status = 'pending', so a submission is reviewed at most once; on approval
// the creator's approved_submissions counter is bumped in the same
// transaction. Returns the reviewed submission.
func (r *Repository) Review(ctx context.Context, id, adminID uuid.UUID, status models.SubmissionStatus, feedback string, reviewedAt time.Time) (*models.VideoSubmission, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE video_submissions
		SET status = $2, admin_id = $3, admin_feedback = $4, reviewed_at = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + submissionColumns
	s, err := scanSubmission(tx.QueryRow(ctx, q, id, string(status), adminID, feedback, reviewedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.classifyReviewMiss(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	if status == models.SubmissionApproved {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET approved_submissions = approved_submissions + 1, updated_at = NOW() WHERE id = $1`,
			s.CreatorID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) classifyReviewMiss(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM video_submissions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyReviewed
	}
	return domain.ErrSubmissionNotFound
}

// Filter narrows a submission listing.
type Filter struct {
	Status    models.SubmissionStatus
	CreatorID *uuid.UUID
	Limit     int
}

// List returns submissions newest first, optionally filtered by status and
// creator.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.VideoSubmission, error) {
	q := `SELECT ` + submissionColumns + ` FROM video_submissions WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, string(f.Status))
		q += ` AND status = $` + strconv.Itoa(len(args))
	}
	if f.CreatorID != nil {
		args = append(args, *f.CreatorID)
		q += ` AND creator_id = $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY submitted_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.VideoSubmission
	for rows.Next() {
		var s models.VideoSubmission
		if err := rows.Scan(&s.ID, &s.CreatorID, &s.CreatorUsername, &s.VideoURL, &s.Platform, &s.Caption,
			&s.Hashtags, &s.Notes, &s.Status, &s.AdminID, &s.AdminFeedback, &s.SubmittedAt, &s.ReviewedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// TopCreator is the creator with the most submissions in scope.
type TopCreator struct {
	CreatorID uuid.UUID `json:"creator_id"`
	Username  string    `json:"username"`
	Count     int       `json:"count"`
}

// Stats are the submission aggregates for the dashboard.
type Stats struct {
	Total      int         `json:"total"`
	Pending    int         `json:"pending"`
	Approved   int         `json:"approved"`
	Rejected   int         `json:"rejected"`
	Today      int         `json:"today"`
	TopCreator *TopCreator `json:"top_creator,omitempty"`
}

// Aggregate computes the stats by scanning the submission set, optionally
// scoped to creators of one agency. sinceMidnight bounds the same-day count.
func (r *Repository) Aggregate(ctx context.Context, agencyID *uuid.UUID, sinceMidnight time.Time) (*Stats, error) {
	var st Stats

	q := `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'approved'),
		COUNT(*) FILTER (WHERE status = 'rejected'),
		COUNT(*) FILTER (WHERE submitted_at >= $1)
		FROM video_submissions s`
	args := []any{sinceMidnight}
	if agencyID != nil {
		q += ` INNER JOIN memberships m ON m.user_id = s.creator_id WHERE m.corporation_id = $2`
		args = append(args, *agencyID)
	}
	if err := r.pool.QueryRow(ctx, q, args...).Scan(&st.Total, &st.Pending, &st.Approved, &st.Rejected, &st.Today); err != nil {
		return nil, err
	}

	tq := `SELECT s.creator_id, s.creator_username, COUNT(*) AS n FROM video_submissions s`
	targs := []any{}
	if agencyID != nil {
		tq += ` INNER JOIN memberships m ON m.user_id = s.creator_id WHERE m.corporation_id = $1`
		targs = append(targs, *agencyID)
	}
	tq += ` GROUP BY s.creator_id, s.creator_username ORDER BY n DESC LIMIT 1`
	var top TopCreator
	err := r.pool.QueryRow(ctx, tq, targs...).Scan(&top.CreatorID, &top.Username, &top.Count)
	if err == nil {
		st.TopCreator = &top
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return &st, nil
}

