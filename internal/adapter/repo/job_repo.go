package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidforge/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

const jobColumns = `id, user_id, prompt, image_url, duration, aspect_ratio, resolution, model_slug, status, external_id, video_url, thumbnail_url, error_message, provider_json, created_at, updated_at`

// Create inserts a new job row with status pending.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	query := `
INSERT INTO generation_jobs (id, user_id, prompt, image_url, duration, aspect_ratio, resolution, model_slug, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.UserID,
		job.Prompt,
		job.ImageURL,
		job.Duration,
		job.AspectRatio,
		job.Resolution,
		job.ModelSlug,
		job.Status,
	)
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM generation_jobs WHERE id = $1;`, jobID)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// TransitionFrom performs the conditional status update: the write
// only lands while the stored status still equals from, so a
// concurrent terminal transition can never be clobbered.
func (r *JobRepositoryPG) TransitionFrom(ctx context.Context, jobID string, from, next domain.JobStatus, update domain.JobUpdate) error {
	if !from.CanTransitionTo(next) {
		return domain.ErrConflict
	}
	query := `
UPDATE generation_jobs
SET status = $3,
    updated_at = NOW(),
    external_id = COALESCE($4, external_id),
    video_url = COALESCE($5, video_url),
    thumbnail_url = COALESCE($6, thumbnail_url),
    error_message = COALESCE($7, error_message),
    provider_json = COALESCE($8, provider_json)
WHERE id = $1 AND status = $2;
`
	tag, err := r.pool.Exec(ctx, query, jobID, from, next,
		update.ExternalID,
		update.VideoURL,
		update.ThumbnailURL,
		update.ErrorMessage,
		nullableBytes(update.ProviderJSON),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM generation_jobs WHERE id = $1);`, jobID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

// Delete removes the row entirely; scoped to the owning user.
func (r *JobRepositoryPG) Delete(ctx context.Context, jobID, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM generation_jobs WHERE id = $1 AND user_id = $2;`, jobID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByUser returns one page of the user's jobs, newest first.
func (r *JobRepositoryPG) ListByUser(ctx context.Context, userID string, page, limit int) (*domain.JobPage, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM generation_jobs WHERE user_id = $1;`, userID).Scan(&total); err != nil {
		return nil, err
	}

	offset := (page - 1) * limit
	rows, err := r.pool.Query(ctx, `SELECT `+jobColumns+` FROM generation_jobs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3;`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.GenerationJob, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &domain.JobPage{Items: items, Page: page, Limit: limit, Total: total}, nil
}

// ListStaleProcessing returns processing jobs that have not been
// touched within the staleness bound, oldest first.
func (r *JobRepositoryPG) ListStaleProcessing(ctx context.Context, olderThan time.Duration, limit int) ([]domain.GenerationJob, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM generation_jobs WHERE status = $1 AND updated_at < NOW() - ($2 * INTERVAL '1 second') ORDER BY updated_at ASC LIMIT $3;`,
		domain.JobStatusProcessing, olderThan.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *job)
	}
	return items, rows.Err()
}

func scanJob(row pgx.Row) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Prompt,
		&job.ImageURL,
		&job.Duration,
		&job.AspectRatio,
		&job.Resolution,
		&job.ModelSlug,
		&job.Status,
		&job.ExternalID,
		&job.VideoURL,
		&job.ThumbnailURL,
		&job.ErrorMessage,
		&job.ProviderJSON,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
