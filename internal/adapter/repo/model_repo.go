package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidforge/internal/domain"
)

// ModelRepositoryPG implements domain.ModelRepository.
type ModelRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewModelRepository creates a new model catalog repository backed by PostgreSQL.
func NewModelRepository(pool *pgxpool.Pool) *ModelRepositoryPG {
	return &ModelRepositoryPG{pool: pool}
}

const modelColumns = `id, slug, display_name, provider_ref, cost_per_second, enabled, created_at, updated_at`

// Create inserts a new catalog entry.
func (r *ModelRepositoryPG) Create(ctx context.Context, model *domain.VideoModel) error {
	query := `
INSERT INTO video_models (id, slug, display_name, provider_ref, cost_per_second, enabled)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := r.pool.Exec(ctx, query, model.ID, model.Slug, model.DisplayName, model.ProviderRef, model.CostPerSecond, model.Enabled)
	return err
}

// Update rewrites a catalog entry by id.
func (r *ModelRepositoryPG) Update(ctx context.Context, model *domain.VideoModel) error {
	query := `
UPDATE video_models
SET slug = $2,
    display_name = $3,
    provider_ref = $4,
    cost_per_second = $5,
    enabled = $6,
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, model.ID, model.Slug, model.DisplayName, model.ProviderRef, model.CostPerSecond, model.Enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a catalog entry.
func (r *ModelRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM video_models WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetBySlug fetches a catalog entry by its public slug.
func (r *ModelRepositoryPG) GetBySlug(ctx context.Context, slug string) (*domain.VideoModel, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+modelColumns+` FROM video_models WHERE slug = $1;`, slug)
	model, err := scanModel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return model, nil
}

// ListEnabled returns the public catalog.
func (r *ModelRepositoryPG) ListEnabled(ctx context.Context) ([]domain.VideoModel, error) {
	return r.list(ctx, `SELECT `+modelColumns+` FROM video_models WHERE enabled ORDER BY slug;`)
}

// ListAll returns every catalog entry, including disabled ones.
func (r *ModelRepositoryPG) ListAll(ctx context.Context) ([]domain.VideoModel, error) {
	return r.list(ctx, `SELECT `+modelColumns+` FROM video_models ORDER BY slug;`)
}

func (r *ModelRepositoryPG) list(ctx context.Context, query string) ([]domain.VideoModel, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.VideoModel
	for rows.Next() {
		model, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *model)
	}
	return items, rows.Err()
}

func scanModel(row pgx.Row) (*domain.VideoModel, error) {
	var model domain.VideoModel
	if err := row.Scan(
		&model.ID,
		&model.Slug,
		&model.DisplayName,
		&model.ProviderRef,
		&model.CostPerSecond,
		&model.Enabled,
		&model.CreatedAt,
		&model.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &model, nil
}
