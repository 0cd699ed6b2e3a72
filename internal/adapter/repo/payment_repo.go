package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"vidforge/internal/domain"
)

// PaymentRepositoryPG implements domain.PaymentRepository.
type PaymentRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new payment event repository backed by PostgreSQL.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepositoryPG {
	return &PaymentRepositoryPG{pool: pool}
}

// Record inserts the processor event. The unique index on event_id
// makes webhook redelivery detectable.
func (r *PaymentRepositoryPG) Record(ctx context.Context, event *domain.PaymentEvent) error {
	query := `
INSERT INTO payment_events (id, event_id, user_id, type, amount, credits)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (event_id) DO NOTHING;
`
	tag, err := r.pool.Exec(ctx, query, event.ID, event.EventID, event.UserID, event.Type, event.Amount, event.Credits)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateOperation
	}
	return nil
}
