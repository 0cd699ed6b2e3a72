package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"vidforge/internal/domain"
)

// CreditRepositoryPG implements domain.CreditRepository.
type CreditRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCreditRepository creates a new credit ledger repository backed by PostgreSQL.
func NewCreditRepository(pool *pgxpool.Pool) *CreditRepositoryPG {
	return &CreditRepositoryPG{pool: pool}
}

// Append inserts a ledger entry. Debits take a per-user advisory lock
// for the duration of the transaction, so the balance check always sees
// every committed charge: under READ COMMITTED a bare INSERT ... SELECT
// sums a statement snapshot and two concurrent debits could both pass.
func (r *CreditRepositoryPG) Append(ctx context.Context, entry *domain.CreditEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if entry.Amount < 0 {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('credit_ledger'), hashtext($1));`, entry.UserID); err != nil {
			return fmt.Errorf("lock ledger: %w", err)
		}
	}

	query := `
INSERT INTO credit_ledger (id, user_id, amount, kind, reference)
SELECT $1, $2, $3::int, $4, $5
WHERE $3::int >= 0
   OR COALESCE((SELECT SUM(amount) FROM credit_ledger WHERE user_id = $2), 0) + $3::int >= 0;
`
	tag, err := tx.Exec(ctx, query, entry.ID, entry.UserID, entry.Amount, entry.Kind, entry.Reference)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientCredits
	}
	return tx.Commit(ctx)
}

// Balance sums the user's ledger.
func (r *CreditRepositoryPG) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM credit_ledger WHERE user_id = $1;`, userID).Scan(&balance)
	return balance, err
}

// ListRecent returns the user's latest ledger entries, newest first.
func (r *CreditRepositoryPG) ListRecent(ctx context.Context, userID string, limit int) ([]domain.CreditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, amount, kind, reference, created_at FROM credit_ledger WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2;`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CreditEntry
	for rows.Next() {
		var entry domain.CreditEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Amount, &entry.Kind, &entry.Reference, &entry.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, entry)
	}
	return items, rows.Err()
}
