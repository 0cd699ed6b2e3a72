package repo

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidforge/internal/domain"
	"vidforge/internal/infra"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := infra.Migrate(context.Background(), pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func TestAppendDebitChecksBalance(t *testing.T) {
	pool := testPool(t)
	credits := NewCreditRepository(pool)
	ctx := context.Background()
	userID := uuid.NewString()

	err := credits.Append(ctx, &domain.CreditEntry{ID: uuid.NewString(), UserID: userID, Amount: -5, Kind: domain.CreditKindCharge})
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("debit against empty ledger: %v", err)
	}

	if err := credits.Append(ctx, &domain.CreditEntry{ID: uuid.NewString(), UserID: userID, Amount: 5, Kind: domain.CreditKindTopUp}); err != nil {
		t.Fatalf("top-up: %v", err)
	}
	if err := credits.Append(ctx, &domain.CreditEntry{ID: uuid.NewString(), UserID: userID, Amount: -5, Kind: domain.CreditKindCharge}); err != nil {
		t.Fatalf("covered debit: %v", err)
	}
}

func TestAppendConcurrentDebitsCannotOverdraw(t *testing.T) {
	pool := testPool(t)
	credits := NewCreditRepository(pool)
	ctx := context.Background()
	userID := uuid.NewString()

	if err := credits.Append(ctx, &domain.CreditEntry{ID: uuid.NewString(), UserID: userID, Amount: 10, Kind: domain.CreditKindTopUp}); err != nil {
		t.Fatalf("top-up: %v", err)
	}

	// The balance only covers one of these; without per-user
	// serialization both statements sum the same snapshot and pass.
	const debits = 4
	errs := make([]error, debits)
	var wg sync.WaitGroup
	for i := 0; i < debits; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = credits.Append(ctx, &domain.CreditEntry{ID: uuid.NewString(), UserID: userID, Amount: -10, Kind: domain.CreditKindCharge})
		}(i)
	}
	wg.Wait()

	denied := 0
	for _, err := range errs {
		switch {
		case errors.Is(err, domain.ErrInsufficientCredits):
			denied++
		case err != nil:
			t.Fatalf("unexpected debit error: %v", err)
		}
	}
	if denied != debits-1 {
		t.Fatalf("expected %d denied debits, got %d", debits-1, denied)
	}

	balance, err := credits.Balance(ctx, userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("ledger overdrawn: balance=%d", balance)
	}
}
