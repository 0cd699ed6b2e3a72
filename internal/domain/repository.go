package domain

import (
	"context"
	"time"
)

// JobUpdate carries the optional fields a status transition may set.
// Nil pointers leave the stored value untouched.
type JobUpdate struct {
	ExternalID   *string
	VideoURL     *string
	ThumbnailURL *string
	ErrorMessage *string
	ProviderJSON []byte
}

// JobRepository defines persistence for generation jobs.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	GetByID(ctx context.Context, jobID string) (*GenerationJob, error)
	// TransitionFrom applies update and sets status=next only when the
	// stored status still equals from; returns ErrConflict when the
	// precondition no longer holds and ErrNotFound when the row is gone.
	TransitionFrom(ctx context.Context, jobID string, from, next JobStatus, update JobUpdate) error
	Delete(ctx context.Context, jobID, userID string) error
	ListByUser(ctx context.Context, userID string, page, limit int) (*JobPage, error)
	// ListStaleProcessing returns processing jobs whose updated_at is
	// older than the bound, oldest first, for the background reconciler.
	ListStaleProcessing(ctx context.Context, olderThan time.Duration, limit int) ([]GenerationJob, error)
}

// ModelRepository defines persistence for the video model catalog.
type ModelRepository interface {
	Create(ctx context.Context, model *VideoModel) error
	Update(ctx context.Context, model *VideoModel) error
	Delete(ctx context.Context, id string) error
	GetBySlug(ctx context.Context, slug string) (*VideoModel, error)
	ListEnabled(ctx context.Context) ([]VideoModel, error)
	ListAll(ctx context.Context) ([]VideoModel, error)
}

// CreditRepository defines persistence for the credit ledger.
type CreditRepository interface {
	// Append inserts a ledger entry. Entries with negative amounts must
	// fail with ErrInsufficientCredits when they would push the user's
	// balance below zero.
	Append(ctx context.Context, entry *CreditEntry) error
	Balance(ctx context.Context, userID string) (int, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]CreditEntry, error)
}

// PaymentRepository records processed payment events for idempotency.
type PaymentRepository interface {
	// Record inserts the event; returns ErrDuplicateOperation when the
	// processor event id was already seen.
	Record(ctx context.Context, event *PaymentEvent) error
}
