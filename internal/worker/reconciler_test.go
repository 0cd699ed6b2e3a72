package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vidforge/internal/domain"
	"vidforge/internal/generation"
	"vidforge/internal/provider"
)

type staleJobs struct {
	mu   sync.Mutex
	rows map[string]*domain.GenerationJob
}

func (f *staleJobs) Create(_ context.Context, job *domain.GenerationJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.rows[job.ID] = &cp
	return nil
}

func (f *staleJobs) GetByID(_ context.Context, jobID string) (*domain.GenerationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *staleJobs) TransitionFrom(_ context.Context, jobID string, from, next domain.JobStatus, update domain.JobUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if row.Status != from {
		return domain.ErrConflict
	}
	row.Status = next
	if update.VideoURL != nil {
		row.VideoURL = update.VideoURL
	}
	if update.ErrorMessage != nil {
		row.ErrorMessage = update.ErrorMessage
	}
	row.UpdatedAt = time.Now()
	return nil
}

func (f *staleJobs) Delete(context.Context, string, string) error { return nil }

func (f *staleJobs) ListByUser(context.Context, string, int, int) (*domain.JobPage, error) {
	return &domain.JobPage{}, nil
}

func (f *staleJobs) ListStaleProcessing(_ context.Context, olderThan time.Duration, limit int) ([]domain.GenerationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var items []domain.GenerationJob
	for _, row := range f.rows {
		if row.Status == domain.JobStatusProcessing && row.UpdatedAt.Before(cutoff) {
			items = append(items, *row)
		}
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

type sweepPredictions struct {
	status string
}

func (s *sweepPredictions) CreatePrediction(context.Context, provider.CreateInput) (*provider.Prediction, error) {
	return &provider.Prediction{ID: "pred-1", Status: provider.StateStarting}, nil
}

func (s *sweepPredictions) GetPrediction(_ context.Context, id string) (*provider.Prediction, error) {
	return &provider.Prediction{
		ID:     id,
		Status: s.status,
		Output: json.RawMessage(`"https://x/video.mp4"`),
	}, nil
}

func (s *sweepPredictions) CancelPrediction(context.Context, string) error { return nil }

type nopModels struct{}

func (nopModels) Create(context.Context, *domain.VideoModel) error { return nil }
func (nopModels) Update(context.Context, *domain.VideoModel) error { return nil }
func (nopModels) Delete(context.Context, string) error             { return nil }
func (nopModels) GetBySlug(context.Context, string) (*domain.VideoModel, error) {
	return nil, domain.ErrNotFound
}
func (nopModels) ListEnabled(context.Context) ([]domain.VideoModel, error) { return nil, nil }
func (nopModels) ListAll(context.Context) ([]domain.VideoModel, error)     { return nil, nil }

type nopBiller struct{}

func (nopBiller) Charge(context.Context, string, int, string) error { return nil }
func (nopBiller) Refund(context.Context, string, int, string) error { return nil }

func processingJob(id string, age time.Duration) *domain.GenerationJob {
	extID := "pred-" + id
	return &domain.GenerationJob{
		ID:         id,
		UserID:     "user-1",
		Prompt:     "p",
		Status:     domain.JobStatusProcessing,
		ExternalID: &extID,
		UpdatedAt:  time.Now().Add(-age),
	}
}

func TestSweepCompletesStaleJobs(t *testing.T) {
	jobs := &staleJobs{rows: make(map[string]*domain.GenerationJob)}
	_ = jobs.Create(context.Background(), processingJob("stale-1", time.Minute))
	_ = jobs.Create(context.Background(), processingJob("fresh-1", time.Second))

	svc := generation.NewService(generation.ServiceOptions{
		Jobs:        jobs,
		Models:      nopModels{},
		Predictions: &sweepPredictions{status: provider.StateSucceeded},
		Biller:      nopBiller{},
		Logger:      zerolog.Nop(),
	})
	rec := NewReconciler(ReconcilerOptions{
		Jobs:       jobs,
		Generation: svc,
		Logger:     zerolog.Nop(),
		StaleAfter: 30 * time.Second,
	})

	rec.Sweep(context.Background())

	stale, _ := jobs.GetByID(context.Background(), "stale-1")
	if stale.Status != domain.JobStatusCompleted {
		t.Fatalf("stale job not completed: %s", stale.Status)
	}
	if stale.VideoURL == nil || *stale.VideoURL != "https://x/video.mp4" {
		t.Fatalf("video url not recorded: %v", stale.VideoURL)
	}

	fresh, _ := jobs.GetByID(context.Background(), "fresh-1")
	if fresh.Status != domain.JobStatusProcessing {
		t.Fatalf("fresh job swept too early: %s", fresh.Status)
	}
}

func TestSweepLeavesInFlightJobs(t *testing.T) {
	jobs := &staleJobs{rows: make(map[string]*domain.GenerationJob)}
	_ = jobs.Create(context.Background(), processingJob("stale-1", time.Minute))

	svc := generation.NewService(generation.ServiceOptions{
		Jobs:        jobs,
		Models:      nopModels{},
		Predictions: &sweepPredictions{status: provider.StateProcessing},
		Biller:      nopBiller{},
		Logger:      zerolog.Nop(),
	})
	rec := NewReconciler(ReconcilerOptions{Jobs: jobs, Generation: svc, Logger: zerolog.Nop(), StaleAfter: 30 * time.Second})

	rec.Sweep(context.Background())

	job, _ := jobs.GetByID(context.Background(), "stale-1")
	if job.Status != domain.JobStatusProcessing {
		t.Fatalf("in-flight job mutated: %s", job.Status)
	}
}
