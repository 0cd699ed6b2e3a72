package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vidforge/internal/domain"
	"vidforge/internal/provider"
)

// PredictionClient is the slice of the provider client the service
// depends on; tests substitute a stub.
type PredictionClient interface {
	CreatePrediction(ctx context.Context, in provider.CreateInput) (*provider.Prediction, error)
	GetPrediction(ctx context.Context, id string) (*provider.Prediction, error)
	CancelPrediction(ctx context.Context, id string) error
}

// Biller charges and refunds generation credits.
type Biller interface {
	Charge(ctx context.Context, userID string, amount int, reference string) error
	Refund(ctx context.Context, userID string, amount int, reference string) error
}

// Service drives the generation job lifecycle: submission, pull-based
// status reconciliation, cancellation, deletion and listing.
type Service struct {
	jobs         domain.JobRepository
	models       domain.ModelRepository
	predictions  PredictionClient
	biller       Biller
	logger       zerolog.Logger
	defaultModel string
}

type ServiceOptions struct {
	Jobs         domain.JobRepository
	Models       domain.ModelRepository
	Predictions  PredictionClient
	Biller       Biller
	Logger       zerolog.Logger
	DefaultModel string
}

func NewService(opts ServiceOptions) *Service {
	defaultModel := opts.DefaultModel
	if defaultModel == "" {
		defaultModel = "veo-3-fast"
	}
	return &Service{
		jobs:         opts.Jobs,
		models:       opts.Models,
		predictions:  opts.Predictions,
		biller:       opts.Biller,
		logger:       opts.Logger,
		defaultModel: defaultModel,
	}
}

// Submit validates the request, charges credits, records a pending
// job, then hands it to the provider. A provider rejection marks the
// job failed and refunds the charge; the row is kept so failed
// attempts stay visible in history.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (*domain.GenerationJob, error) {
	req.Normalize(s.defaultModel)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model, err := s.models.GetBySlug(ctx, req.Model)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			verr := &domain.ValidationError{}
			return nil, verr.Add("model", "unknown model")
		}
		return nil, err
	}
	if !model.Enabled {
		verr := &domain.ValidationError{}
		return nil, verr.Add("model", "model is disabled")
	}

	job := &domain.GenerationJob{
		ID:          uuid.NewString(),
		UserID:      userID,
		Prompt:      req.Prompt,
		Duration:    req.Duration,
		AspectRatio: req.AspectRatio,
		Resolution:  req.Resolution,
		ModelSlug:   model.Slug,
		Status:      domain.JobStatusPending,
	}
	if req.ImageURL != "" {
		job.ImageURL = &req.ImageURL
	}

	cost := model.CreditCost(req.Duration, req.Resolution)
	if err := s.biller.Charge(ctx, userID, cost, job.ID); err != nil {
		return nil, err
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		if rerr := s.biller.Refund(ctx, userID, cost, job.ID); rerr != nil {
			s.logger.Error().Err(rerr).Str("job_id", job.ID).Msg("refund after create failure")
		}
		return nil, err
	}

	pred, err := s.predictions.CreatePrediction(ctx, provider.CreateInput{
		Version:     model.ProviderRef,
		Prompt:      req.Prompt,
		ImageURL:    req.ImageURL,
		Duration:    req.Duration,
		AspectRatio: req.AspectRatio,
		Resolution:  req.Resolution,
		FPS:         DefaultFPS,
		CameraFixed: true,
	})
	if err != nil {
		msg := err.Error()
		if terr := s.jobs.TransitionFrom(ctx, job.ID, domain.JobStatusPending, domain.JobStatusFailed, domain.JobUpdate{ErrorMessage: &msg}); terr != nil {
			s.logger.Error().Err(terr).Str("job_id", job.ID).Msg("mark job failed after provider rejection")
		}
		if rerr := s.biller.Refund(ctx, userID, cost, job.ID); rerr != nil {
			s.logger.Error().Err(rerr).Str("job_id", job.ID).Msg("refund after provider rejection")
		}
		job.Status = domain.JobStatusFailed
		job.ErrorMessage = &msg
		return job, fmt.Errorf("%w: %s", domain.ErrProviderFailure, msg)
	}

	update := domain.JobUpdate{ExternalID: &pred.ID, ProviderJSON: pred.Raw}
	if err := s.jobs.TransitionFrom(ctx, job.ID, domain.JobStatusPending, domain.JobStatusProcessing, update); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatusProcessing
	job.ExternalID = &pred.ID
	return job, nil
}

// Reconcile refreshes a processing job against the provider and
// returns the current row. Jobs that are not in flight are returned
// verbatim without touching the provider; provider call failures are
// soft and leave the stored row untouched.
func (s *Service) Reconcile(ctx context.Context, userID, jobID string) (*domain.GenerationJob, error) {
	job, err := s.getOwned(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusProcessing || job.ExternalID == nil {
		return job, nil
	}

	changed, err := s.ReconcileJob(ctx, job)
	if err != nil {
		return nil, err
	}
	if !changed {
		return job, nil
	}
	return s.getOwned(ctx, userID, jobID)
}

// ReconcileJob polls the provider for one processing job and applies
// the observed terminal state, if any. It reports whether the stored
// row changed. Provider call failures are soft: the row is left
// untouched and the next poll retries. The background worker and the
// status endpoint share this path, so concurrent polls write the same
// values and the race stays benign.
func (s *Service) ReconcileJob(ctx context.Context, job *domain.GenerationJob) (bool, error) {
	if job.Status != domain.JobStatusProcessing || job.ExternalID == nil {
		return false, nil
	}

	pred, err := s.predictions.GetPrediction(ctx, *job.ExternalID)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("reconcile: provider poll failed, keeping last known state")
		return false, nil
	}

	switch {
	case pred.Succeeded():
		videoURL := pred.OutputURL()
		if videoURL == "" {
			// A completed row must carry a usable media reference; a
			// success report with no output is a provider bug and the
			// job is marked failed instead.
			msg := "provider reported success without output"
			update := domain.JobUpdate{ErrorMessage: &msg, ProviderJSON: pred.Raw}
			if err := s.jobs.TransitionFrom(ctx, job.ID, domain.JobStatusProcessing, domain.JobStatusFailed, update); err != nil && !errors.Is(err, domain.ErrConflict) {
				return false, err
			}
			return true, nil
		}
		update := domain.JobUpdate{VideoURL: &videoURL, ProviderJSON: pred.Raw}
		if pred.Thumbnail != "" {
			thumb := pred.Thumbnail
			update.ThumbnailURL = &thumb
		}
		if err := s.jobs.TransitionFrom(ctx, job.ID, domain.JobStatusProcessing, domain.JobStatusCompleted, update); err != nil && !errors.Is(err, domain.ErrConflict) {
			return false, err
		}
	case pred.Failed():
		msg := pred.Error
		if msg == "" {
			msg = "video generation failed"
		}
		update := domain.JobUpdate{ErrorMessage: &msg, ProviderJSON: pred.Raw}
		if err := s.jobs.TransitionFrom(ctx, job.ID, domain.JobStatusProcessing, domain.JobStatusFailed, update); err != nil && !errors.Is(err, domain.ErrConflict) {
			return false, err
		}
	default:
		return false, nil
	}
	return true, nil
}

// Cancel stops an in-flight job. Only processing jobs can be
// cancelled; a provider-side cancel failure is logged and swallowed
// since the local transition is authoritative.
func (s *Service) Cancel(ctx context.Context, userID, jobID string) (*domain.GenerationJob, error) {
	job, err := s.getOwned(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusProcessing {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrConflict, job.Status)
	}

	if job.ExternalID != nil {
		if err := s.predictions.CancelPrediction(ctx, *job.ExternalID); err != nil {
			s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("provider cancel failed, cancelling locally")
		}
	}

	if err := s.jobs.TransitionFrom(ctx, job.ID, domain.JobStatusProcessing, domain.JobStatusCancelled, domain.JobUpdate{}); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatusCancelled
	return job, nil
}

// Get returns the stored row without reconciliation.
func (s *Service) Get(ctx context.Context, userID, jobID string) (*domain.GenerationJob, error) {
	return s.getOwned(ctx, userID, jobID)
}

// Delete removes the row entirely. This is the only way out of a
// terminal state.
func (s *Service) Delete(ctx context.Context, userID, jobID string) error {
	return s.jobs.Delete(ctx, jobID, userID)
}

// List returns one page of the caller's jobs, newest first.
func (s *Service) List(ctx context.Context, userID string, page, limit int) (*domain.JobPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.jobs.ListByUser(ctx, userID, page, limit)
}

func (s *Service) getOwned(ctx context.Context, userID, jobID string) (*domain.GenerationJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}
