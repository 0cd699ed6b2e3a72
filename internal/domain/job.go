package domain

import (
	"encoding/json"
	"time"
)

// JobStatus enumerates the generation job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Valid reports whether s is one of the known lifecycle states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the edge s -> next exists in the job
// state machine. pending may fail directly when the provider rejects
// the submission before the job ever starts running.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusFailed
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed || next == JobStatusCancelled
	}
	return false
}

// GenerationJob is one user-initiated video generation request.
type GenerationJob struct {
	ID           string
	UserID       string
	Prompt       string
	ImageURL     *string
	Duration     int
	AspectRatio  string
	Resolution   string
	ModelSlug    string
	Status       JobStatus
	ExternalID   *string
	VideoURL     *string
	ThumbnailURL *string
	ErrorMessage *string
	ProviderJSON json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobPage is one page of a user's job history, newest first.
type JobPage struct {
	Items []GenerationJob
	Page  int
	Limit int
	Total int
}
