package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"vidforge/internal/billing"
	"vidforge/internal/domain"
	"vidforge/internal/generation"
	"vidforge/internal/middleware"
)

// App is the handler container holding every dependency the HTTP
// surface needs.
type App struct {
	Generation *generation.Service
	Billing    *billing.Service
	Models     domain.ModelRepository
	Logger     zerolog.Logger

	// WebhookSecret verifies payment processor deliveries.
	WebhookSecret string

	// Debug switches error responses from generic messages to full
	// detail; never enabled in production.
	Debug bool
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]string{"error": errCode, "message": msg})
}

// domainError translates service errors into the HTTP taxonomy.
func (a *App) domainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		a.json(w, http.StatusBadRequest, map[string]any{
			"error":      "validation_error",
			"message":    "one or more fields are invalid",
			"violations": verr.Violations,
		})
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrConflict):
		a.error(w, http.StatusBadRequest, "conflict", err.Error())
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits for this generation")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "insufficient permissions")
	case errors.Is(err, domain.ErrProviderFailure):
		a.error(w, http.StatusInternalServerError, "provider_error", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("unhandled error")
		msg := "internal error"
		if a.Debug {
			msg = err.Error()
		}
		a.error(w, http.StatusInternalServerError, "internal", msg)
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// jobView is the row projection every job endpoint responds with.
type jobView struct {
	GenerationID string    `json:"generation_id"`
	Status       string    `json:"status"`
	Prompt       string    `json:"prompt,omitempty"`
	Model        string    `json:"model,omitempty"`
	Duration     int       `json:"duration,omitempty"`
	AspectRatio  string    `json:"aspect_ratio,omitempty"`
	Resolution   string    `json:"resolution,omitempty"`
	VideoURL     *string   `json:"video_url,omitempty"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func viewOf(job *domain.GenerationJob) jobView {
	return jobView{
		GenerationID: job.ID,
		Status:       string(job.Status),
		Prompt:       job.Prompt,
		Model:        job.ModelSlug,
		Duration:     job.Duration,
		AspectRatio:  job.AspectRatio,
		Resolution:   job.Resolution,
		VideoURL:     job.VideoURL,
		ThumbnailURL: job.ThumbnailURL,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}
