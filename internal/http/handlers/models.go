package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vidforge/internal/domain"
)

type modelView struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	DisplayName   string    `json:"display_name"`
	CostPerSecond int       `json:"cost_per_second"`
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func modelViewOf(m *domain.VideoModel) modelView {
	return modelView{
		ID:            m.ID,
		Slug:          m.Slug,
		DisplayName:   m.DisplayName,
		CostPerSecond: m.CostPerSecond,
		Enabled:       m.Enabled,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ModelsList returns the public catalog of enabled models.
func (a *App) ModelsList(w http.ResponseWriter, r *http.Request) {
	models, err := a.Models.ListEnabled(r.Context())
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]modelView, 0, len(models))
	for i := range models {
		items = append(items, modelViewOf(&models[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// ModelsListAll returns every catalog entry, disabled ones included.
// Admin only; the provider_ref stays internal even here.
func (a *App) ModelsListAll(w http.ResponseWriter, r *http.Request) {
	models, err := a.Models.ListAll(r.Context())
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]modelView, 0, len(models))
	for i := range models {
		items = append(items, modelViewOf(&models[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type modelUpsertRequest struct {
	Slug          string `json:"slug"`
	DisplayName   string `json:"display_name"`
	ProviderRef   string `json:"provider_ref"`
	CostPerSecond int    `json:"cost_per_second"`
	Enabled       *bool  `json:"enabled"`
}

func (req *modelUpsertRequest) validate() error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(req.Slug) == "" {
		verr.Add("slug", "is required")
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		verr.Add("display_name", "is required")
	}
	if strings.TrimSpace(req.ProviderRef) == "" {
		verr.Add("provider_ref", "is required")
	}
	if req.CostPerSecond < 1 {
		verr.Add("cost_per_second", "must be at least 1")
	}
	if verr.HasViolations() {
		return verr
	}
	return nil
}

// ModelsCreate adds a catalog entry.
func (a *App) ModelsCreate(w http.ResponseWriter, r *http.Request) {
	var req modelUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := req.validate(); err != nil {
		a.domainError(w, err)
		return
	}
	model := &domain.VideoModel{
		ID:            uuid.NewString(),
		Slug:          strings.TrimSpace(req.Slug),
		DisplayName:   strings.TrimSpace(req.DisplayName),
		ProviderRef:   strings.TrimSpace(req.ProviderRef),
		CostPerSecond: req.CostPerSecond,
		Enabled:       req.Enabled == nil || *req.Enabled,
	}
	if err := a.Models.Create(r.Context(), model); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, modelViewOf(model))
}

// ModelsUpdate rewrites a catalog entry.
func (a *App) ModelsUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req modelUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := req.validate(); err != nil {
		a.domainError(w, err)
		return
	}
	model := &domain.VideoModel{
		ID:            id,
		Slug:          strings.TrimSpace(req.Slug),
		DisplayName:   strings.TrimSpace(req.DisplayName),
		ProviderRef:   strings.TrimSpace(req.ProviderRef),
		CostPerSecond: req.CostPerSecond,
		Enabled:       req.Enabled == nil || *req.Enabled,
	}
	if err := a.Models.Update(r.Context(), model); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, modelViewOf(model))
}

// ModelsDelete removes a catalog entry.
func (a *App) ModelsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Models.Delete(r.Context(), id); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"id": id})
}
