package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vidforge/internal/generation"
)

// Generate accepts a new video generation request. The response is
// 201 once the provider has accepted the job; a provider rejection
// keeps the failed row and surfaces a 500.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generation.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	job, err := a.Generation.Submit(r.Context(), userID, req)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"generation_id": job.ID,
		"status":        job.Status,
	})
}

// Status returns the current row, reconciling against the provider
// first when the job is still in flight.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "id")
	job, err := a.Generation.Reconcile(r.Context(), userID, jobID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, viewOf(job))
}

// Cancel stops an in-flight job.
func (a *App) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "id")
	job, err := a.Generation.Cancel(r.Context(), userID, jobID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"generation_id": job.ID,
		"status":        job.Status,
	})
}

// Delete removes a job row entirely.
func (a *App) Delete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "id")
	if err := a.Generation.Delete(r.Context(), userID, jobID); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"generation_id": jobID})
}

// List returns one page of the caller's job history.
func (a *App) List(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := a.Generation.List(r.Context(), userID, page, limit)
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]jobView, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, viewOf(&result.Items[i]))
	}
	a.json(w, http.StatusOK, map[string]any{
		"items": items,
		"page":  result.Page,
		"limit": result.Limit,
		"total": result.Total,
	})
}
