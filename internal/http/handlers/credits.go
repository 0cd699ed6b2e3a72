package handlers

import (
	"net/http"
	"strconv"
	"time"
)

type creditEntryView struct {
	ID        string    `json:"id"`
	Amount    int       `json:"amount"`
	Kind      string    `json:"kind"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreditsGet returns the caller's balance with recent ledger activity.
func (a *App) CreditsGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	balance, err := a.Billing.Balance(r.Context(), userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := a.Billing.RecentEntries(r.Context(), userID, limit)
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]creditEntryView, 0, len(entries))
	for _, e := range entries {
		items = append(items, creditEntryView{
			ID:        e.ID,
			Amount:    e.Amount,
			Kind:      string(e.Kind),
			Reference: e.Reference,
			CreatedAt: e.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{
		"balance": balance,
		"entries": items,
	})
}
