package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"vidforge/internal/billing"
	"vidforge/internal/domain"
)

// webhookEvent mirrors the payment processor's delivery payload.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		UserID  string `json:"user_id"`
		Amount  int    `json:"amount"`
		Credits int    `json:"credits"`
	} `json:"data"`
}

// PaymentsWebhook ingests signed notifications from the hosted
// payment processor. Signature verification happens against the raw
// body; redeliveries are idempotent and acknowledged with 200 so the
// processor stops retrying.
func (a *App) PaymentsWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}
	signature := r.Header.Get("X-Webhook-Signature")
	if !billing.VerifySignature(a.WebhookSecret, body, signature) {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if event.ID == "" || event.Data.UserID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "event id and user_id are required")
		return
	}

	err = a.Billing.ApplyPaymentEvent(r.Context(), &domain.PaymentEvent{
		EventID: event.ID,
		UserID:  event.Data.UserID,
		Type:    event.Type,
		Amount:  event.Data.Amount,
		Credits: event.Data.Credits,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"received": event.ID})
}
