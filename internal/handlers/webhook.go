package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"walletapi/internal/paystack"
)

type webhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type webhookChargeData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

// PaystackWebhook ingests gateway events. The signature is computed over the
// raw body, so the body must be read before any decoding. Unknown references
// and replayed events acknowledge with 200 so the gateway stops retrying.
func (h *Handler) PaystackWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	signature := r.Header.Get("X-Paystack-Signature")
	if !paystack.VerifySignature(h.cfg.PaystackSecretKey, body, signature) {
		respondError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if event.Event != "charge.success" {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	var charge webhookChargeData
	if err := json.Unmarshal(event.Data, &charge); err != nil {
		respondError(w, http.StatusBadRequest, "invalid charge data")
		return
	}
	if err := h.deposits.CreditFromGatewayEvent(r.Context(), charge.Reference, charge.Status, charge.Amount, event.Data); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to process event")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
