package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"walletapi/internal/middleware"
	"walletapi/internal/services"
	"walletapi/internal/validator"

	"github.com/go-chi/chi/v5"
)

type createKeyRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Expiry      string   `json:"expiry"`
}

func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	created, err := h.apiKeys.Create(r.Context(), principal.UserID, req.Name, req.Permissions, req.Expiry)
	if err != nil {
		respondKeyError(w, err)
		return
	}
	// The only response that ever carries the plaintext key.
	respondJSON(w, http.StatusCreated, map[string]any{
		"key":         created.PlainKey,
		"prefix":      created.Prefix,
		"name":        created.Name,
		"permissions": created.Permissions,
		"expiresAt":   created.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	keys, err := h.apiKeys.List(r.Context(), principal.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list api keys")
		return
	}
	summaries := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		summaries = append(summaries, map[string]any{
			"id":          key.ID,
			"name":        key.Name,
			"prefix":      key.Prefix,
			"permissions": key.Permissions,
			"status":      key.Status,
			"expiresAt":   key.ExpiresAt.UTC().Format(time.RFC3339),
			"createdAt":   key.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"keys": summaries})
}

func (h *Handler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	keyID := chi.URLParam(r, "id")
	if err := h.apiKeys.Revoke(r.Context(), principal.UserID, keyID); err != nil {
		respondKeyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

type rolloverRequest struct {
	KeyID  string `json:"keyId"`
	Expiry string `json:"expiry"`
}

func (h *Handler) RolloverAPIKey(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req rolloverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	created, err := h.apiKeys.Rollover(r.Context(), principal.UserID, req.KeyID, req.Expiry)
	if err != nil {
		respondKeyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"key":         created.PlainKey,
		"prefix":      created.Prefix,
		"name":        created.Name,
		"permissions": created.Permissions,
		"expiresAt":   created.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func respondKeyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validator.ErrInvalidKeyName),
		errors.Is(err, validator.ErrInvalidPermissions),
		errors.Is(err, validator.ErrInvalidExpiry):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrKeyQuotaExceeded):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrKeyNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrKeyAlreadyRevoked),
		errors.Is(err, services.ErrKeyNotExpired):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "api key operation failed")
	}
}
