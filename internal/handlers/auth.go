package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"walletapi/internal/middleware"
	"walletapi/internal/services"
	"walletapi/internal/validator"
)

type sessionRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	GoogleID  string `json:"googleId"`
}

// CreateSession exchanges a verified identity for a session token, creating
// the user and their wallet on first sight.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.auth.EnsureUserAndWallet(r.Context(), services.Identity{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		GoogleID:  req.GoogleID,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not establish session")
		return
	}
	token, err := h.auth.IssueToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.auth.GetUser(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":        user.ID,
		"email":     user.Email,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"authType":  principal.Type,
	})
}
