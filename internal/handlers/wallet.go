package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"walletapi/internal/middleware"
	"walletapi/internal/money"
	"walletapi/internal/paystack"
	"walletapi/internal/services"
	"walletapi/internal/validator"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	balance, err := h.wallets.GetBalance(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, services.ErrWalletNotFound) {
			respondError(w, http.StatusNotFound, "wallet not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load balance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"balance":      balance.Balance,
		"currency":     balance.Currency,
		"walletNumber": balance.WalletNumber,
	})
}

type depositRequest struct {
	Amount json.Number `json:"amount"`
}

func (h *Handler) InitiateDeposit(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := money.ParseMajor(req.Amount.String())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.deposits.InitiateDeposit(r.Context(), principal.UserID, principal.Email, amountMinor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAmountBelowMinimum):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrWalletNotFound):
			respondError(w, http.StatusNotFound, "wallet not found")
		default:
			var apiErr *paystack.APIError
			if errors.As(err, &apiErr) {
				respondError(w, http.StatusBadGateway, "payment gateway error")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to initiate deposit")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"reference":        result.Reference,
		"authorizationUrl": result.AuthorizationURL,
		"accessCode":       result.AccessCode,
	})
}

func (h *Handler) GetDepositStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	reference := chi.URLParam(r, "reference")
	status, err := h.deposits.GetDepositStatus(r.Context(), reference, principal.UserID)
	if err != nil {
		switch {
		// A non-owner gets the same response as a missing reference, so the
		// endpoint never confirms that someone else's reference exists.
		case errors.Is(err, services.ErrTransactionNotFound),
			errors.Is(err, services.ErrNotTransactionOwner):
			respondError(w, http.StatusNotFound, "transaction not found")
		default:
			respondError(w, http.StatusInternalServerError, "failed to load deposit status")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"reference": status.Reference,
		"status":    status.Status,
		"amount":    status.Amount,
	})
}

type transferRequest struct {
	RecipientWalletNumber string      `json:"recipientWalletNumber"`
	Amount                json.Number `json:"amount"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateWalletNumber(req.RecipientWalletNumber); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amountMinor, err := money.ParseMajor(req.Amount.String())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.wallets.Transfer(r.Context(), principal.UserID, req.RecipientWalletNumber, amountMinor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrWalletNotFound):
			respondError(w, http.StatusNotFound, "wallet not found")
		case errors.Is(err, services.ErrRecipientNotFound):
			respondError(w, http.StatusNotFound, "recipient wallet not found")
		case errors.Is(err, services.ErrSelfTransfer):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrInsufficientFunds):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "transfer failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"amount":    result.Amount,
		"recipient": result.Recipient,
		"sender":    result.SenderNumber,
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := h.wallets.ListTransactions(r.Context(), principal.UserID, page, limit)
	if err != nil {
		if errors.Is(err, services.ErrWalletNotFound) {
			respondError(w, http.StatusNotFound, "wallet not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	transactions := make([]map[string]string, 0, len(result.Transactions))
	for _, txn := range result.Transactions {
		transactions = append(transactions, map[string]string{
			"id":          txn.ID,
			"type":        txn.Type,
			"status":      txn.Status,
			"amount":      txn.Amount,
			"description": txn.Description,
			"reference":   txn.Reference,
			"createdAt":   txn.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"total":        result.Total,
		"page":         result.Page,
		"limit":        result.Limit,
	})
}
