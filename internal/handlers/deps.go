package handlers

import (
	"context"
	"encoding/json"

	"walletapi/internal/services"
	"walletapi/internal/store"
)

type AuthService interface {
	EnsureUserAndWallet(ctx context.Context, identity services.Identity) (store.User, error)
	IssueToken(user store.User) (string, error)
	GetUser(ctx context.Context, userID string) (store.User, error)
}

type WalletService interface {
	GetBalance(ctx context.Context, userID string) (services.BalanceResult, error)
	Transfer(ctx context.Context, userID, recipientNumber string, amountMinor int64) (services.TransferResult, error)
	ListTransactions(ctx context.Context, userID string, page, limit int) (services.TransactionPage, error)
}

type DepositService interface {
	InitiateDeposit(ctx context.Context, userID, email string, amountMinor int64) (services.DepositResult, error)
	CreditFromGatewayEvent(ctx context.Context, reference, reportedStatus string, amountMinor int64, payload json.RawMessage) error
	GetDepositStatus(ctx context.Context, reference, userID string) (services.DepositStatus, error)
}

type APIKeyService interface {
	Create(ctx context.Context, userID, name string, permissions []string, expiry string) (services.CreatedAPIKey, error)
	List(ctx context.Context, userID string) ([]services.APIKeySummary, error)
	Revoke(ctx context.Context, userID, keyID string) error
	Rollover(ctx context.Context, userID, keyID, expiry string) (services.CreatedAPIKey, error)
	Validate(ctx context.Context, plainKey string) (*services.ValidatedKey, error)
}
