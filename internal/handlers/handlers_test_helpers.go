package handlers

import (
	"context"
	"encoding/json"

	"walletapi/internal/config"
	"walletapi/internal/services"
	"walletapi/internal/store"
	"walletapi/internal/websocket"
)

type stubAuthService struct {
	ensureFn  func(ctx context.Context, identity services.Identity) (store.User, error)
	issueFn   func(user store.User) (string, error)
	getUserFn func(ctx context.Context, userID string) (store.User, error)
}

func (s stubAuthService) EnsureUserAndWallet(ctx context.Context, identity services.Identity) (store.User, error) {
	if s.ensureFn == nil {
		return store.User{}, nil
	}
	return s.ensureFn(ctx, identity)
}

func (s stubAuthService) IssueToken(user store.User) (string, error) {
	if s.issueFn == nil {
		return "token", nil
	}
	return s.issueFn(user)
}

func (s stubAuthService) GetUser(ctx context.Context, userID string) (store.User, error) {
	if s.getUserFn == nil {
		return store.User{}, nil
	}
	return s.getUserFn(ctx, userID)
}

type stubWalletService struct {
	getBalanceFn       func(ctx context.Context, userID string) (services.BalanceResult, error)
	transferFn         func(ctx context.Context, userID, recipientNumber string, amountMinor int64) (services.TransferResult, error)
	listTransactionsFn func(ctx context.Context, userID string, page, limit int) (services.TransactionPage, error)
}

func (s stubWalletService) GetBalance(ctx context.Context, userID string) (services.BalanceResult, error) {
	if s.getBalanceFn == nil {
		return services.BalanceResult{}, nil
	}
	return s.getBalanceFn(ctx, userID)
}

func (s stubWalletService) Transfer(ctx context.Context, userID, recipientNumber string, amountMinor int64) (services.TransferResult, error) {
	if s.transferFn == nil {
		return services.TransferResult{}, nil
	}
	return s.transferFn(ctx, userID, recipientNumber, amountMinor)
}

func (s stubWalletService) ListTransactions(ctx context.Context, userID string, page, limit int) (services.TransactionPage, error) {
	if s.listTransactionsFn == nil {
		return services.TransactionPage{}, nil
	}
	return s.listTransactionsFn(ctx, userID, page, limit)
}

type stubDepositService struct {
	initiateFn func(ctx context.Context, userID, email string, amountMinor int64) (services.DepositResult, error)
	creditFn   func(ctx context.Context, reference, reportedStatus string, amountMinor int64, payload json.RawMessage) error
	statusFn   func(ctx context.Context, reference, userID string) (services.DepositStatus, error)
}

func (s stubDepositService) InitiateDeposit(ctx context.Context, userID, email string, amountMinor int64) (services.DepositResult, error) {
	if s.initiateFn == nil {
		return services.DepositResult{}, nil
	}
	return s.initiateFn(ctx, userID, email, amountMinor)
}

func (s stubDepositService) CreditFromGatewayEvent(ctx context.Context, reference, reportedStatus string, amountMinor int64, payload json.RawMessage) error {
	if s.creditFn == nil {
		return nil
	}
	return s.creditFn(ctx, reference, reportedStatus, amountMinor, payload)
}

func (s stubDepositService) GetDepositStatus(ctx context.Context, reference, userID string) (services.DepositStatus, error) {
	if s.statusFn == nil {
		return services.DepositStatus{}, nil
	}
	return s.statusFn(ctx, reference, userID)
}

type stubAPIKeyService struct {
	createFn   func(ctx context.Context, userID, name string, permissions []string, expiry string) (services.CreatedAPIKey, error)
	listFn     func(ctx context.Context, userID string) ([]services.APIKeySummary, error)
	revokeFn   func(ctx context.Context, userID, keyID string) error
	rolloverFn func(ctx context.Context, userID, keyID, expiry string) (services.CreatedAPIKey, error)
	validateFn func(ctx context.Context, plainKey string) (*services.ValidatedKey, error)
}

func (s stubAPIKeyService) Create(ctx context.Context, userID, name string, permissions []string, expiry string) (services.CreatedAPIKey, error) {
	if s.createFn == nil {
		return services.CreatedAPIKey{}, nil
	}
	return s.createFn(ctx, userID, name, permissions, expiry)
}

func (s stubAPIKeyService) List(ctx context.Context, userID string) ([]services.APIKeySummary, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

func (s stubAPIKeyService) Revoke(ctx context.Context, userID, keyID string) error {
	if s.revokeFn == nil {
		return nil
	}
	return s.revokeFn(ctx, userID, keyID)
}

func (s stubAPIKeyService) Rollover(ctx context.Context, userID, keyID, expiry string) (services.CreatedAPIKey, error) {
	if s.rolloverFn == nil {
		return services.CreatedAPIKey{}, nil
	}
	return s.rolloverFn(ctx, userID, keyID, expiry)
}

func (s stubAPIKeyService) Validate(ctx context.Context, plainKey string) (*services.ValidatedKey, error) {
	if s.validateFn == nil {
		return nil, nil
	}
	return s.validateFn(ctx, plainKey)
}

func newTestHandler(auth AuthService, wallets WalletService, deposits DepositService, apiKeys APIKeyService) *Handler {
	cfg := config.Config{
		JWTSecret:         "secret",
		AllowedOrigins:    "*",
		PaystackSecretKey: "sk_test_secret",
	}
	return New(cfg, auth, wallets, deposits, apiKeys, websocket.NewHub())
}
