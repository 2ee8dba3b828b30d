package services

import (
	"context"
	"time"

	"walletapi/internal/paystack"
	"walletapi/internal/store"
	"walletapi/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err      error
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubWalletStore struct {
	getByUserIDFn   func(ctx context.Context, userID string) (store.Wallet, error)
	getByNumberFn   func(ctx context.Context, walletNumber string) (store.Wallet, error)
	getByIDFn       func(ctx context.Context, walletID string) (store.Wallet, error)
	getForUpdateFn  func(ctx context.Context, tx store.Getter, walletID string) (store.Wallet, error)
	updateBalanceFn func(ctx context.Context, tx store.Execer, walletID string, balance int64) error
}

func (s stubWalletStore) GetByUserID(ctx context.Context, userID string) (store.Wallet, error) {
	if s.getByUserIDFn == nil {
		return store.Wallet{}, nil
	}
	return s.getByUserIDFn(ctx, userID)
}

func (s stubWalletStore) GetByNumber(ctx context.Context, walletNumber string) (store.Wallet, error) {
	if s.getByNumberFn == nil {
		return store.Wallet{}, nil
	}
	return s.getByNumberFn(ctx, walletNumber)
}

func (s stubWalletStore) GetByID(ctx context.Context, walletID string) (store.Wallet, error) {
	if s.getByIDFn == nil {
		return store.Wallet{}, nil
	}
	return s.getByIDFn(ctx, walletID)
}

func (s stubWalletStore) GetForUpdate(ctx context.Context, tx store.Getter, walletID string) (store.Wallet, error) {
	if s.getForUpdateFn == nil {
		return store.Wallet{}, nil
	}
	return s.getForUpdateFn(ctx, tx, walletID)
}

func (s stubWalletStore) UpdateBalance(ctx context.Context, tx store.Execer, walletID string, balance int64) error {
	if s.updateBalanceFn == nil {
		return nil
	}
	return s.updateBalanceFn(ctx, tx, walletID, balance)
}

type stubTransactionStore struct {
	createFn        func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	listByWalletFn  func(ctx context.Context, walletID string, limit, offset int) ([]store.Transaction, error)
	countByWalletFn func(ctx context.Context, walletID string) (int, error)
}

func (s stubTransactionStore) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubTransactionStore) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]store.Transaction, error) {
	if s.listByWalletFn == nil {
		return nil, nil
	}
	return s.listByWalletFn(ctx, walletID, limit, offset)
}

func (s stubTransactionStore) CountByWallet(ctx context.Context, walletID string) (int, error) {
	if s.countByWalletFn == nil {
		return 0, nil
	}
	return s.countByWalletFn(ctx, walletID)
}

type stubDepositTxStore struct {
	createFn         func(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	getByReferenceFn func(ctx context.Context, reference string) (store.Transaction, error)
	getForUpdateFn   func(ctx context.Context, tx store.Getter, reference string) (store.Transaction, error)
	markSuccessFn    func(ctx context.Context, tx store.Execer, id, metadata string) error
}

func (s stubDepositTxStore) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubDepositTxStore) GetByReference(ctx context.Context, reference string) (store.Transaction, error) {
	if s.getByReferenceFn == nil {
		return store.Transaction{}, nil
	}
	return s.getByReferenceFn(ctx, reference)
}

func (s stubDepositTxStore) GetByReferenceForUpdate(ctx context.Context, tx store.Getter, reference string) (store.Transaction, error) {
	if s.getForUpdateFn == nil {
		return store.Transaction{}, nil
	}
	return s.getForUpdateFn(ctx, tx, reference)
}

func (s stubDepositTxStore) MarkSuccess(ctx context.Context, tx store.Execer, id, metadata string) error {
	if s.markSuccessFn == nil {
		return nil
	}
	return s.markSuccessFn(ctx, tx, id, metadata)
}

type stubGateway struct {
	initializeFn func(ctx context.Context, email string, amountMinor int64, reference string) (paystack.InitializeResult, error)
	verifyFn     func(ctx context.Context, reference string) (paystack.VerifyResult, error)
}

func (s stubGateway) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference string) (paystack.InitializeResult, error) {
	if s.initializeFn == nil {
		return paystack.InitializeResult{}, nil
	}
	return s.initializeFn(ctx, email, amountMinor, reference)
}

func (s stubGateway) VerifyTransaction(ctx context.Context, reference string) (paystack.VerifyResult, error) {
	if s.verifyFn == nil {
		return paystack.VerifyResult{}, nil
	}
	return s.verifyFn(ctx, reference)
}

type recordingHub struct {
	updates []websocket.BalanceUpdate
	users   []string
}

func (h *recordingHub) BroadcastBalance(userID string, update websocket.BalanceUpdate) {
	h.users = append(h.users, userID)
	h.updates = append(h.updates, update)
}

type stubAPIKeyStore struct {
	createFn         func(ctx context.Context, input store.APIKeyInput) error
	listByUserFn     func(ctx context.Context, userID string) ([]store.APIKey, error)
	getByIDForUserFn func(ctx context.Context, keyID, userID string) (store.APIKey, error)
	revokeFn         func(ctx context.Context, keyID string) (bool, error)
	countActiveFn    func(ctx context.Context, userID string, now time.Time) (int, error)
	listActiveFn     func(ctx context.Context, now time.Time) ([]store.APIKeyWithOwner, error)
}

func (s stubAPIKeyStore) Create(ctx context.Context, input store.APIKeyInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, input)
}

func (s stubAPIKeyStore) ListByUser(ctx context.Context, userID string) ([]store.APIKey, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

func (s stubAPIKeyStore) GetByIDForUser(ctx context.Context, keyID, userID string) (store.APIKey, error) {
	if s.getByIDForUserFn == nil {
		return store.APIKey{}, nil
	}
	return s.getByIDForUserFn(ctx, keyID, userID)
}

func (s stubAPIKeyStore) Revoke(ctx context.Context, keyID string) (bool, error) {
	if s.revokeFn == nil {
		return true, nil
	}
	return s.revokeFn(ctx, keyID)
}

func (s stubAPIKeyStore) CountActive(ctx context.Context, userID string, now time.Time) (int, error) {
	if s.countActiveFn == nil {
		return 0, nil
	}
	return s.countActiveFn(ctx, userID, now)
}

func (s stubAPIKeyStore) ListActive(ctx context.Context, now time.Time) ([]store.APIKeyWithOwner, error) {
	if s.listActiveFn == nil {
		return nil, nil
	}
	return s.listActiveFn(ctx, now)
}

type stubAuthUserStore struct {
	createFn      func(ctx context.Context, tx store.Execer, id, email, firstName, lastName string, googleID *string) error
	getByEmailFn  func(ctx context.Context, q store.Getter, email string) (store.User, error)
	getByIDFn     func(ctx context.Context, userID string) (store.User, error)
	setGoogleIDFn func(ctx context.Context, tx store.Execer, userID, googleID string) error
}

func (s stubAuthUserStore) Create(ctx context.Context, tx store.Execer, id, email, firstName, lastName string, googleID *string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, email, firstName, lastName, googleID)
}

func (s stubAuthUserStore) GetByEmail(ctx context.Context, q store.Getter, email string) (store.User, error) {
	if s.getByEmailFn == nil {
		return store.User{}, nil
	}
	return s.getByEmailFn(ctx, q, email)
}

func (s stubAuthUserStore) GetByID(ctx context.Context, userID string) (store.User, error) {
	if s.getByIDFn == nil {
		return store.User{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubAuthUserStore) SetGoogleID(ctx context.Context, tx store.Execer, userID, googleID string) error {
	if s.setGoogleIDFn == nil {
		return nil
	}
	return s.setGoogleIDFn(ctx, tx, userID, googleID)
}

type stubAuthWalletStore struct {
	createFn func(ctx context.Context, tx store.Execer, id, userID, walletNumber string, balance int64, currency string) error
}

func (s stubAuthWalletStore) Create(ctx context.Context, tx store.Execer, id, userID, walletNumber string, balance int64, currency string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, userID, walletNumber, balance, currency)
}
