package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"walletapi/internal/db"
	"walletapi/internal/money"
	"walletapi/internal/paystack"
	"walletapi/internal/store"
	"walletapi/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrAmountBelowMinimum = errors.New("amount is below the deposit minimum")

type DepositTransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	GetByReference(ctx context.Context, reference string) (store.Transaction, error)
	GetByReferenceForUpdate(ctx context.Context, tx store.Getter, reference string) (store.Transaction, error)
	MarkSuccess(ctx context.Context, tx store.Execer, id, metadata string) error
}

type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference string) (paystack.InitializeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (paystack.VerifyResult, error)
}

type DepositService struct {
	txRunner        db.TxRunner
	wallets         WalletStore
	transactions    DepositTransactionStore
	gateway         PaymentGateway
	hub             BalanceHub
	minDepositMinor int64
}

func NewDepositService(txRunner db.TxRunner, wallets WalletStore, transactions DepositTransactionStore, gateway PaymentGateway, hub BalanceHub, minDepositMinor int64) *DepositService {
	return &DepositService{
		txRunner:        txRunner,
		wallets:         wallets,
		transactions:    transactions,
		gateway:         gateway,
		hub:             hub,
		minDepositMinor: minDepositMinor,
	}
}

type DepositResult struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// InitiateDeposit persists a PENDING transaction for the amount and then asks
// the gateway for a checkout handoff. The transaction commits before the
// gateway call, so a gateway failure leaves a PENDING row that status polling
// can still reconcile.
func (s *DepositService) InitiateDeposit(ctx context.Context, userID, email string, amountMinor int64) (DepositResult, error) {
	if amountMinor < s.minDepositMinor {
		return DepositResult{}, ErrAmountBelowMinimum
	}
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DepositResult{}, ErrWalletNotFound
		}
		return DepositResult{}, err
	}

	reference := "dep_" + uuid.NewString()
	metadata, _ := json.Marshal(map[string]string{"email": email})
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:          uuid.NewString(),
			Reference:   reference,
			Type:        store.TransactionTypeDeposit,
			Status:      store.TransactionStatusPending,
			Amount:      amountMinor,
			Description: "Wallet deposit via Paystack",
			Metadata:    string(metadata),
			WalletID:    wallet.ID,
		})
	})
	if err != nil {
		return DepositResult{}, err
	}

	gatewayResult, err := s.gateway.InitializeTransaction(ctx, email, amountMinor, reference)
	if err != nil {
		return DepositResult{}, err
	}
	return DepositResult{
		Reference:        reference,
		AuthorizationURL: gatewayResult.AuthorizationURL,
		AccessCode:       gatewayResult.AccessCode,
	}, nil
}

// CreditFromGatewayEvent is the single crediting path for deposits, shared by
// the webhook and the status poll. It is idempotent on the reference: the
// status is rechecked under the transaction row lock, so the same reference
// can never credit a wallet twice no matter how often it is replayed.
func (s *DepositService) CreditFromGatewayEvent(ctx context.Context, reference, reportedStatus string, amountMinor int64, payload json.RawMessage) error {
	txn, err := s.transactions.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("deposit: no transaction for reference %s, ignoring event", reference)
			return nil
		}
		return err
	}
	if txn.Status == store.TransactionStatusSuccess {
		log.Printf("deposit: reference %s already processed", reference)
		return nil
	}
	if reportedStatus != "success" {
		return nil
	}

	var creditedUserID string
	var update websocket.BalanceUpdate
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.transactions.GetByReferenceForUpdate(ctx, tx, reference)
		if err != nil {
			return err
		}
		if locked.Status == store.TransactionStatusSuccess {
			return nil
		}
		wallet, err := s.wallets.GetForUpdate(ctx, tx, locked.WalletID)
		if err != nil {
			return err
		}
		newBalance := wallet.Balance + amountMinor
		if err := s.wallets.UpdateBalance(ctx, tx, wallet.ID, newBalance); err != nil {
			return err
		}
		if err := s.transactions.MarkSuccess(ctx, tx, locked.ID, mergeMetadata(locked.Metadata, payload)); err != nil {
			return err
		}
		creditedUserID = wallet.UserID
		update = websocket.BalanceUpdate{
			WalletNumber: wallet.WalletNumber,
			Balance:      money.FormatMinor(newBalance),
			Currency:     wallet.Currency,
		}
		log.Printf("deposit: credited %s to wallet %s for reference %s", money.FormatMinor(amountMinor), wallet.WalletNumber, reference)
		return nil
	})
	if err != nil {
		return err
	}
	if creditedUserID != "" && s.hub != nil {
		s.hub.BroadcastBalance(creditedUserID, update)
	}
	return nil
}

type DepositStatus struct {
	Reference string
	Status    string
	Amount    string
}

// GetDepositStatus returns the persisted state of a deposit, first giving a
// still-pending transaction one synchronous chance to reconcile against the
// gateway in case the webhook was delayed or lost. Verification failures are
// logged and swallowed; the read degrades to the last known persisted status.
func (s *DepositService) GetDepositStatus(ctx context.Context, reference, userID string) (DepositStatus, error) {
	txn, err := s.transactions.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DepositStatus{}, ErrTransactionNotFound
		}
		return DepositStatus{}, err
	}
	wallet, err := s.wallets.GetByID(ctx, txn.WalletID)
	if err != nil {
		return DepositStatus{}, err
	}
	if wallet.UserID != userID {
		return DepositStatus{}, ErrNotTransactionOwner
	}

	if txn.Status == store.TransactionStatusPending {
		verification, err := s.gateway.VerifyTransaction(ctx, reference)
		if err != nil {
			log.Printf("deposit: verification failed for %s: %v", reference, err)
		} else if verification.Status == "success" {
			payload, _ := json.Marshal(map[string]any{
				"reference": reference,
				"status":    verification.Status,
				"amount":    verification.AmountMinor,
			})
			if err := s.CreditFromGatewayEvent(ctx, reference, verification.Status, verification.AmountMinor, payload); err != nil {
				log.Printf("deposit: inline credit failed for %s: %v", reference, err)
			}
		}
		refreshed, err := s.transactions.GetByReference(ctx, reference)
		if err == nil {
			txn = refreshed
		}
	}

	return DepositStatus{
		Reference: txn.Reference,
		Status:    lowerStatus(txn.Status),
		Amount:    money.FormatMinor(txn.Amount),
	}, nil
}

func lowerStatus(value string) string {
	return strings.ToLower(value)
}

// mergeMetadata folds the gateway payload into the transaction's existing
// metadata under the paystackResponse key, preserving whatever was there.
func mergeMetadata(existing string, payload json.RawMessage) string {
	merged := map[string]any{}
	if existing != "" {
		_ = json.Unmarshal([]byte(existing), &merged)
	}
	if len(payload) > 0 {
		var gateway any
		if err := json.Unmarshal(payload, &gateway); err == nil {
			merged["paystackResponse"] = gateway
		}
	}
	result, err := json.Marshal(merged)
	if err != nil {
		return existing
	}
	return string(result)
}
