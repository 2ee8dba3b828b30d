package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"walletapi/internal/db"
	"walletapi/internal/money"
	"walletapi/internal/store"
	"walletapi/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrRecipientNotFound   = errors.New("recipient wallet not found")
	ErrSelfTransfer        = errors.New("cannot transfer to your own wallet")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotTransactionOwner = errors.New("transaction does not belong to user")
)

type WalletStore interface {
	GetByUserID(ctx context.Context, userID string) (store.Wallet, error)
	GetByNumber(ctx context.Context, walletNumber string) (store.Wallet, error)
	GetByID(ctx context.Context, walletID string) (store.Wallet, error)
	GetForUpdate(ctx context.Context, tx store.Getter, walletID string) (store.Wallet, error)
	UpdateBalance(ctx context.Context, tx store.Execer, walletID string, balance int64) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]store.Transaction, error)
	CountByWallet(ctx context.Context, walletID string) (int, error)
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

type WalletService struct {
	txRunner     db.TxRunner
	wallets      WalletStore
	transactions TransactionStore
	hub          BalanceHub
}

func NewWalletService(txRunner db.TxRunner, wallets WalletStore, transactions TransactionStore, hub BalanceHub) *WalletService {
	return &WalletService{
		txRunner:     txRunner,
		wallets:      wallets,
		transactions: transactions,
		hub:          hub,
	}
}

type BalanceResult struct {
	Balance      string
	Currency     string
	WalletNumber string
}

func (s *WalletService) GetBalance(ctx context.Context, userID string) (BalanceResult, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BalanceResult{}, ErrWalletNotFound
		}
		return BalanceResult{}, err
	}
	return BalanceResult{
		Balance:      money.FormatMinor(wallet.Balance),
		Currency:     wallet.Currency,
		WalletNumber: wallet.WalletNumber,
	}, nil
}

type TransferResult struct {
	Amount       string
	Recipient    string
	SenderNumber string
}

// Transfer moves amountMinor from the caller's wallet to the wallet with the
// given number. Both balance writes and both ledger rows commit atomically;
// any failure after the transaction begins rolls the whole operation back.
func (s *WalletService) Transfer(ctx context.Context, userID, recipientNumber string, amountMinor int64) (TransferResult, error) {
	if amountMinor <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}
	senderWallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TransferResult{}, ErrWalletNotFound
		}
		return TransferResult{}, err
	}
	recipientWallet, err := s.wallets.GetByNumber(ctx, recipientNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TransferResult{}, ErrRecipientNotFound
		}
		return TransferResult{}, err
	}
	if senderWallet.ID == recipientWallet.ID {
		return TransferResult{}, ErrSelfTransfer
	}

	var senderAfter, recipientAfter int64
	var currency string
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		sender, recipient, err := lockTwoWallets(ctx, tx, s.wallets, senderWallet.ID, recipientWallet.ID)
		if err != nil {
			return err
		}
		if sender.Balance < amountMinor {
			return ErrInsufficientFunds
		}
		currency = sender.Currency
		senderAfter = sender.Balance - amountMinor
		recipientAfter = recipient.Balance + amountMinor
		if err := s.wallets.UpdateBalance(ctx, tx, sender.ID, senderAfter); err != nil {
			return err
		}
		if err := s.wallets.UpdateBalance(ctx, tx, recipient.ID, recipientAfter); err != nil {
			return err
		}
		debitMetadata, _ := json.Marshal(map[string]string{
			"recipientWalletNumber": recipient.WalletNumber,
			"transferType":          "debit",
		})
		if err := s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:          uuid.NewString(),
			Reference:   "tfr_debit_" + uuid.NewString(),
			Type:        store.TransactionTypeTransfer,
			Status:      store.TransactionStatusSuccess,
			Amount:      -amountMinor,
			Description: "Transfer to " + recipient.WalletNumber,
			Metadata:    string(debitMetadata),
			WalletID:    sender.ID,
		}); err != nil {
			return err
		}
		creditMetadata, _ := json.Marshal(map[string]string{
			"senderWalletNumber": sender.WalletNumber,
			"transferType":       "credit",
		})
		return s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:          uuid.NewString(),
			Reference:   "tfr_credit_" + uuid.NewString(),
			Type:        store.TransactionTypeTransfer,
			Status:      store.TransactionStatusSuccess,
			Amount:      amountMinor,
			Description: "Transfer from " + sender.WalletNumber,
			Metadata:    string(creditMetadata),
			WalletID:    recipient.ID,
		})
	})
	if err != nil {
		return TransferResult{}, err
	}

	if s.hub != nil {
		s.hub.BroadcastBalance(senderWallet.UserID, websocket.BalanceUpdate{
			WalletNumber: senderWallet.WalletNumber,
			Balance:      money.FormatMinor(senderAfter),
			Currency:     currency,
		})
		s.hub.BroadcastBalance(recipientWallet.UserID, websocket.BalanceUpdate{
			WalletNumber: recipientWallet.WalletNumber,
			Balance:      money.FormatMinor(recipientAfter),
			Currency:     currency,
		})
	}
	return TransferResult{
		Amount:       money.FormatMinor(amountMinor),
		Recipient:    recipientWallet.WalletNumber,
		SenderNumber: senderWallet.WalletNumber,
	}, nil
}

type TransactionSummary struct {
	ID          string
	Type        string
	Status      string
	Amount      string
	Description string
	Reference   string
	CreatedAt   string
}

type TransactionPage struct {
	Transactions []TransactionSummary
	Total        int
	Page         int
	Limit        int
}

func (s *WalletService) ListTransactions(ctx context.Context, userID string, page, limit int) (TransactionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TransactionPage{}, ErrWalletNotFound
		}
		return TransactionPage{}, err
	}
	rows, err := s.transactions.ListByWallet(ctx, wallet.ID, limit, (page-1)*limit)
	if err != nil {
		return TransactionPage{}, err
	}
	total, err := s.transactions.CountByWallet(ctx, wallet.ID)
	if err != nil {
		return TransactionPage{}, err
	}
	result := TransactionPage{
		Transactions: make([]TransactionSummary, 0, len(rows)),
		Total:        total,
		Page:         page,
		Limit:        limit,
	}
	for _, row := range rows {
		result.Transactions = append(result.Transactions, TransactionSummary{
			ID:          row.ID,
			Type:        lowerStatus(row.Type),
			Status:      lowerStatus(row.Status),
			Amount:      money.FormatMinor(row.Amount),
			Description: row.Description,
			Reference:   row.Reference,
			CreatedAt:   row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return result, nil
}

// lockTwoWallets acquires both row locks in ascending wallet-id order so that
// concurrent transfers over the same pair, in either direction, can never
// deadlock. Every operation that locks two wallets must go through here.
func lockTwoWallets(ctx context.Context, tx store.Getter, wallets WalletStore, firstID, secondID string) (store.Wallet, store.Wallet, error) {
	leftID, rightID := orderedIDs(firstID, secondID)
	left, err := wallets.GetForUpdate(ctx, tx, leftID)
	if err != nil {
		return store.Wallet{}, store.Wallet{}, err
	}
	right, err := wallets.GetForUpdate(ctx, tx, rightID)
	if err != nil {
		return store.Wallet{}, store.Wallet{}, err
	}
	if firstID == leftID {
		return left, right, nil
	}
	return right, left, nil
}

func orderedIDs(firstID, secondID string) (string, string) {
	if firstID <= secondID {
		return firstID, secondID
	}
	return secondID, firstID
}
