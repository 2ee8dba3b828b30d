package store

import (
	"context"
	"time"
)

type WalletStore struct {
	db DB
}

type Wallet struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	WalletNumber string    `db:"wallet_number"`
	Balance      int64     `db:"balance"`
	Currency     string    `db:"currency"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

func (s *WalletStore) Create(ctx context.Context, tx Execer, id, userID, walletNumber string, balance int64, currency string) error {
	query := `
		INSERT INTO wallets (id, user_id, wallet_number, balance, currency)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, id, userID, walletNumber, balance, currency)
	return err
}

func (s *WalletStore) GetByUserID(ctx context.Context, userID string) (Wallet, error) {
	var row Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, wallet_number, balance, currency, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`, userID)
	return row, err
}

func (s *WalletStore) GetByID(ctx context.Context, walletID string) (Wallet, error) {
	var row Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, wallet_number, balance, currency, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`, walletID)
	return row, err
}

func (s *WalletStore) GetByNumber(ctx context.Context, walletNumber string) (Wallet, error) {
	var row Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, wallet_number, balance, currency, created_at, updated_at
		FROM wallets
		WHERE wallet_number = $1
	`, walletNumber)
	return row, err
}

// GetForUpdate takes the row lock that serializes balance writers. Callers
// must hold it for every balance mutation until the enclosing transaction ends.
func (s *WalletStore) GetForUpdate(ctx context.Context, tx Getter, walletID string) (Wallet, error) {
	var row Wallet
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, wallet_number, balance, currency, created_at, updated_at
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`, walletID)
	return row, err
}

func (s *WalletStore) UpdateBalance(ctx context.Context, tx Execer, walletID string, balance int64) error {
	query := `
		UPDATE wallets
		SET balance = $2, updated_at = now()
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query, walletID, balance)
	return err
}
