package store

import (
	"context"
	"time"
)

const (
	TransactionTypeDeposit  = "DEPOSIT"
	TransactionTypeTransfer = "TRANSFER"

	TransactionStatusPending = "PENDING"
	TransactionStatusSuccess = "SUCCESS"
	TransactionStatusFailed  = "FAILED"
)

type TransactionStore struct {
	db DB
}

type Transaction struct {
	ID          string    `db:"id"`
	Reference   string    `db:"reference"`
	Type        string    `db:"type"`
	Status      string    `db:"status"`
	Amount      int64     `db:"amount"`
	Description string    `db:"description"`
	Metadata    string    `db:"metadata"`
	WalletID    string    `db:"wallet_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type TransactionInput struct {
	ID          string
	Reference   string
	Type        string
	Status      string
	Amount      int64
	Description string
	Metadata    string
	WalletID    string
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, reference, type, status, amount, description, metadata, wallet_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.Reference, input.Type, input.Status, input.Amount, input.Description, input.Metadata, input.WalletID)
	return err
}

func (s *TransactionStore) GetByReference(ctx context.Context, reference string) (Transaction, error) {
	var row Transaction
	err := s.db.GetContext(ctx, &row, `
		SELECT id, reference, type, status, amount, description, metadata, wallet_id, created_at, updated_at
		FROM transactions
		WHERE reference = $1
	`, reference)
	return row, err
}

// GetByReferenceForUpdate locks the transaction row so that two concurrent
// crediting attempts for the same reference serialize; the second sees the
// SUCCESS status written by the first.
func (s *TransactionStore) GetByReferenceForUpdate(ctx context.Context, tx Getter, reference string) (Transaction, error) {
	var row Transaction
	err := tx.GetContext(ctx, &row, `
		SELECT id, reference, type, status, amount, description, metadata, wallet_id, created_at, updated_at
		FROM transactions
		WHERE reference = $1
		FOR UPDATE
	`, reference)
	return row, err
}

func (s *TransactionStore) MarkSuccess(ctx context.Context, tx Execer, id, metadata string) error {
	query := `
		UPDATE transactions
		SET status = $2, metadata = $3, updated_at = now()
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query, id, TransactionStatusSuccess, metadata)
	return err
}

func (s *TransactionStore) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]Transaction, error) {
	var rows []Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, reference, type, status, amount, description, metadata, wallet_id, created_at, updated_at
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) CountByWallet(ctx context.Context, walletID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM transactions
		WHERE wallet_id = $1
	`, walletID)
	return count, err
}
