package store

import (
	"context"
	"time"

	"github.com/lib/pq"
)

type APIKeyStore struct {
	db DB
}

type APIKey struct {
	ID          string         `db:"id"`
	KeyHash     string         `db:"key_hash"`
	Prefix      string         `db:"prefix"`
	Name        string         `db:"name"`
	Permissions pq.StringArray `db:"permissions"`
	ExpiresAt   time.Time      `db:"expires_at"`
	IsRevoked   bool           `db:"is_revoked"`
	UserID      string         `db:"user_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type APIKeyWithOwner struct {
	APIKey
	OwnerEmail string `db:"owner_email"`
}

type APIKeyInput struct {
	ID          string
	KeyHash     string
	Prefix      string
	Name        string
	Permissions []string
	ExpiresAt   time.Time
	UserID      string
}

func NewAPIKeyStore(db DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

func (s *APIKeyStore) Create(ctx context.Context, input APIKeyInput) error {
	query := `
		INSERT INTO api_keys (id, key_hash, prefix, name, permissions, expires_at, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query, input.ID, input.KeyHash, input.Prefix, input.Name, pq.StringArray(input.Permissions), input.ExpiresAt, input.UserID)
	return err
}

func (s *APIKeyStore) ListByUser(ctx context.Context, userID string) ([]APIKey, error) {
	var rows []APIKey
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, key_hash, prefix, name, permissions, expires_at, is_revoked, user_id, created_at, updated_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *APIKeyStore) GetByIDForUser(ctx context.Context, keyID, userID string) (APIKey, error) {
	var row APIKey
	err := s.db.GetContext(ctx, &row, `
		SELECT id, key_hash, prefix, name, permissions, expires_at, is_revoked, user_id, created_at, updated_at
		FROM api_keys
		WHERE id = $1 AND user_id = $2
	`, keyID, userID)
	return row, err
}

// Revoke flips is_revoked exactly once; the guard in the WHERE clause makes
// the transition irreversible and reports an already-revoked key as 0 rows.
func (s *APIKeyStore) Revoke(ctx context.Context, keyID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE api_keys
		SET is_revoked = true, updated_at = now()
		WHERE id = $1 AND is_revoked = false
	`, keyID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *APIKeyStore) CountActive(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM api_keys
		WHERE user_id = $1 AND is_revoked = false AND expires_at > $2
	`, userID, now)
	return count, err
}

func (s *APIKeyStore) ListActive(ctx context.Context, now time.Time) ([]APIKeyWithOwner, error) {
	var rows []APIKeyWithOwner
	err := s.db.SelectContext(ctx, &rows, `
		SELECT k.id, k.key_hash, k.prefix, k.name, k.permissions, k.expires_at, k.is_revoked, k.user_id, k.created_at, k.updated_at,
		       u.email AS owner_email
		FROM api_keys k
		JOIN users u ON u.id = k.user_id
		WHERE k.is_revoked = false AND k.expires_at > $1
	`, now)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
