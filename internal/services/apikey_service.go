package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"walletapi/internal/auth"
	"walletapi/internal/store"
	"walletapi/internal/validator"

	"github.com/google/uuid"
)

var (
	ErrKeyNotFound       = errors.New("api key not found")
	ErrKeyAlreadyRevoked = errors.New("api key is already revoked")
	ErrKeyNotExpired     = errors.New("api key is not expired yet")
	ErrKeyQuotaExceeded  = errors.New("maximum of 5 active api keys allowed per user")
)

const (
	maxActiveKeys = 5
	keyPrefixLen  = 15
)

type APIKeyStore interface {
	Create(ctx context.Context, input store.APIKeyInput) error
	ListByUser(ctx context.Context, userID string) ([]store.APIKey, error)
	GetByIDForUser(ctx context.Context, keyID, userID string) (store.APIKey, error)
	Revoke(ctx context.Context, keyID string) (bool, error)
	CountActive(ctx context.Context, userID string, now time.Time) (int, error)
	ListActive(ctx context.Context, now time.Time) ([]store.APIKeyWithOwner, error)
}

type APIKeyService struct {
	keys APIKeyStore
	now  func() time.Time
}

func NewAPIKeyService(keys APIKeyStore) *APIKeyService {
	return &APIKeyService{keys: keys, now: time.Now}
}

type CreatedAPIKey struct {
	PlainKey    string
	Prefix      string
	Name        string
	Permissions []string
	ExpiresAt   time.Time
}

// Create issues a new scoped key. The plaintext secret is returned exactly
// once; only its bcrypt digest and display prefix are persisted.
func (s *APIKeyService) Create(ctx context.Context, userID, name string, permissions []string, expiry string) (CreatedAPIKey, error) {
	if err := validator.ValidateKeyName(name); err != nil {
		return CreatedAPIKey{}, err
	}
	if err := validator.ValidatePermissions(permissions); err != nil {
		return CreatedAPIKey{}, err
	}
	now := s.now()
	expiresAt, err := validator.ParseExpiry(expiry, now)
	if err != nil {
		return CreatedAPIKey{}, err
	}
	active, err := s.keys.CountActive(ctx, userID, now)
	if err != nil {
		return CreatedAPIKey{}, err
	}
	if active >= maxActiveKeys {
		return CreatedAPIKey{}, ErrKeyQuotaExceeded
	}

	plainKey, err := generateKeySecret()
	if err != nil {
		return CreatedAPIKey{}, err
	}
	prefix := plainKey[:keyPrefixLen]
	keyHash, err := auth.HashAPIKey(plainKey)
	if err != nil {
		return CreatedAPIKey{}, err
	}
	err = s.keys.Create(ctx, store.APIKeyInput{
		ID:          uuid.NewString(),
		KeyHash:     keyHash,
		Prefix:      prefix,
		Name:        name,
		Permissions: permissions,
		ExpiresAt:   expiresAt,
		UserID:      userID,
	})
	if err != nil {
		return CreatedAPIKey{}, err
	}
	return CreatedAPIKey{
		PlainKey:    plainKey,
		Prefix:      prefix,
		Name:        name,
		Permissions: permissions,
		ExpiresAt:   expiresAt,
	}, nil
}

type APIKeySummary struct {
	ID          string
	Name        string
	Prefix      string
	Permissions []string
	Status      string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

func (s *APIKeyService) List(ctx context.Context, userID string) ([]APIKeySummary, error) {
	keys, err := s.keys.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	summaries := make([]APIKeySummary, 0, len(keys))
	for _, key := range keys {
		summaries = append(summaries, APIKeySummary{
			ID:          key.ID,
			Name:        key.Name,
			Prefix:      key.Prefix,
			Permissions: key.Permissions,
			Status:      keyStatus(key, now),
			ExpiresAt:   key.ExpiresAt,
			CreatedAt:   key.CreatedAt,
		})
	}
	return summaries, nil
}

// Revoke is a one-way transition; revoking a revoked key is an error rather
// than a no-op.
func (s *APIKeyService) Revoke(ctx context.Context, userID, keyID string) error {
	key, err := s.keys.GetByIDForUser(ctx, keyID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrKeyNotFound
		}
		return err
	}
	if key.IsRevoked {
		return ErrKeyAlreadyRevoked
	}
	revoked, err := s.keys.Revoke(ctx, keyID)
	if err != nil {
		return err
	}
	if !revoked {
		return ErrKeyAlreadyRevoked
	}
	return nil
}

// Rollover replaces an expired key with a fresh one carrying the same name
// and permission set. The source key must belong to the caller and must
// already be past its expiry.
func (s *APIKeyService) Rollover(ctx context.Context, userID, keyID, expiry string) (CreatedAPIKey, error) {
	key, err := s.keys.GetByIDForUser(ctx, keyID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CreatedAPIKey{}, ErrKeyNotFound
		}
		return CreatedAPIKey{}, err
	}
	if key.ExpiresAt.After(s.now()) {
		return CreatedAPIKey{}, ErrKeyNotExpired
	}
	return s.Create(ctx, userID, key.Name, key.Permissions, expiry)
}

type ValidatedKey struct {
	UserID      string
	Email       string
	Permissions []string
}

// Validate tests the presented secret against every live key's one-way hash.
// A linear scan is fine at the bounded per-user key count; no plaintext is
// ever stored to compare against directly.
func (s *APIKeyService) Validate(ctx context.Context, plainKey string) (*ValidatedKey, error) {
	keys, err := s.keys.ListActive(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if auth.CompareAPIKey(plainKey, key.KeyHash) {
			return &ValidatedKey{
				UserID:      key.UserID,
				Email:       key.OwnerEmail,
				Permissions: key.Permissions,
			}, nil
		}
	}
	return nil, nil
}

func keyStatus(key store.APIKey, now time.Time) string {
	switch {
	case key.IsRevoked:
		return "revoked"
	case key.ExpiresAt.Before(now):
		return "expired"
	default:
		return "active"
	}
}

func generateKeySecret() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return "sk_live_" + hex.EncodeToString(raw), nil
}
