package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math/big"
	"strconv"
	"time"

	"walletapi/internal/auth"
	"walletapi/internal/db"
	"walletapi/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

type AuthUserStore interface {
	Create(ctx context.Context, tx store.Execer, id, email, firstName, lastName string, googleID *string) error
	GetByEmail(ctx context.Context, q store.Getter, email string) (store.User, error)
	GetByID(ctx context.Context, userID string) (store.User, error)
	SetGoogleID(ctx context.Context, tx store.Execer, userID, googleID string) error
}

type AuthWalletStore interface {
	Create(ctx context.Context, tx store.Execer, id, userID, walletNumber string, balance int64, currency string) error
}

type AuthService struct {
	txRunner  db.TxRunner
	users     AuthUserStore
	wallets   AuthWalletStore
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(txRunner db.TxRunner, users AuthUserStore, wallets AuthWalletStore, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		txRunner:  txRunner,
		users:     users,
		wallets:   wallets,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Identity is an externally verified user identity; the identity-provider
// handshake that produced it happens upstream of this service.
type Identity struct {
	Email     string
	FirstName string
	LastName  string
	GoogleID  string
}

// EnsureUserAndWallet creates the user and their wallet together on first
// sight of an identity, or attaches the external id to the user already
// registered under that email. Wallet-number collisions retry the whole
// transaction with a fresh number.
func (s *AuthService) EnsureUserAndWallet(ctx context.Context, identity Identity) (store.User, error) {
	const maxAttempts = 4
	var user store.User
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			existing, err := s.users.GetByEmail(ctx, tx, identity.Email)
			if err == nil {
				user = existing
				if existing.GoogleID == nil && identity.GoogleID != "" {
					if err := s.users.SetGoogleID(ctx, tx, existing.ID, identity.GoogleID); err != nil {
						return err
					}
					user.GoogleID = &identity.GoogleID
				}
				return nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}

			userID := uuid.NewString()
			var googleID *string
			if identity.GoogleID != "" {
				googleID = &identity.GoogleID
			}
			if err := s.users.Create(ctx, tx, userID, identity.Email, identity.FirstName, identity.LastName, googleID); err != nil {
				return err
			}
			walletNumber, err := generateWalletNumber()
			if err != nil {
				return err
			}
			if err := s.wallets.Create(ctx, tx, uuid.NewString(), userID, walletNumber, 0, "NGN"); err != nil {
				return err
			}
			user = store.User{
				ID:        userID,
				Email:     identity.Email,
				GoogleID:  googleID,
				FirstName: identity.FirstName,
				LastName:  identity.LastName,
			}
			return nil
		})
		if err == nil {
			return user, nil
		}
		if db.IsUniqueViolation(err, "wallets_wallet_number_key") && attempt < maxAttempts {
			continue
		}
		return store.User{}, err
	}
	return store.User{}, errors.New("could not allocate a unique wallet number")
}

func (s *AuthService) IssueToken(user store.User) (string, error) {
	return auth.GenerateToken(s.jwtSecret, s.tokenTTL, user.ID, user.Email)
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (store.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, ErrUserNotFound
		}
		return store.User{}, err
	}
	return user, nil
}

// generateWalletNumber draws a 10-digit account number from crypto/rand.
// Uniqueness is enforced by the wallets table constraint; callers retry on
// collision.
func generateWalletNumber() (string, error) {
	span := big.NewInt(9_000_000_000)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1_000_000_000, 10), nil
}
