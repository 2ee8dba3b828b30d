package store

import (
	"context"
	"time"
)

type UserStore struct {
	db DB
}

type User struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	GoogleID  *string   `db:"google_id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id, email, firstName, lastName string, googleID *string) error {
	query := `
		INSERT INTO users (id, email, google_id, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, id, email, googleID, firstName, lastName)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, q Getter, email string) (User, error) {
	var row User
	err := q.GetContext(ctx, &row, `
		SELECT id, email, google_id, first_name, last_name, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	return row, err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (User, error) {
	var row User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, google_id, first_name, last_name, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID)
	return row, err
}

func (s *UserStore) SetGoogleID(ctx context.Context, tx Execer, userID, googleID string) error {
	query := `
		UPDATE users
		SET google_id = $2, updated_at = now()
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query, userID, googleID)
	return err
}
