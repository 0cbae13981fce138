package otp

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound    = errors.New("code not found")
	ErrAlreadyUsed = errors.New("code already used")
)

type Store interface {
	Insert(ctx context.Context, c *Code) error
	FindUnused(ctx context.Context, userID string, purpose Purpose, codeHash string) (*Code, error)
	Consume(ctx context.Context, c *Code, usedAt time.Time, eff Effect) error
}

type PGStore struct{ db *pgxpool.Pool }

func NewPGStore(db *pgxpool.Pool) *PGStore { return &PGStore{db: db} }

func (s *PGStore) Insert(ctx context.Context, c *Code) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.db.Exec(ctx, `
		INSERT INTO verification_codes (id, user_id, purpose, code_hash, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, c.ID, c.UserID, c.Purpose, c.CodeHash, c.CreatedAt)
	return err
}

// FindUnused returns the most recently issued unused code matching the hash.
func (s *PGStore) FindUnused(ctx context.Context, userID string, purpose Purpose, codeHash string) (*Code, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Code
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, purpose, code_hash, created_at, used_at
		FROM verification_codes
		WHERE user_id=$1 AND purpose=$2 AND code_hash=$3 AND used_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, purpose, codeHash).Scan(&c.ID, &c.UserID, &c.Purpose, &c.CodeHash, &c.CreatedAt, &c.UsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Consume marks the code used and applies eff atomically. A code already consumed by a
// concurrent request yields ErrAlreadyUsed and nothing is applied.
func (s *PGStore) Consume(ctx context.Context, c *Code, usedAt time.Time, eff Effect) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE verification_codes SET used_at = $2 WHERE id = $1 AND used_at IS NULL
	`, c.ID, usedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyUsed
	}
	if eff.PasswordHash != "" {
		if _, err := tx.Exec(ctx, `
			UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
		`, eff.UserID, eff.PasswordHash); err != nil {
			return err
		}
	}
	if eff.VerifyEmail {
		if _, err := tx.Exec(ctx, `
			UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1
		`, eff.UserID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
