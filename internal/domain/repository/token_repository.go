package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/domain/model"
)

type TokenRepository interface {
	Create(ctx context.Context, tx *sql.Tx, token *model.Token) error
	// Consume atomically deletes the token matching hash and kind that is still
	// valid at now, returning its owner. When nothing matches it returns
	// ErrInvalidToken, ErrWrongTokenKind or ErrTokenExpired and leaves the
	// stored token untouched.
	Consume(ctx context.Context, tx *sql.Tx, hash string, kind model.TokenKind, now time.Time) (string, error)
}

const tokenUserConstraint = "tokens_user_id_fkey"

type pgTokenRepository struct {
	db *sql.DB
}

func NewPgTokenRepository(db *sql.DB) TokenRepository {
	return &pgTokenRepository{db: db}
}

func (r *pgTokenRepository) Create(ctx context.Context, tx *sql.Tx, token *model.Token) error {
	query := `INSERT INTO tokens (token_hash, kind, user_id, expires_at, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := conn(r.db, tx).ExecContext(ctx, query, token.Hash, token.Kind, token.UserID, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		if _, ok := common.IsUniqueViolation(err); ok {
			// 256-bit collisions do not happen; treat it as a store fault rather than a user conflict.
			return common.StoreError("pgTokenRepository.Create duplicate hash", err)
		}
		if constraint, ok := common.IsForeignKeyViolation(err); ok && constraint == tokenUserConstraint {
			return common.ErrUserNotFound
		}
		return common.StoreError("pgTokenRepository.Create", err)
	}
	return nil
}

func (r *pgTokenRepository) Consume(ctx context.Context, tx *sql.Tx, hash string, kind model.TokenKind, now time.Time) (string, error) {
	q := conn(r.db, tx)

	var userID string
	err := q.QueryRowContext(ctx,
		`DELETE FROM tokens WHERE token_hash = $1 AND kind = $2 AND expires_at > $3 RETURNING user_id`,
		hash, kind, now,
	).Scan(&userID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", common.StoreError("pgTokenRepository.Consume", err)
	}

	var stored model.Token
	err = q.QueryRowContext(ctx,
		`SELECT kind, expires_at FROM tokens WHERE token_hash = $1`, hash,
	).Scan(&stored.Kind, &stored.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrInvalidToken
		}
		return "", common.StoreError("pgTokenRepository.Consume lookup", err)
	}
	if stored.Kind != kind {
		return "", common.ErrWrongTokenKind
	}
	if stored.Expired(now) {
		return "", common.ErrTokenExpired
	}
	// Matched by the lookup but not the delete: a concurrent redeem won.
	return "", common.ErrInvalidToken
}
