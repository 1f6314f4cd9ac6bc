package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenStore = (*TokenRepo)(nil)

// TokenRepo is the SQLite implementation of the TokenStore port.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo creates a new TokenRepo backed by the given DB.
func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// Get retrieves the stored token for a user. Returns nil, nil when the user
// has none.
func (r *TokenRepo) Get(ctx context.Context, userID int64) (*model.Token, error) {
	const query = `SELECT user_id, token FROM tokens WHERE user_id = ?`

	var token model.Token
	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&token.UserID, &token.Token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token for user %d: %w", userID, err)
	}
	return &token, nil
}

// Put stores or replaces a user's token.
func (r *TokenRepo) Put(ctx context.Context, token model.Token) error {
	const query = `
		INSERT INTO tokens (user_id, token) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET token = excluded.token
	`

	if _, err := r.db.Writer.ExecContext(ctx, query, token.UserID, token.Token); err != nil {
		return fmt.Errorf("put token for user %d: %w", token.UserID, err)
	}
	return nil
}
