package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// TokenStore defines the driven port for reading stored GitLab access
// tokens. Token issuance is out of scope.
type TokenStore interface {
	// Get returns nil, nil when the user has no stored token.
	Get(ctx context.Context, userID int64) (*model.Token, error)
	Put(ctx context.Context, token model.Token) error
}
