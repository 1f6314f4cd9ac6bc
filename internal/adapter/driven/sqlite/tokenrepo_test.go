package sqlite

import (
	"context"
	"testing"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	tokenRepo := NewTokenRepo(db)

	got, err := tokenRepo.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTokenRepo_PutReplaces(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tokenRepo := NewTokenRepo(db)

	require.NoError(t, tokenRepo.Put(ctx, model.Token{UserID: 7, Token: "glpat-first"}))
	require.NoError(t, tokenRepo.Put(ctx, model.Token{UserID: 7, Token: "glpat-second"}))

	got, err := tokenRepo.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "glpat-second", got.Token)
}
