package sqlite

import (
	"context"
	"testing"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitRepo_CreateAndGetByExternalID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := addTestRepository(t, db, 7, 1001)
	commitRepo := NewCommitRepo(db)

	commit := makeCommit(repo.ID, "aaaa1111bbbb2222", "Jane Doe", "jane@example.com")
	score := 4.5
	commit.Extensions.Score = &score
	require.NoError(t, commitRepo.Create(ctx, commit))
	require.NotZero(t, commit.ID)

	got, err := commitRepo.GetByExternalID(ctx, repo.ID, "aaaa1111bbbb2222")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, commit.ID, got.ID)
	assert.Equal(t, "Jane Doe", got.Resource.AuthorName)
	require.NotNil(t, got.Extensions.Score)
	assert.InDelta(t, 4.5, *got.Extensions.Score, 1e-9)
}

func TestCommitRepo_GetByExternalID_Missing(t *testing.T) {
	db := setupTestDB(t)
	repo := addTestRepository(t, db, 7, 1001)
	commitRepo := NewCommitRepo(db)

	got, err := commitRepo.GetByExternalID(context.Background(), repo.ID, "deadbeefcafe")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCommitRepo_Save_RoundTripsOverride(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := addTestRepository(t, db, 7, 1001)
	commitRepo := NewCommitRepo(db)

	commit := makeCommit(repo.ID, "aaaa1111bbbb2222", "Jane Doe", "jane@example.com")
	require.NoError(t, commitRepo.Create(ctx, commit))

	override := 2.0
	commit.Extensions.Override = &model.ScoreOverride{
		Score:   &override,
		User:    "instructor",
		Comment: "generated file",
	}
	commit.Extensions.Squashed = true
	require.NoError(t, commitRepo.Save(ctx, commit))

	got, err := commitRepo.GetByExternalID(ctx, repo.ID, "aaaa1111bbbb2222")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Extensions.Override)
	require.NotNil(t, got.Extensions.Override.Score)
	assert.InDelta(t, 2.0, *got.Extensions.Override.Score, 1e-9)
	assert.Equal(t, "instructor", got.Extensions.Override.User)
	assert.True(t, got.Extensions.Squashed)
}

func TestCommitRepo_DistinctAuthors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := addTestRepository(t, db, 7, 1001)
	commitRepo := NewCommitRepo(db)

	require.NoError(t, commitRepo.Create(ctx, makeCommit(repo.ID, "aaaa1111bbbb2222", "Jane Doe", "jane@example.com")))
	require.NoError(t, commitRepo.Create(ctx, makeCommit(repo.ID, "bbbb2222cccc3333", "Jane Doe", "jane@example.com")))
	require.NoError(t, commitRepo.Create(ctx, makeCommit(repo.ID, "cccc3333dddd4444", "jdoe", "jdoe@school.edu")))

	authors, err := commitRepo.DistinctAuthors(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, authors, 2)
	assert.Equal(t, model.Author{AuthorName: "Jane Doe", AuthorEmail: "jane@example.com"}, authors[0])
	assert.Equal(t, model.Author{AuthorName: "jdoe", AuthorEmail: "jdoe@school.edu"}, authors[1])
}

func TestCommitRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := addTestRepository(t, db, 7, 1001)
	commitRepo := NewCommitRepo(db)

	commit := makeCommit(repo.ID, "aaaa1111bbbb2222", "Jane Doe", "jane@example.com")
	require.NoError(t, commitRepo.Create(ctx, commit))
	require.NoError(t, commitRepo.Delete(ctx, commit.ID))

	got, err := commitRepo.GetByExternalID(ctx, repo.ID, "aaaa1111bbbb2222")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, commitRepo.Delete(ctx, commit.ID))
}
