package sqlite

import (
	"context"
	"testing"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffRepo_CommitDiffs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := addTestRepository(t, db, 7, 1001)
	commitRepo := NewCommitRepo(db)
	diffRepo := NewDiffRepo(db)

	commit := makeCommit(repo.ID, "aaaa1111bbbb2222", "Jane Doe", "jane@example.com")
	require.NoError(t, commitRepo.Create(ctx, commit))

	diff := &model.Diff{
		RepositoryID: repo.ID,
		CommitID:     &commit.ID,
		Resource: model.DiffResource{
			OldPath: "main.go",
			NewPath: "main.go",
			Diff:    "@@ -1,2 +1,3 @@\n+added line\n context\n-removed line\n",
		},
		Extensions: model.DiffExtensions{Score: 1.5, LinesAdded: 1, LinesDeleted: 1},
	}
	require.NoError(t, diffRepo.Create(ctx, diff))
	require.NotZero(t, diff.ID)

	diffs, err := diffRepo.ListByCommit(ctx, commit.ID)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "main.go", diffs[0].Resource.NewPath)
	assert.InDelta(t, 1.5, diffs[0].Extensions.Score, 1e-9)
	require.NotNil(t, diffs[0].CommitID)
	assert.Nil(t, diffs[0].MergeRequestID)
}

func TestDiffRepo_MergeRequestDiffs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := addTestRepository(t, db, 7, 1001)
	mrRepo := NewMergeRequestRepo(db)
	diffRepo := NewDiffRepo(db)

	mr := makeMergeRequest(repo.ID, 9001, 1)
	require.NoError(t, mrRepo.Create(ctx, mr))

	diff := &model.Diff{
		RepositoryID:   repo.ID,
		MergeRequestID: &mr.ID,
		Resource:       model.DiffResource{NewPath: "parser.go"},
	}
	require.NoError(t, diffRepo.Create(ctx, diff))

	diffs, err := diffRepo.ListByMergeRequest(ctx, mr.ID)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Nil(t, diffs[0].CommitID)

	all, err := diffRepo.ListByRepository(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestDiffRepo_Save_RoundTripsOverride(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := addTestRepository(t, db, 7, 1001)
	commitRepo := NewCommitRepo(db)
	diffRepo := NewDiffRepo(db)

	commit := makeCommit(repo.ID, "aaaa1111bbbb2222", "Jane Doe", "jane@example.com")
	require.NoError(t, commitRepo.Create(ctx, commit))

	diff := &model.Diff{
		RepositoryID: repo.ID,
		CommitID:     &commit.ID,
		Resource:     model.DiffResource{NewPath: "vendor/big.js"},
	}
	require.NoError(t, diffRepo.Create(ctx, diff))

	diff.Extensions.Override = &model.ScoreOverride{Exclude: true, User: "instructor"}
	require.NoError(t, diffRepo.Save(ctx, diff))

	diffs, err := diffRepo.ListByCommit(ctx, commit.ID)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	require.NotNil(t, diffs[0].Extensions.Override)
	assert.True(t, diffs[0].Extensions.Override.Exclude)
}
