package application

import (
	"context"
	"testing"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoredDiffScorer_AppliesGlobWeights(t *testing.T) {
	stores := newTestStores(t)
	repo := addRepo(t, stores, "main")
	ctx := context.Background()

	commit := &model.Commit{
		RepositoryID: repo.ID,
		Resource:     commitResource("commit000000000001", "Jane Doe", "jane@example.com"),
	}
	require.NoError(t, stores.Commits.Create(ctx, commit))

	for _, fixture := range []struct {
		path  string
		score float64
	}{
		{"main.go", 10},
		{"main_test.go", 4},
		{"README.md", 6},
	} {
		diff := &model.Diff{
			RepositoryID: repo.ID,
			CommitID:     &commit.ID,
			Resource:     model.DiffResource{NewPath: fixture.path},
			Extensions:   model.DiffExtensions{Score: fixture.score},
		}
		require.NoError(t, stores.Diffs.Create(ctx, diff))
	}

	weights := []model.GlobWeight{
		{Glob: "*_test.go", Weight: 0.5},
		{Glob: "*.go", Weight: 1},
		{Glob: "*.md", Weight: 0},
	}

	scorer := NewStoredDiffScorer(stores.Diffs)
	got, err := scorer.Score(ctx, model.DiffSelector{CommitID: &commit.ID}, weights)
	require.NoError(t, err)
	// 10*1 + 4*0.5 + 6*0; first matching glob wins.
	assert.InDelta(t, 12.0, got.Score, 1e-9)
	assert.False(t, got.HasOverride)
}

func TestStoredDiffScorer_UnmatchedPathsWeighOne(t *testing.T) {
	stores := newTestStores(t)
	repo := addRepo(t, stores, "main")
	ctx := context.Background()

	commit := &model.Commit{
		RepositoryID: repo.ID,
		Resource:     commitResource("commit000000000001", "Jane Doe", "jane@example.com"),
	}
	require.NoError(t, stores.Commits.Create(ctx, commit))

	diff := &model.Diff{
		RepositoryID: repo.ID,
		CommitID:     &commit.ID,
		Resource:     model.DiffResource{NewPath: "Makefile"},
		Extensions:   model.DiffExtensions{Score: 3},
	}
	require.NoError(t, stores.Diffs.Create(ctx, diff))

	scorer := NewStoredDiffScorer(stores.Diffs)
	got, err := scorer.Score(ctx, model.DiffSelector{CommitID: &commit.ID}, []model.GlobWeight{{Glob: "*.go", Weight: 2}})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got.Score, 1e-9)
}

func TestStoredDiffScorer_PerDiffOverride(t *testing.T) {
	stores := newTestStores(t)
	repo := addRepo(t, stores, "main")
	ctx := context.Background()

	commit := &model.Commit{
		RepositoryID: repo.ID,
		Resource:     commitResource("commit000000000001", "Jane Doe", "jane@example.com"),
	}
	require.NoError(t, stores.Commits.Create(ctx, commit))

	seven := 7.0
	overridden := &model.Diff{
		RepositoryID: repo.ID,
		CommitID:     &commit.ID,
		Resource:     model.DiffResource{NewPath: "vendor/big.js"},
		Extensions: model.DiffExtensions{
			Score:    100,
			Override: &model.ScoreOverride{Score: &seven},
		},
	}
	require.NoError(t, stores.Diffs.Create(ctx, overridden))

	plain := &model.Diff{
		RepositoryID: repo.ID,
		CommitID:     &commit.ID,
		Resource:     model.DiffResource{NewPath: "main.go"},
		Extensions:   model.DiffExtensions{Score: 2},
	}
	require.NoError(t, stores.Diffs.Create(ctx, plain))

	scorer := NewStoredDiffScorer(stores.Diffs)
	got, err := scorer.Score(ctx, model.DiffSelector{CommitID: &commit.ID}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, got.Score, 1e-9)
	assert.True(t, got.HasOverride)
}

func TestStoredDiffScorer_EmptySelector(t *testing.T) {
	stores := newTestStores(t)
	scorer := NewStoredDiffScorer(stores.Diffs)

	_, err := scorer.Score(context.Background(), model.DiffSelector{}, nil)
	assert.Error(t, err)
}
