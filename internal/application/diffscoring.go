package application

import (
	"context"
	"fmt"
	"path"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DiffScorer = (*StoredDiffScorer)(nil)

// StoredDiffScorer scores a commit's or merge request's stored diffs. Each
// diff contributes its base score (recorded at sync time from its added-line
// count) scaled by the first matching glob weight; a per-diff override
// replaces the weighted value and marks the result as overridden. Weight
// authoring is out of scope; weights arrive as repository data.
type StoredDiffScorer struct {
	diffs driven.DiffStore
}

// NewStoredDiffScorer creates a DiffScorer reading from the given store.
func NewStoredDiffScorer(diffs driven.DiffStore) *StoredDiffScorer {
	return &StoredDiffScorer{diffs: diffs}
}

// Score computes the aggregate diff score for the selector.
func (s *StoredDiffScorer) Score(ctx context.Context, selector model.DiffSelector, weights []model.GlobWeight) (model.DiffScore, error) {
	var diffs []model.Diff
	var err error
	switch {
	case selector.CommitID != nil:
		diffs, err = s.diffs.ListByCommit(ctx, *selector.CommitID)
	case selector.MergeRequestID != nil:
		diffs, err = s.diffs.ListByMergeRequest(ctx, *selector.MergeRequestID)
	default:
		return model.DiffScore{}, fmt.Errorf("diff selector is empty")
	}
	if err != nil {
		return model.DiffScore{}, err
	}

	var result model.DiffScore
	for _, diff := range diffs {
		weighted := diff.Extensions.Score * weightFor(diff.Resource.NewPath, weights)
		if diff.Extensions.Override.IsSet() {
			result.HasOverride = true
		}
		result.Score += diff.Extensions.Override.EffectiveScore(weighted)
	}
	return result, nil
}

// weightFor returns the weight of the first glob matching the path, or 1
// when none does. Invalid glob patterns never match.
func weightFor(filePath string, weights []model.GlobWeight) float64 {
	for _, gw := range weights {
		ok, err := path.Match(gw.Glob, filePath)
		if err == nil && ok {
			return gw.Weight
		}
	}
	return 1
}
