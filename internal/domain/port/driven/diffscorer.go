package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// DiffScorer defines the driven port for scoring already-classified diff
// content. The selector identifies either a single commit's diffs or a merge
// request's aggregate diff.
type DiffScorer interface {
	Score(ctx context.Context, selector model.DiffSelector, weights []model.GlobWeight) (model.DiffScore, error)
}
