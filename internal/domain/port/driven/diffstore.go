package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// DiffStore defines the driven port for per-file diff persistence.
type DiffStore interface {
	Create(ctx context.Context, diff *model.Diff) error
	Save(ctx context.Context, diff *model.Diff) error
	Delete(ctx context.Context, id int64) error
	ListByCommit(ctx context.Context, commitID int64) ([]model.Diff, error)
	ListByMergeRequest(ctx context.Context, mergeRequestID int64) ([]model.Diff, error)
	ListByRepository(ctx context.Context, repositoryID int64) ([]model.Diff, error)
}
