package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// MergeRequestStore defines the driven port for merge request persistence,
// including the many-to-many link to commits.
type MergeRequestStore interface {
	Create(ctx context.Context, mr *model.MergeRequest) error
	Save(ctx context.Context, mr *model.MergeRequest) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*model.MergeRequest, error)
	// GetByExternalID looks a merge request up by its upstream id within one
	// repository. Returns nil, nil when absent.
	GetByExternalID(ctx context.Context, repositoryID, externalID int64) (*model.MergeRequest, error)
	ListByRepository(ctx context.Context, repositoryID int64) ([]model.MergeRequest, error)
	// SetCommits replaces the merge request's linked commit set.
	SetCommits(ctx context.Context, mergeRequestID int64, commitIDs []int64) error
	// ListCommits returns the commits linked to a merge request.
	ListCommits(ctx context.Context, mergeRequestID int64) ([]model.Commit, error)
}
