package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// CommitStore defines the driven port for commit persistence. Uniqueness per
// (repository, external id) is enforced by a containment lookup before
// insert, not by a database constraint.
type CommitStore interface {
	Create(ctx context.Context, commit *model.Commit) error
	Save(ctx context.Context, commit *model.Commit) error
	Delete(ctx context.Context, id int64) error
	// Get returns nil, nil when absent.
	Get(ctx context.Context, id int64) (*model.Commit, error)
	// GetByExternalID looks a commit up by its content hash within one
	// repository. Returns nil, nil when absent.
	GetByExternalID(ctx context.Context, repositoryID int64, sha string) (*model.Commit, error)
	ListByRepository(ctx context.Context, repositoryID int64) ([]model.Commit, error)
	// DistinctAuthors returns the distinct (author_name, author_email) pairs
	// observed across the repository's commits.
	DistinctAuthors(ctx context.Context, repositoryID int64) ([]model.Author, error)
}
