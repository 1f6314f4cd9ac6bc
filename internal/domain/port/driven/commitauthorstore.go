package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// CommitAuthorStore defines the driven port for identity record persistence.
// Rows are unique per (repository, author_name, author_email).
type CommitAuthorStore interface {
	Create(ctx context.Context, author *model.CommitAuthor) error
	Save(ctx context.Context, author *model.CommitAuthor) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*model.CommitAuthor, error)
	// FindByIdentity returns nil, nil when absent.
	FindByIdentity(ctx context.Context, repositoryID int64, name, email string) (*model.CommitAuthor, error)
	// ListByRepository returns the repository's authors ordered by
	// author_name. Clustering tie-breaks depend on this order being stable.
	ListByRepository(ctx context.Context, repositoryID int64) ([]model.CommitAuthor, error)
}
