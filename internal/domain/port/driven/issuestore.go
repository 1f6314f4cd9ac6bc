package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// IssueStore defines the driven port for issue persistence.
type IssueStore interface {
	Create(ctx context.Context, issue *model.Issue) error
	Save(ctx context.Context, issue *model.Issue) error
	Delete(ctx context.Context, id int64) error
	// GetByExternalID returns nil, nil when absent.
	GetByExternalID(ctx context.Context, repositoryID, externalID int64) (*model.Issue, error)
	ListByRepository(ctx context.Context, repositoryID int64) ([]model.Issue, error)
}
