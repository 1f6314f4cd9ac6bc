package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// MemberStore defines the driven port for registered project member
// persistence.
type MemberStore interface {
	Create(ctx context.Context, member *model.Member) error
	Save(ctx context.Context, member *model.Member) error
	Delete(ctx context.Context, id int64) error
	// GetByExternalID returns nil, nil when absent.
	GetByExternalID(ctx context.Context, repositoryID, externalID int64) (*model.Member, error)
	ListByRepository(ctx context.Context, repositoryID int64) ([]model.Member, error)
}
