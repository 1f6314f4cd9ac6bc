package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// RepositoryStore defines the driven port for repository persistence.
// Lookup methods return nil, nil when no row matches.
type RepositoryStore interface {
	Create(ctx context.Context, repo *model.Repository) error
	Save(ctx context.Context, repo *model.Repository) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*model.Repository, error)
	GetByExternalID(ctx context.Context, userID, externalID int64) (*model.Repository, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Repository, error)
	// ListNeedingRecalculation returns repositories whose identity links
	// changed since their scores were last computed.
	ListNeedingRecalculation(ctx context.Context) ([]model.Repository, error)
}
