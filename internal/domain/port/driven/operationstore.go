package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// OperationStore defines the driven port for async job record persistence.
type OperationStore interface {
	Create(ctx context.Context, op *model.Operation) error
	Save(ctx context.Context, op *model.Operation) error
	// Get returns nil, nil when absent.
	Get(ctx context.Context, id string) (*model.Operation, error)
	// ListPending returns operations awaiting execution, oldest first.
	ListPending(ctx context.Context) ([]model.Operation, error)
}
