package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// NoteStore defines the driven port for discussion note persistence. A note
// belongs to exactly one of a merge request or an issue.
type NoteStore interface {
	Create(ctx context.Context, note *model.Note) error
	Save(ctx context.Context, note *model.Note) error
	Delete(ctx context.Context, id int64) error
	// GetByExternalIDForMergeRequest returns nil, nil when absent.
	GetByExternalIDForMergeRequest(ctx context.Context, mergeRequestID, externalID int64) (*model.Note, error)
	// GetByExternalIDForIssue returns nil, nil when absent.
	GetByExternalIDForIssue(ctx context.Context, issueID, externalID int64) (*model.Note, error)
	ListByMergeRequest(ctx context.Context, mergeRequestID int64) ([]model.Note, error)
	ListByIssue(ctx context.Context, issueID int64) ([]model.Note, error)
}
