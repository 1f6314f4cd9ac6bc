package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DiffStore = (*DiffRepo)(nil)

// DiffRepo is the SQLite implementation of the DiffStore port.
type DiffRepo struct {
	db *DB
}

// NewDiffRepo creates a new DiffRepo backed by the given DB.
func NewDiffRepo(db *DB) *DiffRepo {
	return &DiffRepo{db: db}
}

// Create inserts a diff and assigns its database id.
func (r *DiffRepo) Create(ctx context.Context, diff *model.Diff) error {
	const query = `
		INSERT INTO diffs (repository_id, commit_id, merge_request_id, resource, extensions)
		VALUES (?, ?, ?, ?, ?)
	`

	resource, extensions, err := marshalPair(diff.Resource, diff.Extensions)
	if err != nil {
		return fmt.Errorf("marshal diff %s: %w", diff.Resource.NewPath, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		diff.RepositoryID, nullableID(diff.CommitID), nullableID(diff.MergeRequestID),
		resource, extensions,
	)
	if err != nil {
		return fmt.Errorf("insert diff %s: %w", diff.Resource.NewPath, err)
	}

	diff.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("diff insert id: %w", err)
	}
	return nil
}

// Save updates a diff by database id.
func (r *DiffRepo) Save(ctx context.Context, diff *model.Diff) error {
	const query = `
		UPDATE diffs SET resource = ?, extensions = ? WHERE id = ?
	`

	resource, extensions, err := marshalPair(diff.Resource, diff.Extensions)
	if err != nil {
		return fmt.Errorf("marshal diff %d: %w", diff.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query, resource, extensions, diff.ID)
	if err != nil {
		return fmt.Errorf("update diff %d: %w", diff.ID, err)
	}
	return requireRowAffected(result, "diff", diff.ID)
}

// Delete removes a diff.
func (r *DiffRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM diffs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete diff %d: %w", id, err)
	}
	return requireRowAffected(result, "diff", id)
}

// ListByCommit returns all diffs attached to a commit.
func (r *DiffRepo) ListByCommit(ctx context.Context, commitID int64) ([]model.Diff, error) {
	return r.list(ctx, `commit_id = ?`, commitID)
}

// ListByMergeRequest returns all diffs attached to a merge request.
func (r *DiffRepo) ListByMergeRequest(ctx context.Context, mergeRequestID int64) ([]model.Diff, error) {
	return r.list(ctx, `merge_request_id = ?`, mergeRequestID)
}

// ListByRepository returns every diff stored for a repository.
func (r *DiffRepo) ListByRepository(ctx context.Context, repositoryID int64) ([]model.Diff, error) {
	return r.list(ctx, `repository_id = ?`, repositoryID)
}

func (r *DiffRepo) list(ctx context.Context, where string, arg int64) ([]model.Diff, error) {
	query := `
		SELECT id, repository_id, commit_id, merge_request_id, resource, extensions
		FROM diffs WHERE ` + where + ` ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query diffs: %w", err)
	}
	defer rows.Close()

	var diffs []model.Diff
	for rows.Next() {
		diff, err := scanDiff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diff: %w", err)
		}
		diffs = append(diffs, *diff)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diffs: %w", err)
	}
	return diffs, nil
}

func scanDiff(s scanner) (*model.Diff, error) {
	var diff model.Diff
	var commitID, mergeRequestID sql.NullInt64
	var resource, extensions string

	err := s.Scan(&diff.ID, &diff.RepositoryID, &commitID, &mergeRequestID, &resource, &extensions)
	if err != nil {
		return nil, err
	}

	if commitID.Valid {
		diff.CommitID = &commitID.Int64
	}
	if mergeRequestID.Valid {
		diff.MergeRequestID = &mergeRequestID.Int64
	}

	if err := unmarshalPair(resource, extensions, &diff.Resource, &diff.Extensions); err != nil {
		return nil, err
	}
	return &diff, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
