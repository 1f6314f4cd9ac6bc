package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MergeRequestStore = (*MergeRequestRepo)(nil)

// MergeRequestRepo is the SQLite implementation of the MergeRequestStore
// port, including the commit link table.
type MergeRequestRepo struct {
	db *DB
}

// NewMergeRequestRepo creates a new MergeRequestRepo backed by the given DB.
func NewMergeRequestRepo(db *DB) *MergeRequestRepo {
	return &MergeRequestRepo{db: db}
}

// Create inserts a merge request and assigns its database id.
func (r *MergeRequestRepo) Create(ctx context.Context, mr *model.MergeRequest) error {
	const query = `
		INSERT INTO merge_requests (repository_id, external_id, resource, extensions)
		VALUES (?, ?, ?, ?)
	`

	resource, extensions, err := marshalPair(mr.Resource, mr.Extensions)
	if err != nil {
		return fmt.Errorf("marshal merge request %d: %w", mr.Resource.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		mr.RepositoryID, mr.Resource.ID, resource, extensions,
	)
	if err != nil {
		return fmt.Errorf("insert merge request %d: %w", mr.Resource.ID, err)
	}

	mr.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("merge request insert id: %w", err)
	}
	return nil
}

// Save updates a merge request by database id.
func (r *MergeRequestRepo) Save(ctx context.Context, mr *model.MergeRequest) error {
	const query = `
		UPDATE merge_requests
		SET repository_id = ?, external_id = ?, resource = ?, extensions = ?
		WHERE id = ?
	`

	resource, extensions, err := marshalPair(mr.Resource, mr.Extensions)
	if err != nil {
		return fmt.Errorf("marshal merge request %d: %w", mr.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		mr.RepositoryID, mr.Resource.ID, resource, extensions, mr.ID,
	)
	if err != nil {
		return fmt.Errorf("update merge request %d: %w", mr.ID, err)
	}
	return requireRowAffected(result, "merge request", mr.ID)
}

// Delete removes a merge request. Its notes, diffs, and commit links cascade.
func (r *MergeRequestRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM merge_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete merge request %d: %w", id, err)
	}
	return requireRowAffected(result, "merge request", id)
}

// Get retrieves a merge request by database id. Returns nil, nil if absent.
func (r *MergeRequestRepo) Get(ctx context.Context, id int64) (*model.MergeRequest, error) {
	const query = `
		SELECT id, repository_id, resource, extensions FROM merge_requests WHERE id = ?
	`

	mr, err := scanMergeRequest(r.db.Reader.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get merge request %d: %w", id, err)
	}
	return mr, nil
}

// GetByExternalID retrieves a merge request by upstream id within one
// repository. Returns nil, nil if absent.
func (r *MergeRequestRepo) GetByExternalID(ctx context.Context, repositoryID, externalID int64) (*model.MergeRequest, error) {
	const query = `
		SELECT id, repository_id, resource, extensions FROM merge_requests
		WHERE repository_id = ? AND external_id = ?
	`

	mr, err := scanMergeRequest(r.db.Reader.QueryRowContext(ctx, query, repositoryID, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get merge request by external id %d: %w", externalID, err)
	}
	return mr, nil
}

// ListByRepository returns all merge requests for the given repository,
// ordered by insertion.
func (r *MergeRequestRepo) ListByRepository(ctx context.Context, repositoryID int64) ([]model.MergeRequest, error) {
	const query = `
		SELECT id, repository_id, resource, extensions FROM merge_requests
		WHERE repository_id = ? ORDER BY id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("query merge requests: %w", err)
	}
	defer rows.Close()

	var mrs []model.MergeRequest
	for rows.Next() {
		mr, err := scanMergeRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan merge request: %w", err)
		}
		mrs = append(mrs, *mr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merge requests: %w", err)
	}
	return mrs, nil
}

// SetCommits replaces the merge request's linked commit set.
func (r *MergeRequestRepo) SetCommits(ctx context.Context, mergeRequestID int64, commitIDs []int64) error {
	if _, err := r.db.Writer.ExecContext(ctx,
		`DELETE FROM merge_request_commits WHERE merge_request_id = ?`, mergeRequestID,
	); err != nil {
		return fmt.Errorf("clear commit links for merge request %d: %w", mergeRequestID, err)
	}

	const query = `
		INSERT OR IGNORE INTO merge_request_commits (merge_request_id, commit_id) VALUES (?, ?)
	`
	for _, commitID := range commitIDs {
		if _, err := r.db.Writer.ExecContext(ctx, query, mergeRequestID, commitID); err != nil {
			return fmt.Errorf("link commit %d to merge request %d: %w", commitID, mergeRequestID, err)
		}
	}
	return nil
}

// ListCommits returns the commits linked to a merge request, ordered by
// commit insertion.
func (r *MergeRequestRepo) ListCommits(ctx context.Context, mergeRequestID int64) ([]model.Commit, error) {
	const query = `
		SELECT c.id, c.repository_id, c.resource, c.extensions
		FROM commits c
		INNER JOIN merge_request_commits mrc ON mrc.commit_id = c.id
		WHERE mrc.merge_request_id = ?
		ORDER BY c.id
	`

	return queryCommits(ctx, r.db, query, mergeRequestID)
}

func scanMergeRequest(s scanner) (*model.MergeRequest, error) {
	var mr model.MergeRequest
	var resource, extensions string

	if err := s.Scan(&mr.ID, &mr.RepositoryID, &resource, &extensions); err != nil {
		return nil, err
	}

	if err := unmarshalPair(resource, extensions, &mr.Resource, &mr.Extensions); err != nil {
		return nil, err
	}
	return &mr, nil
}
