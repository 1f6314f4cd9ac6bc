package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IssueStore = (*IssueRepo)(nil)

// IssueRepo is the SQLite implementation of the IssueStore port.
type IssueRepo struct {
	db *DB
}

// NewIssueRepo creates a new IssueRepo backed by the given DB.
func NewIssueRepo(db *DB) *IssueRepo {
	return &IssueRepo{db: db}
}

// Create inserts an issue and assigns its database id.
func (r *IssueRepo) Create(ctx context.Context, issue *model.Issue) error {
	const query = `
		INSERT INTO issues (repository_id, external_id, resource, extensions)
		VALUES (?, ?, ?, ?)
	`

	resource, extensions, err := marshalPair(issue.Resource, issue.Extensions)
	if err != nil {
		return fmt.Errorf("marshal issue %d: %w", issue.Resource.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		issue.RepositoryID, issue.Resource.ID, resource, extensions,
	)
	if err != nil {
		return fmt.Errorf("insert issue %d: %w", issue.Resource.ID, err)
	}

	issue.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("issue insert id: %w", err)
	}
	return nil
}

// Save updates an issue by database id.
func (r *IssueRepo) Save(ctx context.Context, issue *model.Issue) error {
	const query = `
		UPDATE issues SET repository_id = ?, external_id = ?, resource = ?, extensions = ?
		WHERE id = ?
	`

	resource, extensions, err := marshalPair(issue.Resource, issue.Extensions)
	if err != nil {
		return fmt.Errorf("marshal issue %d: %w", issue.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		issue.RepositoryID, issue.Resource.ID, resource, extensions, issue.ID,
	)
	if err != nil {
		return fmt.Errorf("update issue %d: %w", issue.ID, err)
	}
	return requireRowAffected(result, "issue", issue.ID)
}

// Delete removes an issue. Its notes cascade.
func (r *IssueRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete issue %d: %w", id, err)
	}
	return requireRowAffected(result, "issue", id)
}

// GetByExternalID retrieves an issue by upstream id within one repository.
// Returns nil, nil if absent.
func (r *IssueRepo) GetByExternalID(ctx context.Context, repositoryID, externalID int64) (*model.Issue, error) {
	const query = `
		SELECT id, repository_id, resource, extensions FROM issues
		WHERE repository_id = ? AND external_id = ?
	`

	issue, err := scanIssue(r.db.Reader.QueryRowContext(ctx, query, repositoryID, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get issue by external id %d: %w", externalID, err)
	}
	return issue, nil
}

// ListByRepository returns all issues for the given repository, ordered by
// insertion.
func (r *IssueRepo) ListByRepository(ctx context.Context, repositoryID int64) ([]model.Issue, error) {
	const query = `
		SELECT id, repository_id, resource, extensions FROM issues
		WHERE repository_id = ? ORDER BY id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	var issues []model.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, *issue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return issues, nil
}

func scanIssue(s scanner) (*model.Issue, error) {
	var issue model.Issue
	var resource, extensions string

	if err := s.Scan(&issue.ID, &issue.RepositoryID, &resource, &extensions); err != nil {
		return nil, err
	}

	if err := unmarshalPair(resource, extensions, &issue.Resource, &issue.Extensions); err != nil {
		return nil, err
	}
	return &issue, nil
}
