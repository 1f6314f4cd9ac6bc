package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommitStore = (*CommitRepo)(nil)

// CommitRepo is the SQLite implementation of the CommitStore port.
type CommitRepo struct {
	db *DB
}

// NewCommitRepo creates a new CommitRepo backed by the given DB.
func NewCommitRepo(db *DB) *CommitRepo {
	return &CommitRepo{db: db}
}

// Create inserts a commit and assigns its database id. The author identity
// columns are extracted so DistinctAuthors stays an index scan.
func (r *CommitRepo) Create(ctx context.Context, commit *model.Commit) error {
	const query = `
		INSERT INTO commits (repository_id, external_id, author_name, author_email, resource, extensions)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	resource, extensions, err := marshalPair(commit.Resource, commit.Extensions)
	if err != nil {
		return fmt.Errorf("marshal commit %s: %w", commit.Resource.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		commit.RepositoryID, commit.Resource.ID,
		commit.Resource.AuthorName, commit.Resource.AuthorEmail,
		resource, extensions,
	)
	if err != nil {
		return fmt.Errorf("insert commit %s: %w", commit.Resource.ID, err)
	}

	commit.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("commit insert id: %w", err)
	}
	return nil
}

// Save updates a commit by database id.
func (r *CommitRepo) Save(ctx context.Context, commit *model.Commit) error {
	const query = `
		UPDATE commits
		SET repository_id = ?, external_id = ?, author_name = ?, author_email = ?, resource = ?, extensions = ?
		WHERE id = ?
	`

	resource, extensions, err := marshalPair(commit.Resource, commit.Extensions)
	if err != nil {
		return fmt.Errorf("marshal commit %d: %w", commit.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		commit.RepositoryID, commit.Resource.ID,
		commit.Resource.AuthorName, commit.Resource.AuthorEmail,
		resource, extensions, commit.ID,
	)
	if err != nil {
		return fmt.Errorf("update commit %d: %w", commit.ID, err)
	}
	return requireRowAffected(result, "commit", commit.ID)
}

// Delete removes a commit. Its diffs and merge request links cascade.
func (r *CommitRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM commits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete commit %d: %w", id, err)
	}
	return requireRowAffected(result, "commit", id)
}

// Get retrieves a commit by database id. Returns nil, nil if absent.
func (r *CommitRepo) Get(ctx context.Context, id int64) (*model.Commit, error) {
	const query = `
		SELECT id, repository_id, resource, extensions FROM commits WHERE id = ?
	`

	commit, err := scanCommit(r.db.Reader.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get commit %d: %w", id, err)
	}
	return commit, nil
}

// GetByExternalID retrieves a commit by content hash within one repository.
// Returns nil, nil if absent.
func (r *CommitRepo) GetByExternalID(ctx context.Context, repositoryID int64, sha string) (*model.Commit, error) {
	const query = `
		SELECT id, repository_id, resource, extensions FROM commits
		WHERE repository_id = ? AND external_id = ?
	`

	commit, err := scanCommit(r.db.Reader.QueryRowContext(ctx, query, repositoryID, sha))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get commit %s: %w", sha, err)
	}
	return commit, nil
}

// ListByRepository returns all commits for the given repository, ordered by
// insertion.
func (r *CommitRepo) ListByRepository(ctx context.Context, repositoryID int64) ([]model.Commit, error) {
	const query = `
		SELECT id, repository_id, resource, extensions FROM commits
		WHERE repository_id = ? ORDER BY id
	`

	return queryCommits(ctx, r.db, query, repositoryID)
}

// DistinctAuthors returns the distinct (author_name, author_email) pairs
// observed across the repository's commits.
func (r *CommitRepo) DistinctAuthors(ctx context.Context, repositoryID int64) ([]model.Author, error) {
	const query = `
		SELECT DISTINCT author_name, author_email FROM commits
		WHERE repository_id = ? ORDER BY author_name, author_email
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("query distinct authors: %w", err)
	}
	defer rows.Close()

	var authors []model.Author
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.AuthorName, &a.AuthorEmail); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authors: %w", err)
	}
	return authors, nil
}

// queryCommits is shared with the merge request repo's ListCommits.
func queryCommits(ctx context.Context, db *DB, query string, args ...any) ([]model.Commit, error) {
	rows, err := db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	var commits []model.Commit
	for rows.Next() {
		commit, err := scanCommit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		commits = append(commits, *commit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}
	return commits, nil
}

func scanCommit(s scanner) (*model.Commit, error) {
	var commit model.Commit
	var resource, extensions string

	if err := s.Scan(&commit.ID, &commit.RepositoryID, &resource, &extensions); err != nil {
		return nil, err
	}

	if err := unmarshalPair(resource, extensions, &commit.Resource, &commit.Extensions); err != nil {
		return nil, err
	}
	return &commit, nil
}
