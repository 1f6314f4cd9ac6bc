package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommitAuthorStore = (*CommitAuthorRepo)(nil)

// CommitAuthorRepo is the SQLite implementation of the CommitAuthorStore
// port.
type CommitAuthorRepo struct {
	db *DB
}

// NewCommitAuthorRepo creates a new CommitAuthorRepo backed by the given DB.
func NewCommitAuthorRepo(db *DB) *CommitAuthorRepo {
	return &CommitAuthorRepo{db: db}
}

// Create inserts an identity record and assigns its database id.
func (r *CommitAuthorRepo) Create(ctx context.Context, author *model.CommitAuthor) error {
	const query = `
		INSERT INTO commit_authors (repository_id, author_name, author_email, resource)
		VALUES (?, ?, ?, ?)
	`

	resource, err := json.Marshal(author.Resource)
	if err != nil {
		return fmt.Errorf("marshal commit author: %w", err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		author.RepositoryID, author.Resource.AuthorName, author.Resource.AuthorEmail, string(resource),
	)
	if err != nil {
		return fmt.Errorf("insert commit author %q: %w", author.Resource.AuthorName, err)
	}

	author.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("commit author insert id: %w", err)
	}
	return nil
}

// Save updates an identity record by database id.
func (r *CommitAuthorRepo) Save(ctx context.Context, author *model.CommitAuthor) error {
	const query = `
		UPDATE commit_authors SET repository_id = ?, author_name = ?, author_email = ?, resource = ?
		WHERE id = ?
	`

	resource, err := json.Marshal(author.Resource)
	if err != nil {
		return fmt.Errorf("marshal commit author %d: %w", author.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		author.RepositoryID, author.Resource.AuthorName, author.Resource.AuthorEmail, string(resource), author.ID,
	)
	if err != nil {
		return fmt.Errorf("update commit author %d: %w", author.ID, err)
	}
	return requireRowAffected(result, "commit author", author.ID)
}

// Delete removes an identity record.
func (r *CommitAuthorRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM commit_authors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete commit author %d: %w", id, err)
	}
	return requireRowAffected(result, "commit author", id)
}

// Get retrieves an identity record by database id. Returns nil, nil if
// absent.
func (r *CommitAuthorRepo) Get(ctx context.Context, id int64) (*model.CommitAuthor, error) {
	const query = `
		SELECT id, repository_id, resource FROM commit_authors WHERE id = ?
	`

	author, err := scanCommitAuthor(r.db.Reader.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get commit author %d: %w", id, err)
	}
	return author, nil
}

// FindByIdentity retrieves an identity record by its exact (name, email)
// pair. Returns nil, nil if absent.
func (r *CommitAuthorRepo) FindByIdentity(ctx context.Context, repositoryID int64, name, email string) (*model.CommitAuthor, error) {
	const query = `
		SELECT id, repository_id, resource FROM commit_authors
		WHERE repository_id = ? AND author_name = ? AND author_email = ?
	`

	author, err := scanCommitAuthor(r.db.Reader.QueryRowContext(ctx, query, repositoryID, name, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find commit author %q <%s>: %w", name, email, err)
	}
	return author, nil
}

// ListByRepository returns the repository's identity records ordered by
// author name. Clustering iteration order depends on this being stable.
func (r *CommitAuthorRepo) ListByRepository(ctx context.Context, repositoryID int64) ([]model.CommitAuthor, error) {
	const query = `
		SELECT id, repository_id, resource FROM commit_authors
		WHERE repository_id = ? ORDER BY author_name, author_email
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("query commit authors: %w", err)
	}
	defer rows.Close()

	var authors []model.CommitAuthor
	for rows.Next() {
		author, err := scanCommitAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commit author: %w", err)
		}
		authors = append(authors, *author)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commit authors: %w", err)
	}
	return authors, nil
}

func scanCommitAuthor(s scanner) (*model.CommitAuthor, error) {
	var author model.CommitAuthor
	var resource string

	if err := s.Scan(&author.ID, &author.RepositoryID, &resource); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(resource), &author.Resource); err != nil {
		return nil, fmt.Errorf("unmarshal resource: %w", err)
	}
	return &author, nil
}
