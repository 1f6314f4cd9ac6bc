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
var _ driven.RepositoryStore = (*RepositoryRepo)(nil)

// RepositoryRepo is the SQLite implementation of the RepositoryStore port.
type RepositoryRepo struct {
	db *DB
}

// NewRepositoryRepo creates a new RepositoryRepo backed by the given DB.
func NewRepositoryRepo(db *DB) *RepositoryRepo {
	return &RepositoryRepo{db: db}
}

// Create inserts a repository and assigns its database id.
func (r *RepositoryRepo) Create(ctx context.Context, repo *model.Repository) error {
	const query = `
		INSERT INTO repositories (user_id, external_id, needs_recalculation, resource, extensions)
		VALUES (?, ?, ?, ?, ?)
	`

	resource, extensions, err := marshalPair(repo.Resource, repo.Extensions)
	if err != nil {
		return fmt.Errorf("marshal repository %d: %w", repo.Resource.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		repo.UserID, repo.Resource.ID, boolToInt(repo.Extensions.NeedsRecalculation), resource, extensions,
	)
	if err != nil {
		return fmt.Errorf("insert repository %d: %w", repo.Resource.ID, err)
	}

	repo.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("repository insert id: %w", err)
	}
	return nil
}

// Save updates a repository's resource and extensions by database id.
func (r *RepositoryRepo) Save(ctx context.Context, repo *model.Repository) error {
	const query = `
		UPDATE repositories
		SET user_id = ?, external_id = ?, needs_recalculation = ?, resource = ?, extensions = ?
		WHERE id = ?
	`

	resource, extensions, err := marshalPair(repo.Resource, repo.Extensions)
	if err != nil {
		return fmt.Errorf("marshal repository %d: %w", repo.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		repo.UserID, repo.Resource.ID, boolToInt(repo.Extensions.NeedsRecalculation), resource, extensions, repo.ID,
	)
	if err != nil {
		return fmt.Errorf("update repository %d: %w", repo.ID, err)
	}

	return requireRowAffected(result, "repository", repo.ID)
}

// Delete removes a repository. Dependent rows cascade.
func (r *RepositoryRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM repositories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete repository %d: %w", id, err)
	}
	return requireRowAffected(result, "repository", id)
}

// Get retrieves a repository by database id. Returns nil, nil if absent.
func (r *RepositoryRepo) Get(ctx context.Context, id int64) (*model.Repository, error) {
	const query = `
		SELECT id, user_id, resource, extensions FROM repositories WHERE id = ?
	`

	repo, err := scanRepository(r.db.Reader.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get repository %d: %w", id, err)
	}
	return repo, nil
}

// GetByExternalID retrieves a user's repository by its upstream project id.
// Returns nil, nil if absent.
func (r *RepositoryRepo) GetByExternalID(ctx context.Context, userID, externalID int64) (*model.Repository, error) {
	const query = `
		SELECT id, user_id, resource, extensions FROM repositories
		WHERE user_id = ? AND external_id = ?
	`

	repo, err := scanRepository(r.db.Reader.QueryRowContext(ctx, query, userID, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get repository by external id %d: %w", externalID, err)
	}
	return repo, nil
}

// ListByUser returns all repositories owned by the given user.
func (r *RepositoryRepo) ListByUser(ctx context.Context, userID int64) ([]model.Repository, error) {
	const query = `
		SELECT id, user_id, resource, extensions FROM repositories
		WHERE user_id = ? ORDER BY id
	`

	return r.queryRepositories(ctx, query, userID)
}

// ListNeedingRecalculation returns repositories flagged for score
// recomputation.
func (r *RepositoryRepo) ListNeedingRecalculation(ctx context.Context) ([]model.Repository, error) {
	const query = `
		SELECT id, user_id, resource, extensions FROM repositories
		WHERE needs_recalculation = 1 ORDER BY id
	`

	return r.queryRepositories(ctx, query)
}

func (r *RepositoryRepo) queryRepositories(ctx context.Context, query string, args ...any) ([]model.Repository, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query repositories: %w", err)
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, *repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}
	return repos, nil
}

func scanRepository(s scanner) (*model.Repository, error) {
	var repo model.Repository
	var resource, extensions string

	if err := s.Scan(&repo.ID, &repo.UserID, &resource, &extensions); err != nil {
		return nil, err
	}

	if err := unmarshalPair(resource, extensions, &repo.Resource, &repo.Extensions); err != nil {
		return nil, err
	}
	return &repo, nil
}

// marshalPair serializes a resource/extensions struct pair to JSON.
func marshalPair(resource, extensions any) (string, string, error) {
	res, err := json.Marshal(resource)
	if err != nil {
		return "", "", fmt.Errorf("marshal resource: %w", err)
	}
	ext, err := json.Marshal(extensions)
	if err != nil {
		return "", "", fmt.Errorf("marshal extensions: %w", err)
	}
	return string(res), string(ext), nil
}

// unmarshalPair deserializes the resource/extensions JSON columns.
func unmarshalPair(resource, extensions string, resOut, extOut any) error {
	if err := json.Unmarshal([]byte(resource), resOut); err != nil {
		return fmt.Errorf("unmarshal resource: %w", err)
	}
	if err := json.Unmarshal([]byte(extensions), extOut); err != nil {
		return fmt.Errorf("unmarshal extensions: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// requireRowAffected converts a zero-row write into a not-found error.
func requireRowAffected(result sql.Result, entity string, id any) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %v not found", entity, id)
	}
	return nil
}
