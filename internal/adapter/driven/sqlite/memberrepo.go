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
var _ driven.MemberStore = (*MemberRepo)(nil)

// MemberRepo is the SQLite implementation of the MemberStore port.
type MemberRepo struct {
	db *DB
}

// NewMemberRepo creates a new MemberRepo backed by the given DB.
func NewMemberRepo(db *DB) *MemberRepo {
	return &MemberRepo{db: db}
}

// Create inserts a member and assigns its database id.
func (r *MemberRepo) Create(ctx context.Context, member *model.Member) error {
	const query = `
		INSERT INTO members (repository_id, external_id, resource) VALUES (?, ?, ?)
	`

	resource, err := json.Marshal(member.Resource)
	if err != nil {
		return fmt.Errorf("marshal member %d: %w", member.Resource.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		member.RepositoryID, member.Resource.ID, string(resource),
	)
	if err != nil {
		return fmt.Errorf("insert member %d: %w", member.Resource.ID, err)
	}

	member.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("member insert id: %w", err)
	}
	return nil
}

// Save updates a member by database id.
func (r *MemberRepo) Save(ctx context.Context, member *model.Member) error {
	const query = `
		UPDATE members SET repository_id = ?, external_id = ?, resource = ? WHERE id = ?
	`

	resource, err := json.Marshal(member.Resource)
	if err != nil {
		return fmt.Errorf("marshal member %d: %w", member.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		member.RepositoryID, member.Resource.ID, string(resource), member.ID,
	)
	if err != nil {
		return fmt.Errorf("update member %d: %w", member.ID, err)
	}
	return requireRowAffected(result, "member", member.ID)
}

// Delete removes a member.
func (r *MemberRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member %d: %w", id, err)
	}
	return requireRowAffected(result, "member", id)
}

// GetByExternalID retrieves a member by upstream user id within one
// repository. Returns nil, nil if absent.
func (r *MemberRepo) GetByExternalID(ctx context.Context, repositoryID, externalID int64) (*model.Member, error) {
	const query = `
		SELECT id, repository_id, resource FROM members
		WHERE repository_id = ? AND external_id = ?
	`

	member, err := scanMember(r.db.Reader.QueryRowContext(ctx, query, repositoryID, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by external id %d: %w", externalID, err)
	}
	return member, nil
}

// ListByRepository returns all members of the given repository in insertion
// order.
func (r *MemberRepo) ListByRepository(ctx context.Context, repositoryID int64) ([]model.Member, error) {
	const query = `
		SELECT id, repository_id, resource FROM members
		WHERE repository_id = ? ORDER BY id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func scanMember(s scanner) (*model.Member, error) {
	var member model.Member
	var resource string

	if err := s.Scan(&member.ID, &member.RepositoryID, &resource); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(resource), &member.Resource); err != nil {
		return nil, fmt.Errorf("unmarshal resource: %w", err)
	}
	return &member, nil
}
