package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.NoteStore = (*NoteRepo)(nil)

// NoteRepo is the SQLite implementation of the NoteStore port.
type NoteRepo struct {
	db *DB
}

// NewNoteRepo creates a new NoteRepo backed by the given DB.
func NewNoteRepo(db *DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// Create inserts a note and assigns its database id. Exactly one of
// MergeRequestID and IssueID must be set; the schema enforces it.
func (r *NoteRepo) Create(ctx context.Context, note *model.Note) error {
	const query = `
		INSERT INTO notes (merge_request_id, issue_id, external_id, resource, extensions)
		VALUES (?, ?, ?, ?, ?)
	`

	resource, extensions, err := marshalPair(note.Resource, note.Extensions)
	if err != nil {
		return fmt.Errorf("marshal note %d: %w", note.Resource.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		note.MergeRequestID, note.IssueID, note.Resource.ID, resource, extensions,
	)
	if err != nil {
		return fmt.Errorf("insert note %d: %w", note.Resource.ID, err)
	}

	note.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("note insert id: %w", err)
	}
	return nil
}

// Save updates a note by database id.
func (r *NoteRepo) Save(ctx context.Context, note *model.Note) error {
	const query = `
		UPDATE notes SET merge_request_id = ?, issue_id = ?, external_id = ?, resource = ?, extensions = ?
		WHERE id = ?
	`

	resource, extensions, err := marshalPair(note.Resource, note.Extensions)
	if err != nil {
		return fmt.Errorf("marshal note %d: %w", note.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		note.MergeRequestID, note.IssueID, note.Resource.ID, resource, extensions, note.ID,
	)
	if err != nil {
		return fmt.Errorf("update note %d: %w", note.ID, err)
	}
	return requireRowAffected(result, "note", note.ID)
}

// Delete removes a note.
func (r *NoteRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	return requireRowAffected(result, "note", id)
}

// GetByExternalIDForMergeRequest retrieves a merge request's note by
// upstream id. Returns nil, nil if absent.
func (r *NoteRepo) GetByExternalIDForMergeRequest(ctx context.Context, mergeRequestID, externalID int64) (*model.Note, error) {
	const query = `
		SELECT id, merge_request_id, issue_id, resource, extensions FROM notes
		WHERE merge_request_id = ? AND external_id = ?
	`

	note, err := scanNote(r.db.Reader.QueryRowContext(ctx, query, mergeRequestID, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note %d for merge request %d: %w", externalID, mergeRequestID, err)
	}
	return note, nil
}

// GetByExternalIDForIssue retrieves an issue's note by upstream id. Returns
// nil, nil if absent.
func (r *NoteRepo) GetByExternalIDForIssue(ctx context.Context, issueID, externalID int64) (*model.Note, error) {
	const query = `
		SELECT id, merge_request_id, issue_id, resource, extensions FROM notes
		WHERE issue_id = ? AND external_id = ?
	`

	note, err := scanNote(r.db.Reader.QueryRowContext(ctx, query, issueID, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note %d for issue %d: %w", externalID, issueID, err)
	}
	return note, nil
}

// ListByMergeRequest returns a merge request's notes ordered by insertion.
func (r *NoteRepo) ListByMergeRequest(ctx context.Context, mergeRequestID int64) ([]model.Note, error) {
	const query = `
		SELECT id, merge_request_id, issue_id, resource, extensions FROM notes
		WHERE merge_request_id = ? ORDER BY id
	`

	return r.queryNotes(ctx, query, mergeRequestID)
}

// ListByIssue returns an issue's notes ordered by insertion.
func (r *NoteRepo) ListByIssue(ctx context.Context, issueID int64) ([]model.Note, error) {
	const query = `
		SELECT id, merge_request_id, issue_id, resource, extensions FROM notes
		WHERE issue_id = ? ORDER BY id
	`

	return r.queryNotes(ctx, query, issueID)
}

func (r *NoteRepo) queryNotes(ctx context.Context, query string, args ...any) ([]model.Note, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func scanNote(s scanner) (*model.Note, error) {
	var note model.Note
	var mergeRequestID, issueID sql.NullInt64
	var resource, extensions string

	if err := s.Scan(&note.ID, &mergeRequestID, &issueID, &resource, &extensions); err != nil {
		return nil, err
	}

	if mergeRequestID.Valid {
		note.MergeRequestID = &mergeRequestID.Int64
	}
	if issueID.Valid {
		note.IssueID = &issueID.Int64
	}

	if err := unmarshalPair(resource, extensions, &note.Resource, &note.Extensions); err != nil {
		return nil, err
	}
	return &note, nil
}
