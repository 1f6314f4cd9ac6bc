package sqlite

import (
	"context"
	"testing"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteRepo_MergeRequestNotes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := addTestRepository(t, db, 7, 1001)
	mrRepo := NewMergeRequestRepo(db)
	noteRepo := NewNoteRepo(db)

	mr := makeMergeRequest(repo.ID, 9001, 1)
	require.NoError(t, mrRepo.Create(ctx, mr))

	note := &model.Note{
		MergeRequestID: &mr.ID,
		Resource: model.NoteResource{
			ID:     501,
			Body:   "Looks good, one nit on naming.",
			Author: model.NoteAuthor{ID: 55, Username: "jdoe"},
		},
		Extensions: model.NoteExtensions{WordCount: 6},
	}
	require.NoError(t, noteRepo.Create(ctx, note))
	require.NotZero(t, note.ID)

	got, err := noteRepo.GetByExternalIDForMergeRequest(ctx, mr.ID, 501)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.MergeRequestID)
	assert.Equal(t, mr.ID, *got.MergeRequestID)
	assert.Nil(t, got.IssueID)
	assert.Equal(t, 6, got.Extensions.WordCount)

	notes, err := noteRepo.ListByMergeRequest(ctx, mr.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
}

func TestNoteRepo_IssueNotes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := addTestRepository(t, db, 7, 1001)
	issueRepo := NewIssueRepo(db)
	noteRepo := NewNoteRepo(db)

	issue := &model.Issue{
		RepositoryID: repo.ID,
		Resource:     model.IssueResource{ID: 301, IID: 4, Title: "Crash on empty input"},
	}
	require.NoError(t, issueRepo.Create(ctx, issue))

	note := &model.Note{
		IssueID: &issue.ID,
		Resource: model.NoteResource{
			ID:   502,
			Body: "Reproduced on main.",
		},
		Extensions: model.NoteExtensions{WordCount: 3},
	}
	require.NoError(t, noteRepo.Create(ctx, note))

	got, err := noteRepo.GetByExternalIDForIssue(ctx, issue.ID, 502)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.IssueID)
	assert.Equal(t, issue.ID, *got.IssueID)
	assert.Nil(t, got.MergeRequestID)

	// Same external id scoped to a merge request does not match.
	missing, err := noteRepo.GetByExternalIDForMergeRequest(ctx, issue.ID, 502)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
