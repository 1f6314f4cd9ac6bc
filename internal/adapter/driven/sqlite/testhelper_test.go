package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() ensures isolation between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename component
	// and cannot be misinterpreted as query parameters in the "file:%s?..." DSN.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// addTestRepository inserts a repository required for foreign key constraints.
func addTestRepository(t *testing.T, db *DB, userID, externalID int64) *model.Repository {
	t.Helper()

	lastSync := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	repo := &model.Repository{
		UserID: userID,
		Resource: model.ProjectResource{
			ID:                externalID,
			Name:              "course-project",
			NameWithNamespace: "group / course-project",
			DefaultBranch:     "main",
			WebURL:            "https://gitlab.example.com/group/course-project",
		},
		Extensions: model.RepositoryExtensions{LastSync: &lastSync},
	}
	require.NoError(t, NewRepositoryRepo(db).Create(context.Background(), repo))
	return repo
}

func makeCommit(repositoryID int64, sha, name, email string) *model.Commit {
	return &model.Commit{
		RepositoryID: repositoryID,
		Resource: model.CommitResource{
			ID:          sha,
			ShortID:     sha[:7],
			ParentIDs:   []string{"p" + sha},
			Title:       "Add feature",
			Message:     "Add feature\n\nFull message.",
			AuthorName:  name,
			AuthorEmail: email,
		},
	}
}
