package application

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akn-sfu/glimps/internal/adapter/driven/sqlite"
	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// newTestStores opens a throwaway SQLite database and returns the full store
// bundle backed by it. Application tests run against the real stores; only
// the upstream client is stubbed.
func newTestStores(t *testing.T) Stores {
	t.Helper()

	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "glimps.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.RunMigrations(db.Writer))

	return Stores{
		Repositories:  sqlite.NewRepositoryRepo(db),
		Commits:       sqlite.NewCommitRepo(db),
		MergeRequests: sqlite.NewMergeRequestRepo(db),
		Issues:        sqlite.NewIssueRepo(db),
		Notes:         sqlite.NewNoteRepo(db),
		Diffs:         sqlite.NewDiffRepo(db),
		Authors:       sqlite.NewCommitAuthorRepo(db),
		Members:       sqlite.NewMemberRepo(db),
		Operations:    sqlite.NewOperationRepo(db),
		Tokens:        sqlite.NewTokenRepo(db),
	}
}

// stubClient is an in-memory GitLabClient fed from fixture pages. Calls are
// counted so tests can assert pagination behavior; it is safe for the
// concurrent resource-kind fan-out.
type stubClient struct {
	mu sync.Mutex

	defaultBranch string
	branchErr     error

	projectPages [][]model.ProjectResource
	commitPages  [][]model.CommitResource
	commitsErr   error
	mrPages      [][]model.MergeRequestResource
	mrsErr       error
	issuePages   [][]model.IssueResource
	issuesErr    error

	mrCommits   map[int64][][]model.CommitResource
	commitDiffs map[string][]model.DiffResource
	mrDiffs     map[int64][]model.DiffResource
	mrNotes     map[int64][]model.NoteResource
	issueNotes  map[int64][]model.NoteResource
	members     []model.MemberResource

	commitFetches     int
	commitDiffFetches int
	mrCommitFetches   int
	mrNoteFetches     int
	issueNoteFetches  int
}

var _ driven.GitLabClient = (*stubClient)(nil)

func newStubClient() *stubClient {
	return &stubClient{
		defaultBranch: "main",
		mrCommits:     map[int64][][]model.CommitResource{},
		commitDiffs:   map[string][]model.DiffResource{},
		mrDiffs:       map[int64][]model.DiffResource{},
		mrNotes:       map[int64][]model.NoteResource{},
		issueNotes:    map[int64][]model.NoteResource{},
	}
}

func pageAt[T any](pages [][]T, page int) []T {
	if page < 1 || page > len(pages) {
		return nil
	}
	return pages[page-1]
}

func (c *stubClient) FetchProjects(_ context.Context, page int) ([]model.ProjectResource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pageAt(c.projectPages, page), nil
}

func (c *stubClient) FetchDefaultBranch(_ context.Context, _ int64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defaultBranch, c.branchErr
}

func (c *stubClient) FetchCommits(_ context.Context, _ int64, _ string, page int) ([]model.CommitResource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commitFetches++
	if c.commitsErr != nil {
		return nil, c.commitsErr
	}
	return pageAt(c.commitPages, page), nil
}

func (c *stubClient) FetchMergeRequests(_ context.Context, _ int64, _ string, page int) ([]model.MergeRequestResource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mrsErr != nil {
		return nil, c.mrsErr
	}
	return pageAt(c.mrPages, page), nil
}

func (c *stubClient) FetchMergeRequestCommits(_ context.Context, _ int64, mergeRequestIID int64, page int) ([]model.CommitResource, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mrCommitFetches++
	pages := c.mrCommits[mergeRequestIID]
	return pageAt(pages, page), len(pages), nil
}

func (c *stubClient) FetchIssues(_ context.Context, _ int64, page int) ([]model.IssueResource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.issuesErr != nil {
		return nil, c.issuesErr
	}
	return pageAt(c.issuePages, page), nil
}

func (c *stubClient) FetchMergeRequestNotes(_ context.Context, _ int64, mergeRequestIID int64) ([]model.NoteResource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mrNoteFetches++
	return c.mrNotes[mergeRequestIID], nil
}

func (c *stubClient) FetchIssueNotes(_ context.Context, _ int64, issueIID int64) ([]model.NoteResource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issueNoteFetches++
	return c.issueNotes[issueIID], nil
}

func (c *stubClient) FetchMembers(_ context.Context, _ int64) ([]model.MemberResource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.members, nil
}

func (c *stubClient) FetchCommitDiffs(_ context.Context, _ int64, sha string) ([]model.DiffResource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commitDiffFetches++
	return c.commitDiffs[sha], nil
}

func (c *stubClient) FetchMergeRequestDiffs(_ context.Context, _ int64, mergeRequestIID int64) ([]model.DiffResource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mrDiffs[mergeRequestIID], nil
}

// stubFactory hands out the same stub client for every token.
type stubFactory struct {
	client *stubClient
}

var _ driven.GitLabClientFactory = (*stubFactory)(nil)

func (f *stubFactory) ClientFor(string) driven.GitLabClient {
	return f.client
}

func newTestSyncService(client driven.GitLabClient, stores Stores) *SyncService {
	return NewSyncService(
		client,
		stores.Repositories, stores.Commits, stores.MergeRequests,
		stores.Issues, stores.Notes, stores.Diffs,
		stores.Authors, stores.Members,
	)
}

// addRepo stores a repository fixture with the given default branch.
func addRepo(t *testing.T, stores Stores, branch string) *model.Repository {
	t.Helper()
	repo := &model.Repository{
		UserID: 7,
		Resource: model.ProjectResource{
			ID:            1001,
			Name:          "course-project",
			DefaultBranch: branch,
		},
	}
	require.NoError(t, stores.Repositories.Create(context.Background(), repo))
	return repo
}

func commitResource(sha, name, email string) model.CommitResource {
	return model.CommitResource{
		ID:          sha,
		ShortID:     sha[:min(7, len(sha))],
		ParentIDs:   []string{"parent-" + sha},
		Title:       "Change " + sha,
		Message:     "Change " + sha,
		AuthorName:  name,
		AuthorEmail: email,
	}
}
