// Package driven defines the driven ports: the narrow interfaces this
// subsystem consumes for upstream access and persistence.
package driven

import (
	"context"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// GitLabClientFactory builds a GitLabClient bound to one user's access
// token. Executors resolve the token per operation and bind a client for the
// duration of the run.
type GitLabClientFactory interface {
	ClientFor(token string) GitLabClient
}

// GitLabClient defines the driven port for the GitLab REST API. Paged
// methods fetch exactly one page with a fixed page size and return an empty
// slice to signal pagination end. Transient failures are retried up to the
// client's retry budget before the last error propagates.
type GitLabClient interface {
	// FetchProjects returns one page of projects the token's user is a
	// member of.
	FetchProjects(ctx context.Context, page int) ([]model.ProjectResource, error)
	// FetchDefaultBranch returns the project's current default branch name.
	FetchDefaultBranch(ctx context.Context, projectID int64) (string, error)
	// FetchCommits returns one page of commits on the given branch.
	FetchCommits(ctx context.Context, projectID int64, branch string, page int) ([]model.CommitResource, error)
	// FetchMergeRequests returns one page of merged merge requests targeting
	// the given branch.
	FetchMergeRequests(ctx context.Context, projectID int64, targetBranch string, page int) ([]model.MergeRequestResource, error)
	// FetchMergeRequestCommits returns one page of a merge request's commits
	// along with the total page count from the X-Total-Pages header.
	FetchMergeRequestCommits(ctx context.Context, projectID, mergeRequestIID int64, page int) ([]model.CommitResource, int, error)
	// FetchIssues returns one page of issues.
	FetchIssues(ctx context.Context, projectID int64, page int) ([]model.IssueResource, error)
	// FetchMergeRequestNotes returns the discussion notes of a merge request.
	FetchMergeRequestNotes(ctx context.Context, projectID, mergeRequestIID int64) ([]model.NoteResource, error)
	// FetchIssueNotes returns the discussion notes of an issue.
	FetchIssueNotes(ctx context.Context, projectID, issueIID int64) ([]model.NoteResource, error)
	// FetchMembers returns all members of a project, including inherited ones.
	FetchMembers(ctx context.Context, projectID int64) ([]model.MemberResource, error)
	// FetchCommitDiffs returns the per-file diffs of a single commit.
	FetchCommitDiffs(ctx context.Context, projectID int64, sha string) ([]model.DiffResource, error)
	// FetchMergeRequestDiffs returns the per-file diffs of a merge request.
	FetchMergeRequestDiffs(ctx context.Context, projectID, mergeRequestIID int64) ([]model.DiffResource, error)
}
