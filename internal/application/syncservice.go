package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// SyncService brings one repository's activity resources to parity with the
// upstream API. Each resource kind runs the same paginated
// fetch-then-idempotent-upsert loop; nested syncs (diffs, notes) fire only
// for genuinely new records so repeated passes never re-process existing
// rows.
type SyncService struct {
	client        driven.GitLabClient
	repositories  driven.RepositoryStore
	commits       driven.CommitStore
	mergeRequests driven.MergeRequestStore
	issues        driven.IssueStore
	notes         driven.NoteStore
	diffs         driven.DiffStore
	authors       driven.CommitAuthorStore
	members       driven.MemberStore
}

// NewSyncService creates a SyncService bound to one operation's client.
func NewSyncService(
	client driven.GitLabClient,
	repositories driven.RepositoryStore,
	commits driven.CommitStore,
	mergeRequests driven.MergeRequestStore,
	issues driven.IssueStore,
	notes driven.NoteStore,
	diffs driven.DiffStore,
	authors driven.CommitAuthorStore,
	members driven.MemberStore,
) *SyncService {
	return &SyncService{
		client:        client,
		repositories:  repositories,
		commits:       commits,
		mergeRequests: mergeRequests,
		issues:        issues,
		notes:         notes,
		diffs:         diffs,
		authors:       authors,
		members:       members,
	}
}

// forEachPage runs fetch from page 1 upward until it returns an empty page,
// passing every non-empty page to process. A fetch or process error aborts
// the loop and propagates.
func forEachPage[T any](fetch func(page int) ([]T, error), process func(items []T) error) error {
	for page := 1; ; page++ {
		items, err := fetch(page)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		if err := process(items); err != nil {
			return err
		}
	}
}

// SyncCommits pages through the default branch's commit feed. New commits
// trigger a nested diff sync; existing ones only refresh their upstream
// payload.
func (s *SyncService) SyncCommits(ctx context.Context, repo *model.Repository) error {
	branch := repo.Resource.DefaultBranch
	return forEachPage(
		func(page int) ([]model.CommitResource, error) {
			return s.client.FetchCommits(ctx, repo.Resource.ID, branch, page)
		},
		func(resources []model.CommitResource) error {
			for _, resource := range resources {
				if _, _, err := s.upsertCommit(ctx, repo, resource, false); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

// upsertCommit creates the commit if it is new, otherwise refreshes its
// upstream payload. Returns the stored commit and whether it was created.
func (s *SyncService) upsertCommit(ctx context.Context, repo *model.Repository, resource model.CommitResource, squashed bool) (*model.Commit, bool, error) {
	existing, err := s.commits.GetByExternalID(ctx, repo.ID, resource.ID)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		commit := &model.Commit{
			RepositoryID: repo.ID,
			Resource:     resource,
			Extensions:   model.CommitExtensions{Squashed: squashed},
		}
		if err := s.commits.Create(ctx, commit); err != nil {
			return nil, false, err
		}
		if err := s.syncCommitDiffs(ctx, repo, commit); err != nil {
			return nil, false, err
		}
		return commit, true, nil
	}

	existing.Resource = resource
	// A commit first seen through a squashed merge request stays tagged even
	// when a later pass re-observes it.
	if squashed {
		existing.Extensions.Squashed = true
	}
	if err := s.commits.Save(ctx, existing); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// syncCommitDiffs fetches and stores the per-file diffs of a new commit.
// Each diff records its base score (the added-line count); glob weights are
// applied at aggregation time.
func (s *SyncService) syncCommitDiffs(ctx context.Context, repo *model.Repository, commit *model.Commit) error {
	resources, err := s.client.FetchCommitDiffs(ctx, repo.Resource.ID, commit.Resource.ID)
	if err != nil {
		return err
	}
	for _, resource := range resources {
		if err := s.createDiff(ctx, repo, model.DiffSelector{CommitID: &commit.ID}, resource); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncService) createDiff(ctx context.Context, repo *model.Repository, selector model.DiffSelector, resource model.DiffResource) error {
	added, deleted := resource.LineCounts()
	diff := &model.Diff{
		RepositoryID:   repo.ID,
		CommitID:       selector.CommitID,
		MergeRequestID: selector.MergeRequestID,
		Resource:       resource,
		Extensions: model.DiffExtensions{
			Score:        float64(added),
			LinesAdded:   added,
			LinesDeleted: deleted,
		},
	}
	return s.diffs.Create(ctx, diff)
}

// SyncMergeRequests pages through the merged merge requests targeting the
// default branch. New merge requests trigger nested diff and note syncs.
func (s *SyncService) SyncMergeRequests(ctx context.Context, repo *model.Repository) error {
	branch := repo.Resource.DefaultBranch
	return forEachPage(
		func(page int) ([]model.MergeRequestResource, error) {
			return s.client.FetchMergeRequests(ctx, repo.Resource.ID, branch, page)
		},
		func(resources []model.MergeRequestResource) error {
			for _, resource := range resources {
				if err := s.upsertMergeRequest(ctx, repo, resource); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

func (s *SyncService) upsertMergeRequest(ctx context.Context, repo *model.Repository, resource model.MergeRequestResource) error {
	existing, err := s.mergeRequests.GetByExternalID(ctx, repo.ID, resource.ID)
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Resource = resource
		return s.mergeRequests.Save(ctx, existing)
	}

	mr := &model.MergeRequest{RepositoryID: repo.ID, Resource: resource}
	if err := s.mergeRequests.Create(ctx, mr); err != nil {
		return err
	}
	if err := s.syncMergeRequestDiffs(ctx, repo, mr); err != nil {
		return err
	}
	return s.syncMergeRequestNotes(ctx, repo, mr)
}

func (s *SyncService) syncMergeRequestDiffs(ctx context.Context, repo *model.Repository, mr *model.MergeRequest) error {
	resources, err := s.client.FetchMergeRequestDiffs(ctx, repo.Resource.ID, mr.Resource.IID)
	if err != nil {
		return err
	}
	for _, resource := range resources {
		if err := s.createDiff(ctx, repo, model.DiffSelector{MergeRequestID: &mr.ID}, resource); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncService) syncMergeRequestNotes(ctx context.Context, repo *model.Repository, mr *model.MergeRequest) error {
	resources, err := s.client.FetchMergeRequestNotes(ctx, repo.Resource.ID, mr.Resource.IID)
	if err != nil {
		return err
	}
	for _, resource := range resources {
		existing, err := s.notes.GetByExternalIDForMergeRequest(ctx, mr.ID, resource.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		note := &model.Note{
			MergeRequestID: &mr.ID,
			Resource:       resource,
			Extensions:     model.NoteExtensions{WordCount: resource.WordCount()},
		}
		if err := s.notes.Create(ctx, note); err != nil {
			return err
		}
	}
	return nil
}

// SyncIssues pages through the project's issues. New issues trigger a
// nested note sync.
func (s *SyncService) SyncIssues(ctx context.Context, repo *model.Repository) error {
	return forEachPage(
		func(page int) ([]model.IssueResource, error) {
			return s.client.FetchIssues(ctx, repo.Resource.ID, page)
		},
		func(resources []model.IssueResource) error {
			for _, resource := range resources {
				if err := s.upsertIssue(ctx, repo, resource); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

func (s *SyncService) upsertIssue(ctx context.Context, repo *model.Repository, resource model.IssueResource) error {
	existing, err := s.issues.GetByExternalID(ctx, repo.ID, resource.ID)
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Resource = resource
		return s.issues.Save(ctx, existing)
	}

	issue := &model.Issue{RepositoryID: repo.ID, Resource: resource}
	if err := s.issues.Create(ctx, issue); err != nil {
		return err
	}
	return s.syncIssueNotes(ctx, repo, issue)
}

func (s *SyncService) syncIssueNotes(ctx context.Context, repo *model.Repository, issue *model.Issue) error {
	resources, err := s.client.FetchIssueNotes(ctx, repo.Resource.ID, issue.Resource.IID)
	if err != nil {
		return err
	}
	for _, resource := range resources {
		existing, err := s.notes.GetByExternalIDForIssue(ctx, issue.ID, resource.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		note := &model.Note{
			IssueID:    &issue.ID,
			Resource:   resource,
			Extensions: model.NoteExtensions{WordCount: resource.WordCount()},
		}
		if err := s.notes.Create(ctx, note); err != nil {
			return err
		}
	}
	return nil
}

// LinkCommitsAndMergeRequests walks every stored merge request, fetches its
// upstream commit list, and replaces the local link set. For squashed merge
// requests the pre-squash commits are absent from the main feed, so they are
// synced here tagged squashed, and the synthetic squash commit is deleted to
// avoid double counting.
func (s *SyncService) LinkCommitsAndMergeRequests(ctx context.Context, repo *model.Repository) error {
	mrs, err := s.mergeRequests.ListByRepository(ctx, repo.ID)
	if err != nil {
		return err
	}

	for i := range mrs {
		if err := s.linkMergeRequestCommits(ctx, repo, &mrs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncService) linkMergeRequestCommits(ctx context.Context, repo *model.Repository, mr *model.MergeRequest) error {
	var commitIDs []int64
	totalPages := 1
	for page := 1; page <= totalPages; page++ {
		resources, pages, err := s.client.FetchMergeRequestCommits(ctx, repo.Resource.ID, mr.Resource.IID, page)
		if err != nil {
			return err
		}
		if pages > totalPages {
			totalPages = pages
		}
		if len(resources) == 0 {
			break
		}
		for _, resource := range resources {
			commit, _, err := s.upsertCommit(ctx, repo, resource, mr.Resource.Squash)
			if err != nil {
				return err
			}
			commitIDs = append(commitIDs, commit.ID)
		}
	}

	if err := s.mergeRequests.SetCommits(ctx, mr.ID, commitIDs); err != nil {
		return err
	}

	if mr.Resource.Squash && mr.Resource.SquashCommitSHA != "" {
		if err := s.deleteSquashCommit(ctx, repo, mr.Resource.SquashCommitSHA); err != nil {
			return err
		}
	}
	return nil
}

// deleteSquashCommit removes the synthetic single-commit record GitLab
// writes onto the target branch when a merge request is squashed. Its
// pre-squash history is stored instead.
func (s *SyncService) deleteSquashCommit(ctx context.Context, repo *model.Repository, sha string) error {
	squash, err := s.commits.GetByExternalID(ctx, repo.ID, sha)
	if err != nil {
		return err
	}
	if squash == nil {
		return nil
	}
	slog.Info("removing synthetic squash commit", "repository", repo.ID, "sha", sha)
	return s.commits.Delete(ctx, squash.ID)
}

// LinkAuthors diffs the distinct (name, email) pairs observed across the
// repository's commits against the known identity records, creating a row
// for each new pair with an immediate best-member match, then auto-links any
// remaining unlinked rows. Returns whether any member link changed; callers
// must flag the repository for recalculation when it did.
func (s *SyncService) LinkAuthors(ctx context.Context, repo *model.Repository, members []model.Member) (bool, error) {
	observed, err := s.commits.DistinctAuthors(ctx, repo.ID)
	if err != nil {
		return false, err
	}

	changed := false
	for _, pair := range observed {
		existing, err := s.authors.FindByIdentity(ctx, repo.ID, pair.AuthorName, pair.AuthorEmail)
		if err != nil {
			return changed, err
		}
		if existing != nil {
			continue
		}

		author := &model.CommitAuthor{
			RepositoryID: repo.ID,
			Resource: model.AuthorResource{
				AuthorName:  pair.AuthorName,
				AuthorEmail: pair.AuthorEmail,
			},
		}
		if member := BestMatchedMember(author.Resource, members); member != nil {
			author.Resource.MemberID = &member.ID
			changed = true
		}
		if err := s.authors.Create(ctx, author); err != nil {
			return changed, err
		}
	}

	authors, err := s.authors.ListByRepository(ctx, repo.ID)
	if err != nil {
		return changed, err
	}
	for _, author := range AutoLinkAuthors(authors, members) {
		if err := s.authors.Save(ctx, author); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}

// SyncMembers brings the repository's member list to parity with upstream.
func (s *SyncService) SyncMembers(ctx context.Context, repo *model.Repository) error {
	resources, err := s.client.FetchMembers(ctx, repo.Resource.ID)
	if err != nil {
		return err
	}

	for _, resource := range resources {
		existing, err := s.members.GetByExternalID(ctx, repo.ID, resource.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Resource = resource
			if err := s.members.Save(ctx, existing); err != nil {
				return err
			}
			continue
		}
		member := &model.Member{RepositoryID: repo.ID, Resource: resource}
		if err := s.members.Create(ctx, member); err != nil {
			return err
		}
	}
	return nil
}

// purgeActivity deletes every stored commit, merge request, and issue of a
// repository. Used when the default branch changed (the stored history is no
// longer valid) and by repository deletion. Per-item delete failures are
// logged and skipped; the purge keeps going.
func purgeActivity(
	ctx context.Context,
	commits driven.CommitStore,
	mergeRequests driven.MergeRequestStore,
	issues driven.IssueStore,
	repositoryID int64,
) error {
	stored, err := commits.ListByRepository(ctx, repositoryID)
	if err != nil {
		return fmt.Errorf("list commits for purge: %w", err)
	}
	for _, commit := range stored {
		if err := commits.Delete(ctx, commit.ID); err != nil {
			slog.Error("purge commit failed", "repository", repositoryID, "commit", commit.ID, "error", err)
		}
	}

	mrs, err := mergeRequests.ListByRepository(ctx, repositoryID)
	if err != nil {
		return fmt.Errorf("list merge requests for purge: %w", err)
	}
	for _, mr := range mrs {
		if err := mergeRequests.Delete(ctx, mr.ID); err != nil {
			slog.Error("purge merge request failed", "repository", repositoryID, "merge_request", mr.ID, "error", err)
		}
	}

	issueRows, err := issues.ListByRepository(ctx, repositoryID)
	if err != nil {
		return fmt.Errorf("list issues for purge: %w", err)
	}
	for _, issue := range issueRows {
		if err := issues.Delete(ctx, issue.ID); err != nil {
			slog.Error("purge issue failed", "repository", repositoryID, "issue", issue.ID, "error", err)
		}
	}
	return nil
}
