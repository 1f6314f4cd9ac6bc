package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// ScoreService computes and persists contribution scores for commits and
// merge requests, honoring manual overrides at every level.
type ScoreService struct {
	repositories  driven.RepositoryStore
	commits       driven.CommitStore
	mergeRequests driven.MergeRequestStore
	scorer        driven.DiffScorer
}

// NewScoreService creates a new ScoreService.
func NewScoreService(
	repositories driven.RepositoryStore,
	commits driven.CommitStore,
	mergeRequests driven.MergeRequestStore,
	scorer driven.DiffScorer,
) *ScoreService {
	return &ScoreService{
		repositories:  repositories,
		commits:       commits,
		mergeRequests: mergeRequests,
		scorer:        scorer,
	}
}

// Recalculate recomputes every stored commit and merge request score for one
// repository as a batch, then clears the recalculation flag. Running it
// twice without upstream changes stores identical scores.
func (s *ScoreService) Recalculate(ctx context.Context, repo *model.Repository) error {
	weights := repo.Weights()

	commits, err := s.commits.ListByRepository(ctx, repo.ID)
	if err != nil {
		return fmt.Errorf("list commits: %w", err)
	}
	for i := range commits {
		if err := s.recalculateCommit(ctx, &commits[i], weights); err != nil {
			return fmt.Errorf("score commit %s: %w", commits[i].Resource.ID, err)
		}
	}

	mrs, err := s.mergeRequests.ListByRepository(ctx, repo.ID)
	if err != nil {
		return fmt.Errorf("list merge requests: %w", err)
	}
	for i := range mrs {
		if err := s.recalculateMergeRequest(ctx, &mrs[i], weights); err != nil {
			return fmt.Errorf("score merge request %d: %w", mrs[i].Resource.IID, err)
		}
	}

	if repo.Extensions.NeedsRecalculation {
		repo.Extensions.NeedsRecalculation = false
		if err := s.repositories.Save(ctx, repo); err != nil {
			return fmt.Errorf("clear recalculation flag: %w", err)
		}
	}

	slog.Info("scores recalculated", "repository", repo.ID, "commits", len(commits), "merge_requests", len(mrs))
	return nil
}

// recalculateCommit stores the commit's effective score. Merge commits carry
// their parents' work and always score zero.
func (s *ScoreService) recalculateCommit(ctx context.Context, commit *model.Commit, weights []model.GlobWeight) error {
	var computed model.DiffScore
	if !commit.Resource.IsMergeCommit() {
		var err error
		computed, err = s.scorer.Score(ctx, model.DiffSelector{CommitID: &commit.ID}, weights)
		if err != nil {
			return err
		}
	}

	effective := commit.Extensions.Override.EffectiveScore(computed.Score)
	commit.Extensions.Score = &effective
	commit.Extensions.DiffHasOverride = computed.HasOverride
	return s.commits.Save(ctx, commit)
}

// recalculateMergeRequest stores the merge request's own diff score plus the
// per-author breakdown of its linked commits' effective scores.
func (s *ScoreService) recalculateMergeRequest(ctx context.Context, mr *model.MergeRequest, weights []model.GlobWeight) error {
	computed, err := s.scorer.Score(ctx, model.DiffSelector{MergeRequestID: &mr.ID}, weights)
	if err != nil {
		return err
	}

	effective := mr.Extensions.Override.EffectiveScore(computed.Score)
	mr.Extensions.DiffScore = &effective
	mr.Extensions.DiffHasOverride = computed.HasOverride

	linked, err := s.mergeRequests.ListCommits(ctx, mr.ID)
	if err != nil {
		return err
	}
	mr.Extensions.CommitScoreSums = s.commitScoreSums(linked)

	return s.mergeRequests.Save(ctx, mr)
}

// commitScoreSums groups the linked commits' effective scores by author
// email. A group's HasOverride is set when any commit in it carried one.
func (s *ScoreService) commitScoreSums(commits []model.Commit) map[string]model.AuthorScoreSum {
	sums := make(map[string]model.AuthorScoreSum, len(commits))
	for _, commit := range commits {
		if commit.Resource.IsMergeCommit() {
			continue
		}
		var score float64
		if commit.Extensions.Score != nil {
			score = *commit.Extensions.Score
		}
		entry := sums[commit.Resource.AuthorEmail]
		entry.Sum += score
		entry.HasOverride = entry.HasOverride || commit.Extensions.Override.IsSet() || commit.Extensions.DiffHasOverride
		sums[commit.Resource.AuthorEmail] = entry
	}
	return sums
}

// SetCommitOverride attaches (or clears, with nil) a manual score override
// to a commit and flags its repository for recalculation.
func (s *ScoreService) SetCommitOverride(ctx context.Context, commitID int64, override *model.ScoreOverride) error {
	commit, err := s.commits.Get(ctx, commitID)
	if err != nil {
		return err
	}
	if commit == nil {
		return fmt.Errorf("commit %d not found", commitID)
	}

	commit.Extensions.Override = override
	if err := s.commits.Save(ctx, commit); err != nil {
		return err
	}
	return flagNeedsRecalculation(ctx, s.repositories, commit.RepositoryID)
}

// SetMergeRequestOverride attaches (or clears, with nil) a manual score
// override to a merge request and flags its repository for recalculation.
func (s *ScoreService) SetMergeRequestOverride(ctx context.Context, mergeRequestID int64, override *model.ScoreOverride) error {
	mr, err := s.mergeRequests.Get(ctx, mergeRequestID)
	if err != nil {
		return err
	}
	if mr == nil {
		return fmt.Errorf("merge request %d not found", mergeRequestID)
	}

	mr.Extensions.Override = override
	if err := s.mergeRequests.Save(ctx, mr); err != nil {
		return err
	}
	return flagNeedsRecalculation(ctx, s.repositories, mr.RepositoryID)
}
