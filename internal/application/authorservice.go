package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// AuthorService is the manual surface for identity links: explicitly
// assigning or clearing an author's member link, with the change propagated
// through the author's identity cluster.
type AuthorService struct {
	repositories driven.RepositoryStore
	authors      driven.CommitAuthorStore
}

// NewAuthorService creates a new AuthorService.
func NewAuthorService(repositories driven.RepositoryStore, authors driven.CommitAuthorStore) *AuthorService {
	return &AuthorService{repositories: repositories, authors: authors}
}

// SetMemberLink manually links (or, with nil, unlinks) an author to a
// member. The author is pinned against automatic reassignment, the change is
// propagated to unpinned authors in the same name cluster, and the
// repository is flagged for score recalculation.
func (s *AuthorService) SetMemberLink(ctx context.Context, authorID int64, memberID *int64) error {
	author, err := s.authors.Get(ctx, authorID)
	if err != nil {
		return err
	}
	if author == nil {
		return fmt.Errorf("commit author %d not found", authorID)
	}

	author.Resource.MemberID = copyMemberID(memberID)
	author.Resource.IsSet = true
	if err := s.authors.Save(ctx, author); err != nil {
		return err
	}

	all, err := s.authors.ListByRepository(ctx, author.RepositoryID)
	if err != nil {
		return err
	}
	changed := PropagateMemberLink(*author, all)
	for _, peer := range changed {
		if err := s.authors.Save(ctx, peer); err != nil {
			return err
		}
	}
	slog.Info("member link updated", "author", authorID, "repository", author.RepositoryID, "propagated", len(changed))

	return flagNeedsRecalculation(ctx, s.repositories, author.RepositoryID)
}

// flagNeedsRecalculation marks a repository's scores as stale. Cleared only
// by an explicit recalculation pass.
func flagNeedsRecalculation(ctx context.Context, repositories driven.RepositoryStore, repositoryID int64) error {
	repo, err := repositories.Get(ctx, repositoryID)
	if err != nil {
		return err
	}
	if repo == nil {
		return fmt.Errorf("repository %d not found", repositoryID)
	}
	if repo.Extensions.NeedsRecalculation {
		return nil
	}
	repo.Extensions.NeedsRecalculation = true
	return repositories.Save(ctx, repo)
}
