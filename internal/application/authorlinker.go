package application

import (
	"strings"

	"github.com/akn-sfu/glimps/internal/domain/model"
)

// identityClusters groups the identity strings of a repository's commit
// authors into equivalence sets. The universe holds every lowercased author
// name and email local-part once; authors whose strings land in the same
// set are treated as the same person.
type identityClusters struct {
	uf    *unionFind
	index map[string]int
}

// clusterIdentities builds the clusters for one repository's authors.
// Every author's own name and email local-part are unioned first, then any
// two strings whose best mutual similarity exceeds the match threshold.
func clusterIdentities(authors []model.CommitAuthor) *identityClusters {
	index := make(map[string]int)
	var universe []string
	add := func(s string) {
		if _, ok := index[s]; !ok {
			index[s] = len(universe)
			universe = append(universe, s)
		}
	}
	for _, author := range authors {
		add(strings.ToLower(author.Resource.AuthorName))
	}
	for _, author := range authors {
		add(strings.ToLower(emailLocalPart(author.Resource.AuthorEmail)))
	}

	uf := newUnionFind(len(universe))
	for _, author := range authors {
		name := strings.ToLower(author.Resource.AuthorName)
		local := strings.ToLower(emailLocalPart(author.Resource.AuthorEmail))
		uf.union(index[name], index[local])
	}

	for i, s1 := range universe {
		bestIdx := -1
		bestScore := 0.0
		for j, s2 := range universe {
			if i == j {
				continue
			}
			// Strictly greater, so the first-found maximum wins ties.
			if score := similarity(s1, s2); score > bestScore {
				bestScore = score
				bestIdx = j
			}
		}
		if bestIdx >= 0 && bestScore > matchThreshold && !uf.connected(i, bestIdx) {
			uf.union(i, bestIdx)
		}
	}

	return &identityClusters{uf: uf, index: index}
}

// sameNameRoot reports whether two authors' name strings belong to the same
// cluster.
func (c *identityClusters) sameNameRoot(a, b model.AuthorResource) bool {
	i, ok := c.index[strings.ToLower(a.AuthorName)]
	if !ok {
		return false
	}
	j, ok := c.index[strings.ToLower(b.AuthorName)]
	if !ok {
		return false
	}
	return c.uf.connected(i, j)
}

// PropagateMemberLink pushes a manually edited member link (or unlink) from
// the modified author to every other author in the same name cluster that
// has not itself been manually set. It mutates matching entries of authors
// in place and returns pointers to the changed rows; callers persist them
// and flag the repository for recalculation.
func PropagateMemberLink(modified model.CommitAuthor, authors []model.CommitAuthor) []*model.CommitAuthor {
	if len(authors) == 0 {
		return nil
	}

	clusters := clusterIdentities(authors)
	var changed []*model.CommitAuthor
	for i := range authors {
		if authors[i].ID == modified.ID || authors[i].Resource.IsSet {
			continue
		}
		if !clusters.sameNameRoot(authors[i].Resource, modified.Resource) {
			continue
		}
		if sameMemberLink(authors[i].Resource.MemberID, modified.Resource.MemberID) {
			continue
		}
		authors[i].Resource.MemberID = copyMemberID(modified.Resource.MemberID)
		changed = append(changed, &authors[i])
	}
	return changed
}

// AutoLinkAuthors assigns the best-matching member to every author that has
// no link and no manual assignment. It mutates matching entries of authors
// in place and returns pointers to the changed rows.
func AutoLinkAuthors(authors []model.CommitAuthor, members []model.Member) []*model.CommitAuthor {
	if len(authors) == 0 || len(members) == 0 {
		return nil
	}

	var changed []*model.CommitAuthor
	for i := range authors {
		if authors[i].Resource.IsSet || authors[i].Resource.MemberID != nil {
			continue
		}
		member := BestMatchedMember(authors[i].Resource, members)
		if member == nil {
			continue
		}
		id := member.ID
		authors[i].Resource.MemberID = &id
		changed = append(changed, &authors[i])
	}
	return changed
}

func sameMemberLink(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyMemberID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
