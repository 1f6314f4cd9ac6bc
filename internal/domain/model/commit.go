package model

// CommitResource is the upstream GitLab commit payload. The external id is
// the content hash.
type CommitResource struct {
	ID             string   `json:"id"`
	ShortID        string   `json:"short_id"`
	ParentIDs      []string `json:"parent_ids"`
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	AuthorName     string   `json:"author_name"`
	AuthorEmail    string   `json:"author_email"`
	AuthoredDate   string   `json:"authored_date"`
	CommitterName  string   `json:"committer_name"`
	CommitterEmail string   `json:"committer_email"`
	CommittedDate  string   `json:"committed_date"`
	WebURL         string   `json:"web_url"`
}

// IsMergeCommit reports whether the commit has more than one parent.
// Merge commits are excluded from score aggregation.
func (c CommitResource) IsMergeCommit() bool {
	return len(c.ParentIDs) > 1
}

// CommitExtensions holds the locally computed commit fields.
type CommitExtensions struct {
	Score           *float64       `json:"score,omitempty"`
	DiffHasOverride bool           `json:"diff_has_override,omitempty"`
	Override        *ScoreOverride `json:"override,omitempty"`
	// Squashed marks commits that were part of a squashed merge request and
	// are therefore absent from the repository's main commit feed.
	Squashed bool `json:"squashed,omitempty"`
}

// Commit is a stored commit belonging to one repository.
type Commit struct {
	ID           int64
	RepositoryID int64
	Resource     CommitResource
	Extensions   CommitExtensions
}

// Author is a distinct (name, email) identity pair observed across commits.
type Author struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}
