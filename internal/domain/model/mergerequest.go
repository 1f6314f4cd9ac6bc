package model

// NoteAuthor is the upstream author record embedded in merge requests,
// issues, and notes.
type NoteAuthor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	State    string `json:"state"`
}

// MergeRequestResource is the upstream GitLab merge request payload.
type MergeRequestResource struct {
	ID              int64      `json:"id"`
	IID             int64      `json:"iid"`
	ProjectID       int64      `json:"project_id"`
	Title           string     `json:"title"`
	State           string     `json:"state"`
	MergedAt        string     `json:"merged_at"`
	Author          NoteAuthor `json:"author"`
	Squash          bool       `json:"squash"`
	SquashCommitSHA string     `json:"squash_commit_sha"`
	WebURL          string     `json:"web_url"`
}

// AuthorScoreSum is the per-author portion of a merge request's commit
// scores, grouped by author email.
type AuthorScoreSum struct {
	Sum         float64 `json:"sum"`
	HasOverride bool    `json:"has_override"`
}

// MergeRequestExtensions holds the locally computed merge request fields.
type MergeRequestExtensions struct {
	DiffScore       *float64                  `json:"diff_score,omitempty"`
	DiffHasOverride bool                      `json:"diff_has_override,omitempty"`
	Override        *ScoreOverride            `json:"override,omitempty"`
	CommitScoreSums map[string]AuthorScoreSum `json:"commit_score_sums,omitempty"`
}

// MergeRequest is a stored merge request belonging to one repository.
// Linked commits live in a separate join table; see the MergeRequestStore.
type MergeRequest struct {
	ID           int64
	RepositoryID int64
	Resource     MergeRequestResource
	Extensions   MergeRequestExtensions
}
