package model

// IssueResource is the upstream GitLab issue payload.
type IssueResource struct {
	ID        int64      `json:"id"`
	IID       int64      `json:"iid"`
	ProjectID int64      `json:"project_id"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	Author    NoteAuthor `json:"author"`
	CreatedAt string     `json:"created_at"`
	WebURL    string     `json:"web_url"`
}

// IssueExtensions is currently empty; the struct exists so issues follow the
// same resource/extensions persistence shape as every other entity.
type IssueExtensions struct{}

// Issue is a stored issue belonging to one repository.
type Issue struct {
	ID           int64
	RepositoryID int64
	Resource     IssueResource
	Extensions   IssueExtensions
}
