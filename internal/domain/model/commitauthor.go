package model

// AuthorResource is the identity record for a distinct (name, email) pair
// observed in a repository's commits. MemberID links the identity to a
// registered repository member; IsSet marks the link as manually chosen,
// which excludes the author from automatic reassignment.
type AuthorResource struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	MemberID    *int64 `json:"repository_member_id,omitempty"`
	IsSet       bool   `json:"is_set,omitempty"`
}

// CommitAuthor is a stored identity record, unique per
// (repository, author_name, author_email).
type CommitAuthor struct {
	ID           int64
	RepositoryID int64
	Resource     AuthorResource
}
