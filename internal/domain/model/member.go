package model

// MemberResource is the upstream GitLab project member payload.
type MemberResource struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	State       string `json:"state"`
	AccessLevel int    `json:"access_level"`
}

// Member is a registered project member belonging to one repository.
type Member struct {
	ID           int64
	RepositoryID int64
	Resource     MemberResource
}
