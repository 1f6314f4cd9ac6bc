package model

// Token is a stored GitLab access token for one user. How tokens are issued
// or refreshed is out of scope; this subsystem only reads them.
type Token struct {
	UserID int64
	Token  string
}
