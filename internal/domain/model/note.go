package model

import (
	"regexp"
	"strings"
)

// systemSuffixPattern matches trailing *...* markup that GitLab appends to
// notes for system-generated content. Those words are not written by the
// member and are excluded from word counts.
var systemSuffixPattern = regexp.MustCompile(`\*([^*]+)\*$`)

// NoteResource is the upstream GitLab discussion note payload.
type NoteResource struct {
	ID           int64      `json:"id"`
	Body         string     `json:"body"`
	Author       NoteAuthor `json:"author"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
	System       bool       `json:"system"`
	NoteableID   int64      `json:"noteable_id"`
	NoteableType string     `json:"noteable_type"`
	NoteableIID  int64      `json:"noteable_iid"`
	Resolvable   bool       `json:"resolvable"`
}

// WordCount returns the number of whitespace-separated words in the note
// body after stripping system-generated content.
func (n NoteResource) WordCount() int {
	body := systemSuffixPattern.ReplaceAllString(n.Body, "")
	return len(strings.Fields(body))
}

// NoteExtensions holds the locally computed note fields.
type NoteExtensions struct {
	WordCount int `json:"word_count"`
}

// Note is a stored discussion note attached to exactly one of a merge
// request or an issue.
type Note struct {
	ID             int64
	MergeRequestID *int64
	IssueID        *int64
	Resource       NoteResource
	Extensions     NoteExtensions
}
