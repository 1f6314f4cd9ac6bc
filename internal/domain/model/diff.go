package model

import "strings"

// DiffResource is the upstream GitLab diff payload for a single file.
type DiffResource struct {
	OldPath     string `json:"old_path"`
	NewPath     string `json:"new_path"`
	AMode       string `json:"a_mode"`
	BMode       string `json:"b_mode"`
	NewFile     bool   `json:"new_file"`
	RenamedFile bool   `json:"renamed_file"`
	DeletedFile bool   `json:"deleted_file"`
	Diff        string `json:"diff"`
}

// LineCounts returns the number of added and deleted lines in the unified
// diff text. File headers (+++/---) are not counted.
func (d DiffResource) LineCounts() (added, deleted int) {
	for _, line := range strings.Split(d.Diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			deleted++
		}
	}
	return added, deleted
}

// DiffExtensions holds the locally computed diff fields.
type DiffExtensions struct {
	Score        float64        `json:"score"`
	LinesAdded   int            `json:"lines_added"`
	LinesDeleted int            `json:"lines_deleted"`
	Override     *ScoreOverride `json:"override,omitempty"`
}

// Diff is a stored per-file diff attached to exactly one of a commit or a
// merge request.
type Diff struct {
	ID             int64
	RepositoryID   int64
	CommitID       *int64
	MergeRequestID *int64
	Resource       DiffResource
	Extensions     DiffExtensions
}

// DiffSelector identifies either a single commit's diffs or a merge
// request's aggregate diff for scoring.
type DiffSelector struct {
	CommitID       *int64
	MergeRequestID *int64
}

// DiffScore is the result of scoring a diff selector.
type DiffScore struct {
	Score       float64
	HasOverride bool
}
