// Package model contains the domain types shared by all layers. Every synced
// entity is split into a Resource struct (the upstream payload, stored
// verbatim) and an Extensions struct (locally derived fields). The two are
// never merged so change detection against upstream only ever compares
// upstream fields.
package model

import "time"

// ProjectResource is the upstream GitLab project payload.
type ProjectResource struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	NameWithNamespace string `json:"name_with_namespace"`
	DefaultBranch     string `json:"default_branch"`
	WebURL            string `json:"web_url"`
	CreatedAt         string `json:"created_at"`
}

// Collaborator is a user granted access to a tracked repository.
type Collaborator struct {
	UserID      int64  `json:"id"`
	Display     string `json:"display"`
	AccessLevel string `json:"access_level"`
}

// GlobWeight maps a file path glob to a scoring weight.
type GlobWeight struct {
	Glob   string  `json:"glob"`
	Weight float64 `json:"weight"`
}

// ScoringConfig holds the glob weights used when computing diff scores.
type ScoringConfig struct {
	Name    string       `json:"name"`
	Weights []GlobWeight `json:"weights"`
}

// RepositoryExtensions holds every locally derived repository field.
type RepositoryExtensions struct {
	LastSync           *time.Time     `json:"last_sync,omitempty"`
	NeedsRecalculation bool           `json:"needs_recalculation,omitempty"`
	ScoringConfig      *ScoringConfig `json:"scoring_config,omitempty"`
	Collaborators      []Collaborator `json:"collaborators,omitempty"`
}

// Repository is a tracked GitLab project owned by a user.
type Repository struct {
	ID         int64
	UserID     int64
	Resource   ProjectResource
	Extensions RepositoryExtensions
}

// Weights returns the configured glob weights, or nil when no scoring
// config has been attached yet.
func (r Repository) Weights() []GlobWeight {
	if r.Extensions.ScoringConfig == nil {
		return nil
	}
	return r.Extensions.ScoringConfig.Weights
}
