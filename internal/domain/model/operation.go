package model

import (
	"errors"
	"time"
)

// ErrNoToken is returned when a user has no stored GitLab access token.
// Executors abort the whole operation on it before starting any child stage.
var ErrNoToken = errors.New("no gitlab token stored for user")

// OperationType names the kind of async job an operation performs.
type OperationType string

const (
	OperationSyncRepository    OperationType = "SYNC_REPOSITORY"
	OperationFetchRepositories OperationType = "FETCH_REPOSITORIES"
	OperationDeleteRepository  OperationType = "DELETE_REPOSITORY"
)

// OperationStatus is the lifecycle state of an operation record.
type OperationStatus string

const (
	OperationPending    OperationStatus = "PENDING"
	OperationProcessing OperationStatus = "PROCESSING"
	OperationCompleted  OperationStatus = "COMPLETED"
)

// StageStatus is the state of one named phase within an operation.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageStarted    StageStatus = "started"
	StageCompleted  StageStatus = "completed"
	StageTerminated StageStatus = "terminated"
)

// Stage is an independently reportable phase of an operation. A terminated
// stage is terminal; stages never retry.
type Stage struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Status      StageStatus `json:"status"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
}

// OperationInput carries the parameters an operation was enqueued with.
type OperationInput struct {
	RepositoryID int64 `json:"repository_id,omitempty"`
}

// Operation is an async job record. Its stage log is the only externally
// observable progress surface: callers must read per-stage statuses rather
// than collapsing the record to a single pass/fail flag.
type Operation struct {
	ID        string
	UserID    int64
	Type      OperationType
	Status    OperationStatus
	Input     OperationInput
	StartTime *time.Time
	EndTime   *time.Time
	Stages    []Stage
}

// StageByName returns a pointer to the named stage, or nil.
func (o *Operation) StageByName(name string) *Stage {
	for i := range o.Stages {
		if o.Stages[i].Name == name {
			return &o.Stages[i]
		}
	}
	return nil
}
