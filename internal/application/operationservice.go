package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// OperationService enqueues async jobs and runs the background worker that
// claims and executes them. Operations for different repositories may run in
// any order; no mutual exclusion is enforced here.
type OperationService struct {
	operations driven.OperationStore
	scores     *ScoreService
	stores     Stores
	executors  map[model.OperationType]Executor
	interval   time.Duration
}

// NewOperationService creates a new OperationService with the standard
// executor set.
func NewOperationService(factory driven.GitLabClientFactory, stores Stores, scores *ScoreService, interval time.Duration) *OperationService {
	return &OperationService{
		operations: stores.Operations,
		scores:     scores,
		stores:     stores,
		executors: map[model.OperationType]Executor{
			model.OperationSyncRepository:    NewSyncRepositoryExecutor(factory, stores),
			model.OperationFetchRepositories: NewFetchRepositoriesExecutor(factory, stores),
			model.OperationDeleteRepository:  NewDeleteRepositoryExecutor(stores),
		},
		interval: interval,
	}
}

// Enqueue records a new pending operation and returns it. The worker picks
// it up on its next pass.
func (s *OperationService) Enqueue(ctx context.Context, userID int64, opType model.OperationType, input model.OperationInput) (*model.Operation, error) {
	op := &model.Operation{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   opType,
		Status: model.OperationPending,
		Input:  input,
	}
	if err := s.operations.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", opType, err)
	}
	slog.Info("operation enqueued", "operation", op.ID, "type", opType, "user", userID)
	return op, nil
}

// Get returns the operation record, including its stage log.
func (s *OperationService) Get(ctx context.Context, id string) (*model.Operation, error) {
	return s.operations.Get(ctx, id)
}

// Execute runs one operation to completion. The record moves PENDING →
// PROCESSING → COMPLETED regardless of stage outcomes; per-stage statuses
// carry the partial-failure picture. The executor's error is returned for
// logging only.
func (s *OperationService) Execute(ctx context.Context, op *model.Operation) error {
	executor, ok := s.executors[op.Type]
	if !ok {
		return fmt.Errorf("no executor for operation type %s", op.Type)
	}

	now := time.Now().UTC()
	op.Status = model.OperationProcessing
	op.StartTime = &now
	if err := s.operations.Save(ctx, op); err != nil {
		return fmt.Errorf("claim operation %s: %w", op.ID, err)
	}

	runErr := executor.Run(ctx, op)
	if runErr != nil {
		slog.Error("operation failed", "operation", op.ID, "type", op.Type, "error", runErr)
	}

	end := time.Now().UTC()
	op.Status = model.OperationCompleted
	op.EndTime = &end
	if err := s.operations.Save(ctx, op); err != nil {
		return fmt.Errorf("finish operation %s: %w", op.ID, err)
	}
	return runErr
}

// Start runs the worker loop: an immediate pass, then one per interval,
// until the context is canceled. Each pass executes every pending operation
// in order and then recomputes scores for repositories flagged stale.
func (s *OperationService) Start(ctx context.Context) {
	s.runPass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("operation worker stopping")
			return
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

func (s *OperationService) runPass(ctx context.Context) {
	pending, err := s.operations.ListPending(ctx)
	if err != nil {
		slog.Error("list pending operations failed", "error", err)
		return
	}

	for i := range pending {
		if ctx.Err() != nil {
			return
		}
		// Execute's error is already logged; the pass keeps going.
		_ = s.Execute(ctx, &pending[i])
	}

	s.recalculateFlagged(ctx)
}

// recalculateFlagged runs the batch score recomputation for every
// repository whose identity links or overrides changed since the last pass.
func (s *OperationService) recalculateFlagged(ctx context.Context) {
	repos, err := s.stores.Repositories.ListNeedingRecalculation(ctx)
	if err != nil {
		slog.Error("list repositories needing recalculation failed", "error", err)
		return
	}

	for i := range repos {
		if ctx.Err() != nil {
			return
		}
		if err := s.scores.Recalculate(ctx, &repos[i]); err != nil {
			slog.Error("score recalculation failed", "repository", repos[i].ID, "error", err)
		}
	}
}
