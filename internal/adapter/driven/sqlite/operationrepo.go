package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OperationStore = (*OperationRepo)(nil)

// OperationRepo is the SQLite implementation of the OperationStore port.
// Operation ids are caller-assigned UUID strings, not autoincrement rows.
type OperationRepo struct {
	db *DB
}

// NewOperationRepo creates a new OperationRepo backed by the given DB.
func NewOperationRepo(db *DB) *OperationRepo {
	return &OperationRepo{db: db}
}

// Create inserts an operation record.
func (r *OperationRepo) Create(ctx context.Context, op *model.Operation) error {
	const query = `
		INSERT INTO operations (id, user_id, type, status, input, stages, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	input, stages, err := marshalOperation(op)
	if err != nil {
		return err
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		op.ID, op.UserID, string(op.Type), string(op.Status),
		input, stages, formatTime(op.StartTime), formatTime(op.EndTime),
	)
	if err != nil {
		return fmt.Errorf("insert operation %s: %w", op.ID, err)
	}
	return nil
}

// Save updates an operation record.
func (r *OperationRepo) Save(ctx context.Context, op *model.Operation) error {
	const query = `
		UPDATE operations SET status = ?, input = ?, stages = ?, start_time = ?, end_time = ?
		WHERE id = ?
	`

	input, stages, err := marshalOperation(op)
	if err != nil {
		return err
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		string(op.Status), input, stages,
		formatTime(op.StartTime), formatTime(op.EndTime), op.ID,
	)
	if err != nil {
		return fmt.Errorf("update operation %s: %w", op.ID, err)
	}
	return requireRowAffected(result, "operation", op.ID)
}

// Get retrieves an operation by id. Returns nil, nil if absent.
func (r *OperationRepo) Get(ctx context.Context, id string) (*model.Operation, error) {
	const query = `
		SELECT id, user_id, type, status, input, stages, start_time, end_time
		FROM operations WHERE id = ?
	`

	op, err := scanOperation(r.db.Reader.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get operation %s: %w", id, err)
	}
	return op, nil
}

// ListPending returns all PENDING operations, oldest first.
func (r *OperationRepo) ListPending(ctx context.Context) ([]model.Operation, error) {
	const query = `
		SELECT id, user_id, type, status, input, stages, start_time, end_time
		FROM operations WHERE status = ? ORDER BY created_at, rowid
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, string(model.OperationPending))
	if err != nil {
		return nil, fmt.Errorf("query pending operations: %w", err)
	}
	defer rows.Close()

	var ops []model.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		ops = append(ops, *op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

func marshalOperation(op *model.Operation) (input, stages string, err error) {
	inputBytes, err := json.Marshal(op.Input)
	if err != nil {
		return "", "", fmt.Errorf("marshal operation %s input: %w", op.ID, err)
	}
	stageBytes, err := json.Marshal(op.Stages)
	if err != nil {
		return "", "", fmt.Errorf("marshal operation %s stages: %w", op.ID, err)
	}
	return string(inputBytes), string(stageBytes), nil
}

func scanOperation(s scanner) (*model.Operation, error) {
	var op model.Operation
	var opType, status, input, stages string
	var startTime, endTime sql.NullString

	err := s.Scan(&op.ID, &op.UserID, &opType, &status, &input, &stages, &startTime, &endTime)
	if err != nil {
		return nil, err
	}

	op.Type = model.OperationType(opType)
	op.Status = model.OperationStatus(status)

	if err := json.Unmarshal([]byte(input), &op.Input); err != nil {
		return nil, fmt.Errorf("unmarshal input: %w", err)
	}
	if err := json.Unmarshal([]byte(stages), &op.Stages); err != nil {
		return nil, fmt.Errorf("unmarshal stages: %w", err)
	}

	if op.StartTime, err = parseTime(startTime); err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}
	if op.EndTime, err = parseTime(endTime); err != nil {
		return nil, fmt.Errorf("parse end time: %w", err)
	}
	return &op, nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
