package application

import (
	"context"
	"testing"
	"time"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOperationService(stores Stores, client *stubClient) *OperationService {
	return NewOperationService(
		&stubFactory{client: client},
		stores,
		newTestScoreService(stores),
		time.Minute,
	)
}

func TestOperationService_EnqueueAndGet(t *testing.T) {
	stores := newTestStores(t)
	service := newTestOperationService(stores, newStubClient())
	ctx := context.Background()

	op, err := service.Enqueue(ctx, 7, model.OperationSyncRepository, model.OperationInput{RepositoryID: 3})
	require.NoError(t, err)
	require.NotEmpty(t, op.ID)
	assert.Equal(t, model.OperationPending, op.Status)

	got, err := service.Get(ctx, op.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.Input.RepositoryID)
}

func TestOperationService_ExecuteLifecycle(t *testing.T) {
	stores := newTestStores(t)
	repo := addRepo(t, stores, "main")
	storeToken(t, stores, repo.UserID)
	client := newStubClient()
	client.commitPages = commitPagesOf(1)
	service := newTestOperationService(stores, client)
	ctx := context.Background()

	op, err := service.Enqueue(ctx, repo.UserID, model.OperationSyncRepository, model.OperationInput{RepositoryID: repo.ID})
	require.NoError(t, err)
	require.NoError(t, service.Execute(ctx, op))

	stored, err := service.Get(ctx, op.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.OperationCompleted, stored.Status)
	require.NotNil(t, stored.StartTime)
	require.NotNil(t, stored.EndTime)
	assert.False(t, stored.EndTime.Before(*stored.StartTime))
	assert.Equal(t, model.StageCompleted, stored.StageByName(stageSync).Status)
}

func TestOperationService_ExecuteCompletesEvenWhenRunFails(t *testing.T) {
	stores := newTestStores(t)
	repo := addRepo(t, stores, "main")
	// No token stored: the executor aborts before any stage.
	service := newTestOperationService(stores, newStubClient())
	ctx := context.Background()

	op, err := service.Enqueue(ctx, repo.UserID, model.OperationSyncRepository, model.OperationInput{RepositoryID: repo.ID})
	require.NoError(t, err)

	err = service.Execute(ctx, op)
	require.ErrorIs(t, err, model.ErrNoToken)

	stored, err := service.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OperationCompleted, stored.Status)
	assert.Empty(t, stored.Stages)
}

func TestOperationService_ExecuteUnknownType(t *testing.T) {
	stores := newTestStores(t)
	service := newTestOperationService(stores, newStubClient())

	op := &model.Operation{ID: "op-x", Type: "NOT_A_TYPE"}
	assert.Error(t, service.Execute(context.Background(), op))
}

func TestOperationService_PassRecalculatesFlaggedRepositories(t *testing.T) {
	stores := newTestStores(t)
	repo := addRepo(t, stores, "main")
	service := newTestOperationService(stores, newStubClient())
	ctx := context.Background()

	commit := addCommitWithDiff(t, stores, repo, "commit000000000001", "jane@example.com", 5)
	repo.Extensions.NeedsRecalculation = true
	require.NoError(t, stores.Repositories.Save(ctx, repo))

	service.runPass(ctx)

	stored, err := stores.Commits.Get(ctx, commit.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Extensions.Score)
	assert.InDelta(t, 5.0, *stored.Extensions.Score, 1e-9)

	flagged, err := stores.Repositories.ListNeedingRecalculation(ctx)
	require.NoError(t, err)
	assert.Empty(t, flagged)
}
