package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/akn-sfu/glimps/internal/domain/model"
	"github.com/akn-sfu/glimps/internal/domain/port/driven"
)

// Stores bundles the persistence ports the executors share.
type Stores struct {
	Repositories  driven.RepositoryStore
	Commits       driven.CommitStore
	MergeRequests driven.MergeRequestStore
	Issues        driven.IssueStore
	Notes         driven.NoteStore
	Diffs         driven.DiffStore
	Authors       driven.CommitAuthorStore
	Members       driven.MemberStore
	Operations    driven.OperationStore
	Tokens        driven.TokenStore
}

// Executor runs one operation type against its input.
type Executor interface {
	Run(ctx context.Context, op *model.Operation) error
}

// operationRun is the stage state machine over one operation record. Every
// transition is persisted immediately so the stage log reflects progress
// while the run is still going. Stage bookkeeping failures are logged, not
// propagated; losing a progress update must not fail the work itself.
//
// Stages report from concurrent goroutines and Save marshals the whole
// record, so the mutex stays held across each mutate-and-persist pair.
type operationRun struct {
	mu    sync.Mutex
	op    *model.Operation
	store driven.OperationStore
}

func newOperationRun(op *model.Operation, store driven.OperationStore) *operationRun {
	return &operationRun{op: op, store: store}
}

func (r *operationRun) addStage(ctx context.Context, name, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.op.Stages = append(r.op.Stages, model.Stage{
		Name:        name,
		Description: description,
		Status:      model.StagePending,
	})
	r.persist(ctx)
}

func (r *operationRun) startStage(ctx context.Context, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stage := r.op.StageByName(name); stage != nil {
		now := time.Now().UTC()
		stage.Status = model.StageStarted
		stage.StartedAt = &now
		r.persist(ctx)
	}
}

func (r *operationRun) completeStage(ctx context.Context, name string) {
	r.finishStage(ctx, name, model.StageCompleted)
}

func (r *operationRun) terminateStage(ctx context.Context, name string) {
	r.finishStage(ctx, name, model.StageTerminated)
}

func (r *operationRun) finishStage(ctx context.Context, name string, status model.StageStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stage := r.op.StageByName(name); stage != nil {
		now := time.Now().UTC()
		stage.Status = status
		stage.FinishedAt = &now
		r.persist(ctx)
	}
}

// terminateRemaining marks every stage that has not completed as terminated.
// Called when an unexpected error aborts the whole run.
func (r *operationRun) terminateRemaining(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for i := range r.op.Stages {
		if r.op.Stages[i].Status != model.StageCompleted {
			r.op.Stages[i].Status = model.StageTerminated
			r.op.Stages[i].FinishedAt = &now
		}
	}
	r.persist(ctx)
}

// persist is called with the mutex held.
func (r *operationRun) persist(ctx context.Context) {
	if err := r.store.Save(ctx, r.op); err != nil {
		slog.Error("persist operation stages failed", "operation", r.op.ID, "error", err)
	}
}

// runStage executes one expected-failure-tolerant stage: an error from fn
// terminates only this stage and is logged; panics propagate to the run's
// recovery handler.
func runStage(ctx context.Context, run *operationRun, name string, fn func() error) {
	run.startStage(ctx, name)
	if err := fn(); err != nil {
		slog.Error("stage failed", "operation", run.op.ID, "stage", name, "error", err)
		run.terminateStage(ctx, name)
		return
	}
	run.completeStage(ctx, name)
}

// Stage names of the full repository sync. The umbrella stage wraps the
// whole run; the resource-kind stages fan out concurrently, then the two
// linking stages do.
const (
	stageSync              = "sync"
	stageSyncCommits       = "syncCommits"
	stageSyncMergeRequests = "syncMergeRequests"
	stageSyncIssues        = "syncIssues"
	stageLinkCommitsAndMRs = "linkCommitsAndMergeRequests"
	stageLinkAuthors       = "linkAuthors"
	stageFetchRepositories = "fetch"
	stageDeleteRepository  = "delete"
)

// SyncRepositoryExecutor runs a full activity sync for one repository.
type SyncRepositoryExecutor struct {
	factory driven.GitLabClientFactory
	stores  Stores
}

// NewSyncRepositoryExecutor creates a new SyncRepositoryExecutor.
func NewSyncRepositoryExecutor(factory driven.GitLabClientFactory, stores Stores) *SyncRepositoryExecutor {
	return &SyncRepositoryExecutor{factory: factory, stores: stores}
}

// Run executes the sync stage machine. Expected per-kind failures terminate
// only their stage; an unexpected panic terminates the umbrella and every
// stage that has not completed. A missing token aborts before any stage
// starts.
func (e *SyncRepositoryExecutor) Run(ctx context.Context, op *model.Operation) (err error) {
	token, err := e.stores.Tokens.Get(ctx, op.UserID)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token == nil {
		return model.ErrNoToken
	}

	repo, err := e.stores.Repositories.Get(ctx, op.Input.RepositoryID)
	if err != nil {
		return fmt.Errorf("load repository: %w", err)
	}
	if repo == nil {
		return fmt.Errorf("repository %d not found", op.Input.RepositoryID)
	}

	client := e.factory.ClientFor(token.Token)
	sync := NewSyncService(
		client,
		e.stores.Repositories, e.stores.Commits, e.stores.MergeRequests,
		e.stores.Issues, e.stores.Notes, e.stores.Diffs,
		e.stores.Authors, e.stores.Members,
	)

	run := newOperationRun(op, e.stores.Operations)
	run.addStage(ctx, stageSync, "Syncing repository")
	run.addStage(ctx, stageSyncCommits, "Syncing commits")
	run.addStage(ctx, stageSyncMergeRequests, "Syncing merge requests")
	run.addStage(ctx, stageSyncIssues, "Syncing issues")
	run.addStage(ctx, stageLinkCommitsAndMRs, "Linking commits and merge requests")
	run.addStage(ctx, stageLinkAuthors, "Linking commit authors")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("sync aborted", "operation", op.ID, "repository", repo.ID, "panic", r)
			run.terminateRemaining(ctx)
			err = fmt.Errorf("sync aborted: %v", r)
		}
	}()

	run.startStage(ctx, stageSync)

	if err := e.reconcileDefaultBranch(ctx, client, repo); err != nil {
		run.terminateRemaining(ctx)
		return err
	}

	if err := sync.SyncMembers(ctx, repo); err != nil {
		slog.Error("member sync failed", "repository", repo.ID, "error", err)
	}

	e.fanOutResourceSyncs(ctx, run, sync, repo)
	e.runLinkStages(ctx, run, sync, repo)

	// Reload before stamping: the link stages may have flagged the row for
	// recalculation, and saving the copy loaded at the start would lose it.
	current, err := e.stores.Repositories.Get(ctx, repo.ID)
	if err != nil {
		run.terminateRemaining(ctx)
		return fmt.Errorf("reload repository %d: %w", repo.ID, err)
	}
	if current == nil {
		run.terminateRemaining(ctx)
		return fmt.Errorf("repository %d disappeared during sync", repo.ID)
	}
	now := time.Now().UTC()
	current.Extensions.LastSync = &now
	if err := e.stores.Repositories.Save(ctx, current); err != nil {
		run.terminateRemaining(ctx)
		return fmt.Errorf("update last sync: %w", err)
	}

	run.completeStage(ctx, stageSync)
	return nil
}

// reconcileDefaultBranch compares the stored default branch with upstream.
// On a change the stored branch is updated first, then every branch-scoped
// resource is purged so the sync rebuilds from scratch.
func (e *SyncRepositoryExecutor) reconcileDefaultBranch(ctx context.Context, client driven.GitLabClient, repo *model.Repository) error {
	branch, err := client.FetchDefaultBranch(ctx, repo.Resource.ID)
	if err != nil {
		return fmt.Errorf("fetch default branch: %w", err)
	}
	if branch == "" || branch == repo.Resource.DefaultBranch {
		return nil
	}

	slog.Info("default branch changed, resetting stored activity",
		"repository", repo.ID, "old", repo.Resource.DefaultBranch, "new", branch)

	repo.Resource.DefaultBranch = branch
	if err := e.stores.Repositories.Save(ctx, repo); err != nil {
		return fmt.Errorf("update default branch: %w", err)
	}
	return purgeActivity(ctx, e.stores.Commits, e.stores.MergeRequests, e.stores.Issues, repo.ID)
}

// fanOutResourceSyncs runs the three resource-kind syncs concurrently. Each
// kind's errors are contained to its own stage; a panic in any goroutine is
// re-raised on the caller's goroutine after the join.
func (e *SyncRepositoryExecutor) fanOutResourceSyncs(ctx context.Context, run *operationRun, sync *SyncService, repo *model.Repository) {
	kinds := []struct {
		stage string
		fn    func() error
	}{
		{stageSyncCommits, func() error { return sync.SyncCommits(ctx, repo) }},
		{stageSyncMergeRequests, func() error { return sync.SyncMergeRequests(ctx, repo) }},
		{stageSyncIssues, func() error { return sync.SyncIssues(ctx, repo) }},
	}

	var panicked atomic.Value
	var g errgroup.Group
	for _, kind := range kinds {
		g.Go(func() error {
			defer capturePanic(&panicked)
			runStage(ctx, run, kind.stage, kind.fn)
			return nil
		})
	}
	_ = g.Wait()
	repanic(&panicked)
}

// runLinkStages runs the two linking stages concurrently after the resource
// fan-out has joined.
func (e *SyncRepositoryExecutor) runLinkStages(ctx context.Context, run *operationRun, sync *SyncService, repo *model.Repository) {
	var panicked atomic.Value
	var g errgroup.Group

	g.Go(func() error {
		defer capturePanic(&panicked)
		runStage(ctx, run, stageLinkCommitsAndMRs, func() error {
			return sync.LinkCommitsAndMergeRequests(ctx, repo)
		})
		return nil
	})
	g.Go(func() error {
		defer capturePanic(&panicked)
		runStage(ctx, run, stageLinkAuthors, func() error {
			members, err := e.stores.Members.ListByRepository(ctx, repo.ID)
			if err != nil {
				return err
			}
			changed, err := sync.LinkAuthors(ctx, repo, members)
			if err != nil {
				return err
			}
			if changed {
				return flagNeedsRecalculation(ctx, e.stores.Repositories, repo.ID)
			}
			return nil
		})
		return nil
	})

	_ = g.Wait()
	repanic(&panicked)
}

func capturePanic(into *atomic.Value) {
	if r := recover(); r != nil {
		into.Store(r)
	}
}

func repanic(from *atomic.Value) {
	if r := from.Load(); r != nil {
		panic(r)
	}
}

// FetchRepositoriesExecutor discovers every project the user's token can see
// and stores or refreshes the corresponding repository rows, including each
// repository's member list. No linking or scoring runs here.
type FetchRepositoriesExecutor struct {
	factory driven.GitLabClientFactory
	stores  Stores
}

// NewFetchRepositoriesExecutor creates a new FetchRepositoriesExecutor.
func NewFetchRepositoriesExecutor(factory driven.GitLabClientFactory, stores Stores) *FetchRepositoriesExecutor {
	return &FetchRepositoriesExecutor{factory: factory, stores: stores}
}

// Run executes the single fetch stage.
func (e *FetchRepositoriesExecutor) Run(ctx context.Context, op *model.Operation) (err error) {
	token, err := e.stores.Tokens.Get(ctx, op.UserID)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token == nil {
		return model.ErrNoToken
	}

	client := e.factory.ClientFor(token.Token)
	sync := NewSyncService(
		client,
		e.stores.Repositories, e.stores.Commits, e.stores.MergeRequests,
		e.stores.Issues, e.stores.Notes, e.stores.Diffs,
		e.stores.Authors, e.stores.Members,
	)

	run := newOperationRun(op, e.stores.Operations)
	run.addStage(ctx, stageFetchRepositories, "Fetching repositories")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("fetch aborted", "operation", op.ID, "panic", r)
			run.terminateRemaining(ctx)
			err = fmt.Errorf("fetch aborted: %v", r)
		}
	}()

	runStage(ctx, run, stageFetchRepositories, func() error {
		return forEachPage(
			func(page int) ([]model.ProjectResource, error) {
				return client.FetchProjects(ctx, page)
			},
			func(projects []model.ProjectResource) error {
				for _, project := range projects {
					repo, err := e.upsertRepository(ctx, op.UserID, project)
					if err != nil {
						return err
					}
					if err := sync.SyncMembers(ctx, repo); err != nil {
						slog.Error("member sync failed", "repository", repo.ID, "error", err)
					}
				}
				return nil
			},
		)
	})
	return nil
}

// upsertRepository refreshes only the upstream payload of an existing row;
// locally derived extensions survive the refresh untouched.
func (e *FetchRepositoriesExecutor) upsertRepository(ctx context.Context, userID int64, project model.ProjectResource) (*model.Repository, error) {
	existing, err := e.stores.Repositories.GetByExternalID(ctx, userID, project.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Resource = project
		return existing, e.stores.Repositories.Save(ctx, existing)
	}

	repo := &model.Repository{UserID: userID, Resource: project}
	return repo, e.stores.Repositories.Create(ctx, repo)
}

// DeleteRepositoryExecutor tears down a repository's stored activity, then
// re-creates the repository row as a tombstone: same upstream payload, empty
// extensions, no last-sync. The tombstone keeps the repository visible in
// list views; this re-add is intentional.
type DeleteRepositoryExecutor struct {
	stores Stores
}

// NewDeleteRepositoryExecutor creates a new DeleteRepositoryExecutor.
func NewDeleteRepositoryExecutor(stores Stores) *DeleteRepositoryExecutor {
	return &DeleteRepositoryExecutor{stores: stores}
}

// Run executes the single delete stage.
func (e *DeleteRepositoryExecutor) Run(ctx context.Context, op *model.Operation) (err error) {
	repo, err := e.stores.Repositories.Get(ctx, op.Input.RepositoryID)
	if err != nil {
		return fmt.Errorf("load repository: %w", err)
	}
	if repo == nil {
		return fmt.Errorf("repository %d not found", op.Input.RepositoryID)
	}

	run := newOperationRun(op, e.stores.Operations)
	run.addStage(ctx, stageDeleteRepository, "Deleting repository data")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("delete aborted", "operation", op.ID, "repository", repo.ID, "panic", r)
			run.terminateRemaining(ctx)
			err = fmt.Errorf("delete aborted: %v", r)
		}
	}()

	runStage(ctx, run, stageDeleteRepository, func() error {
		if err := purgeActivity(ctx, e.stores.Commits, e.stores.MergeRequests, e.stores.Issues, repo.ID); err != nil {
			return err
		}

		authors, err := e.stores.Authors.ListByRepository(ctx, repo.ID)
		if err != nil {
			return err
		}
		for _, author := range authors {
			if err := e.stores.Authors.Delete(ctx, author.ID); err != nil {
				slog.Error("delete author failed", "repository", repo.ID, "author", author.ID, "error", err)
			}
		}

		members, err := e.stores.Members.ListByRepository(ctx, repo.ID)
		if err != nil {
			return err
		}
		for _, member := range members {
			if err := e.stores.Members.Delete(ctx, member.ID); err != nil {
				slog.Error("delete member failed", "repository", repo.ID, "member", member.ID, "error", err)
			}
		}

		if err := e.stores.Repositories.Delete(ctx, repo.ID); err != nil {
			return err
		}

		tombstone := &model.Repository{UserID: repo.UserID, Resource: repo.Resource}
		return e.stores.Repositories.Create(ctx, tombstone)
	})
	return nil
}
