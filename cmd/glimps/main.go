package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	gitlabadapter "github.com/akn-sfu/glimps/internal/adapter/driven/gitlab"
	sqliteadapter "github.com/akn-sfu/glimps/internal/adapter/driven/sqlite"
	"github.com/akn-sfu/glimps/internal/application"
	"github.com/akn-sfu/glimps/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"gitlab_base_url", cfg.GitLabBaseURL,
		"db_path", cfg.DBPath,
		"worker_interval", cfg.WorkerInterval,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	stores := application.Stores{
		Repositories:  sqliteadapter.NewRepositoryRepo(db),
		Commits:       sqliteadapter.NewCommitRepo(db),
		MergeRequests: sqliteadapter.NewMergeRequestRepo(db),
		Issues:        sqliteadapter.NewIssueRepo(db),
		Notes:         sqliteadapter.NewNoteRepo(db),
		Diffs:         sqliteadapter.NewDiffRepo(db),
		Authors:       sqliteadapter.NewCommitAuthorRepo(db),
		Members:       sqliteadapter.NewMemberRepo(db),
		Operations:    sqliteadapter.NewOperationRepo(db),
		Tokens:        sqliteadapter.NewTokenRepo(db),
	}

	// 6. Create the GitLab client factory; clients are bound per operation to
	// the owning user's token.
	factory := gitlabadapter.NewFactory(cfg.GitLabBaseURL, cfg.FetchRetries)

	// 7. Wire services.
	scorer := application.NewStoredDiffScorer(stores.Diffs)
	scores := application.NewScoreService(stores.Repositories, stores.Commits, stores.MergeRequests, scorer)
	operations := application.NewOperationService(factory, stores, scores, cfg.WorkerInterval)

	// 8. Run the operation worker until shutdown.
	slog.Info("glimps started", "worker_interval", cfg.WorkerInterval)
	operations.Start(ctx)

	slog.Info("shutdown complete")
	return nil
}
