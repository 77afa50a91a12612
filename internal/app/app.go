package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shelldog/twitter-crawler/internal/adapters/feed"
	"github.com/shelldog/twitter-crawler/internal/adapters/nvd"
	"github.com/shelldog/twitter-crawler/internal/adapters/storage"
	"github.com/shelldog/twitter-crawler/internal/adapters/web"
	"github.com/shelldog/twitter-crawler/internal/config"
	"github.com/shelldog/twitter-crawler/internal/core/domain"
	"github.com/shelldog/twitter-crawler/internal/core/ports"
	"github.com/shelldog/twitter-crawler/internal/core/services/extract"
	"github.com/shelldog/twitter-crawler/internal/core/services/pipeline"
	"github.com/shelldog/twitter-crawler/internal/mock"
	"github.com/shelldog/twitter-crawler/internal/telemetry"
	"github.com/shelldog/twitter-crawler/internal/version"
)

// Application is the facade wiring configuration, store, enrichment and
// pipeline together for one process lifetime.
type Application struct {
	Config   *config.Config
	Store    *storage.Store
	Pipeline *pipeline.Pipeline
	Web      *web.Server

	log *slog.Logger
}

// New bootstraps the application. Store construction runs the backup
// rollback protocol before anything else touches the data directory.
func New(cfg *config.Config, log *slog.Logger) (*Application, error) {
	telemetry.InitMetrics()

	store, err := storage.New(storage.Config{
		DataDir:   cfg.DataDir,
		BackupDir: cfg.BackupDir,
		DBName:    cfg.DBName,
	}, log)
	if err != nil {
		return nil, errors.Join(domain.ErrStoreUnopenable, err)
	}

	enricher := nvd.NewClient(cfg.NVDBaseURL, cfg.LookupTimeout, log)

	return &Application{
		Config:   cfg,
		Store:    store,
		Pipeline: pipeline.New(extract.New(), enricher, store, log),
		Web:      web.NewServer(cfg.Addr, log),
		log:      log,
	}, nil
}

// Run ensures the schema, then either reports store status (default) or
// executes a crawl run (-u). The ops server serves /healthz, /metrics
// and /api/stats for the duration.
func (app *Application) Run(ctx context.Context) error {
	version.CheckLatest(ctx, app.Config.VersionIndex, app.log)

	webCtx, stopWeb := context.WithCancel(ctx)
	defer stopWeb()
	go func() {
		if err := app.Web.Run(webCtx); err != nil {
			app.log.Error("ops server error", "error", err)
		}
	}()

	if err := app.Store.EnsureSchema(ctx); err != nil {
		return errors.Join(domain.ErrSchema, err)
	}

	if !app.Config.Update {
		cves, tweets, err := app.Store.CountRows(ctx)
		if err != nil {
			return errors.Join(domain.ErrStoreUnopenable, err)
		}
		app.log.Info("store ready, pass -u to update from the feed",
			"cve_rows", cves, "tweet_rows", tweets)
		return nil
	}

	postFeed, err := app.openFeed()
	if err != nil {
		return err
	}
	defer postFeed.Close()

	stats, err := app.Pipeline.Run(ctx, postFeed, app.Config.Keyword)
	app.Web.PublishStats(stats)
	if err != nil {
		return err
	}

	app.log.Info("update complete",
		"run_id", stats.RunID,
		"posts", stats.PostsSeen,
		"rows", stats.RowsWritten,
		"duration", stats.Duration.String(),
	)
	return nil
}

// openFeed selects the configured feed adapter. The live search client
// is an external collaborator; the JSONL file and mock generators cover
// its port here.
func (app *Application) openFeed() (ports.Feed, error) {
	if app.Config.MockMode {
		app.log.Info("mock mode: generating posts", "count", app.Config.MockPosts)
		return mock.NewFeed(app.Config.MockPosts, 0), nil
	}

	if app.Config.FeedPath == "" {
		return nil, errors.Join(domain.ErrFeedUnavailable,
			fmt.Errorf("no feed configured; pass -feed or -mock"))
	}

	f, err := feed.Open(app.Config.FeedPath, app.log)
	if err != nil {
		return nil, errors.Join(domain.ErrFeedUnavailable, err)
	}
	return f, nil
}
