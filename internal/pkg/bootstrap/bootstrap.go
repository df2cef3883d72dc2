// Package bootstrap builds the domain services from the configured database,
// cache and environment.
package bootstrap

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/SubTrackr/app/controllers"
	"github.com/ManuelReschke/SubTrackr/app/repository"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/catalogsync"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/env"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/feedarchive"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/jobqueue"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/search"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/statistics"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/subscriptions"
)

// Cache is the key/value store shared by statistics and search.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Services holds everything the binaries need.
type Services struct {
	Repositories  *repository.Repositories
	Syncer        *catalogsync.Syncer
	Statistics    *statistics.Recorder
	Searcher      *search.Searcher
	Subscriptions *subscriptions.Manager
}

// New wires the services on top of db and cache.
func New(ctx context.Context, db *gorm.DB, cache Cache, source catalogsync.Source) *Services {
	repos := repository.NewRepositories(db)
	searcher := search.NewSearcher(repos.Catalog, cache)
	recorder := statistics.NewRecorder(cache)

	opts := []catalogsync.Option{
		catalogsync.WithRecorder(recorder),
		catalogsync.WithInvalidator(searcher),
	}
	if archiver := newArchiver(ctx); archiver != nil {
		opts = append(opts, catalogsync.WithArchiver(archiver))
	}

	return &Services{
		Repositories:  repos,
		Syncer:        catalogsync.NewSyncer(source, repos.Catalog, opts...),
		Statistics:    recorder,
		Searcher:      searcher,
		Subscriptions: subscriptions.NewManager(repos.Catalog, repos.Subscription),
	}
}

func newArchiver(ctx context.Context) *feedarchive.Client {
	cfg, err := feedarchive.LoadConfig()
	if err != nil {
		log.Warnf("[Bootstrap] Feed archive config invalid, archiving disabled: %v", err)
		return nil
	}
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := feedarchive.NewClient(ctx, cfg)
	if err != nil {
		log.Warnf("[Bootstrap] Feed archive unavailable: %v", err)
		return nil
	}
	return client
}

// Controllers returns the handler dependencies for controllers.InitializeControllers.
// jobs may be nil when no scheduler runs in this process.
func (s *Services) Controllers(jobs *jobqueue.Manager) controllers.Services {
	var scheduler controllers.SchedulerStatus
	if jobs != nil {
		scheduler = jobs
	}
	return controllers.Services{
		Scheduler:     scheduler,
		Syncer:        s.Syncer,
		Statistics:    s.Statistics,
		Counter:       s.Repositories.Catalog,
		Searcher:      s.Searcher,
		Subscriptions: s.Subscriptions,
	}
}

// SyncInterval reads CATALOG_SYNC_INTERVAL. Empty, invalid or non-positive
// values disable the schedule.
func SyncInterval() time.Duration {
	return durationEnv("CATALOG_SYNC_INTERVAL")
}

// SyncTimeout reads CATALOG_SYNC_TIMEOUT, the bound of one scheduled run.
func SyncTimeout() time.Duration {
	return durationEnv("CATALOG_SYNC_TIMEOUT")
}

// SyncOnStart reports whether CATALOG_SYNC_ON_START asks for a sync at boot.
func SyncOnStart() bool {
	return env.GetEnv("CATALOG_SYNC_ON_START", "false") == "true"
}

func durationEnv(key string) time.Duration {
	raw := env.GetEnv(key, "")
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warnf("[Bootstrap] Ignoring %s=%q", key, raw)
		return 0
	}
	return d
}

// NewJobManager creates the background sync scheduler from the environment.
func (s *Services) NewJobManager() *jobqueue.Manager {
	return jobqueue.NewManager(s.Syncer, SyncInterval()).
		WithRunTimeout(SyncTimeout()).
		WithFailureRecorder(s.Statistics)
}

// StartJobs starts jobs and queues the boot sync when configured.
func StartJobs(jobs *jobqueue.Manager) {
	jobs.Start()
	if SyncOnStart() {
		jobs.Trigger()
	}
}
