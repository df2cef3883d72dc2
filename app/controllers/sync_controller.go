package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SubTrackr/app/repository"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/catalogsync"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/statistics"
)

// SyncRunner executes one catalog sync.
type SyncRunner interface {
	Sync(ctx context.Context) (*catalogsync.Result, error)
}

// SyncStatistics reads and records sync outcomes.
type SyncStatistics interface {
	Get(ctx context.Context) *statistics.SyncStatistics
	RecordFailure(ctx context.Context, err error) error
}

// CatalogCounter reports catalog table sizes.
type CatalogCounter interface {
	Counts(ctx context.Context) (*repository.CatalogCounts, error)
}

// SchedulerStatus reports the background sync worker of this process.
type SchedulerStatus interface {
	IsRunning() bool
	LastResult() (*catalogsync.Result, error)
}

type SyncController struct {
	syncer    SyncRunner
	stats     SyncStatistics
	counts    CatalogCounter
	scheduler SchedulerStatus
}

func NewSyncController(syncer SyncRunner, stats SyncStatistics, counts CatalogCounter, scheduler SchedulerStatus) *SyncController {
	return &SyncController{syncer: syncer, stats: stats, counts: counts, scheduler: scheduler}
}

// HandleSync runs a full catalog sync and reports how many records were written.
func (sc *SyncController) HandleSync(c *fiber.Ctx) error {
	res, err := sc.syncer.Sync(c.UserContext())
	if err != nil {
		if sc.stats != nil {
			if rerr := sc.stats.RecordFailure(c.UserContext(), err); rerr != nil {
				log.Warnf("[Sync] Recording failure failed: %v", rerr)
			}
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   res.Processed,
		"skipped": res.Skipped,
		"total":   res.Total,
		"run_id":  res.RunID,
		"message": "Catalog synchronized",
	})
}

// HandleSyncStatus returns the last recorded run and the current catalog size.
func (sc *SyncController) HandleSyncStatus(c *fiber.Ctx) error {
	resp := fiber.Map{}
	if sc.stats != nil {
		stats := sc.stats.Get(c.UserContext())
		resp["last_run"] = stats.LastRun
		resp["total_runs"] = stats.TotalRuns
		if stats.LastFailedAt != nil {
			resp["last_failed_at"] = stats.LastFailedAt
			resp["last_error"] = stats.LastError
		}
	}

	if sc.scheduler != nil {
		scheduler := fiber.Map{"running": sc.scheduler.IsRunning()}
		last, err := sc.scheduler.LastResult()
		if last != nil {
			scheduler["last_result"] = last
		}
		if err != nil {
			scheduler["last_error"] = err.Error()
		}
		resp["scheduler"] = scheduler
	}

	counts, err := sc.counts.Counts(c.UserContext())
	if err != nil {
		log.Errorf("[Sync] Counting catalog failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load catalog status")
	}
	resp["catalog"] = counts
	return c.JSON(resp)
}
