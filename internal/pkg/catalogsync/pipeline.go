package catalogsync

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/SubTrackr/app/repository"
)

// Source provides the feed for one run.
type Source interface {
	Fetch(ctx context.Context) (*Feed, error)
}

// Store runs the per-record writes inside one transaction.
type Store interface {
	Transaction(ctx context.Context, fn func(tx repository.CatalogWriter) error) error
}

// Archiver keeps a copy of the raw feed of a completed run.
type Archiver interface {
	Archive(ctx context.Context, runID string, raw []byte) error
}

// Recorder stores the outcome of a completed run.
type Recorder interface {
	RecordSync(ctx context.Context, result *Result) error
}

// Invalidator drops cached catalog listings after the catalog changed.
type Invalidator interface {
	InvalidateCatalog(ctx context.Context) error
}

// Result summarizes one sync run.
type Result struct {
	RunID      string    `json:"run_id"`
	Total      int       `json:"total"`
	Processed  int       `json:"processed"`
	Skipped    int       `json:"skipped"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RecordSkipError marks a record that was rolled back and not counted as processed.
type RecordSkipError struct {
	Position int
	PlanID   string
	Step     string
	Err      error
}

func (e *RecordSkipError) Error() string {
	return fmt.Sprintf("record %d (plan %q) skipped at %s: %v", e.Position, e.PlanID, e.Step, e.Err)
}

func (e *RecordSkipError) Unwrap() error { return e.Err }

// Syncer pulls the feed and upserts it into the catalog.
type Syncer struct {
	source      Source
	store       Store
	archiver    Archiver
	recorder    Recorder
	invalidator Invalidator
	now         func() time.Time
}

// Option configures a Syncer.
type Option func(*Syncer)

func WithArchiver(a Archiver) Option       { return func(s *Syncer) { s.archiver = a } }
func WithRecorder(r Recorder) Option       { return func(s *Syncer) { s.recorder = r } }
func WithInvalidator(i Invalidator) Option { return func(s *Syncer) { s.invalidator = i } }

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option { return func(s *Syncer) { s.now = now } }

// NewSyncer creates a syncer reading from source and writing to store.
func NewSyncer(source Source, store Store, opts ...Option) *Syncer {
	s := &Syncer{source: source, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync runs one full pass over the feed. A feed that cannot be fetched aborts
// the run before anything is written. Individual records that fail are rolled
// back and counted as skipped. When ctx is cancelled mid-run, records already
// written stay written and the rest count as skipped.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), StartedAt: s.now()}

	feed, err := s.source.Fetch(ctx)
	if err != nil {
		log.Errorf("[CatalogSync] Run %s: fetching feed failed: %v", res.RunID, err)
		return nil, err
	}

	res.Total = len(feed.Records)
	log.Infof("[CatalogSync] Run %s: syncing %d plans", res.RunID, res.Total)

	for i, rec := range feed.Records {
		if err := ctx.Err(); err != nil {
			res.Skipped += res.Total - i
			res.Processed = res.Total - res.Skipped
			res.FinishedAt = s.now()
			log.Warnf("[CatalogSync] Run %s interrupted after %d of %d records", res.RunID, i, res.Total)
			return res, fmt.Errorf("catalog sync interrupted: %w", err)
		}
		if err := s.syncRecord(ctx, i, rec, res.StartedAt); err != nil {
			res.Skipped++
			log.Debugf("[CatalogSync] Run %s: %v", res.RunID, err)
		}
	}

	res.Processed = res.Total - res.Skipped
	res.FinishedAt = s.now()
	log.Infof("[CatalogSync] Run %s finished: %d processed, %d skipped in %s",
		res.RunID, res.Processed, res.Skipped, res.FinishedAt.Sub(res.StartedAt))

	s.afterRun(ctx, res, feed.Raw)
	return res, nil
}

// syncRecord writes category, service and plan of one record atomically.
// Every plan of a run carries the run's start time.
func (s *Syncer) syncRecord(ctx context.Context, position int, rec FeedRecord, syncedAt time.Time) error {
	n := normalize(rec, position, syncedAt)
	if n.Service == "" {
		return &RecordSkipError{Position: position, PlanID: n.Plan.ExternalID, Step: "validate", Err: fmt.Errorf("missing service name")}
	}
	if n.Plan.ExternalID == "" {
		return &RecordSkipError{Position: position, Step: "validate", Err: fmt.Errorf("missing plan id")}
	}

	return s.store.Transaction(ctx, func(tx repository.CatalogWriter) error {
		cat, err := tx.UpsertCategory(ctx, n.Category)
		if err != nil || cat == nil {
			return skip(position, n.Plan.ExternalID, "category", err)
		}

		svc, err := tx.UpsertService(ctx, n.Service, cat.ID)
		if err != nil || svc == nil {
			return skip(position, n.Plan.ExternalID, "service", err)
		}

		plan := n.Plan
		plan.ServiceID = svc.ID
		if err := tx.UpsertPlan(ctx, &plan); err != nil {
			return skip(position, n.Plan.ExternalID, "plan", err)
		}
		return nil
	})
}

func skip(position int, planID, step string, err error) error {
	if err == nil {
		err = fmt.Errorf("upsert returned no row")
	}
	return &RecordSkipError{Position: position, PlanID: planID, Step: step, Err: err}
}

// afterRun runs the optional post-sync hooks. Their failures never fail the run.
func (s *Syncer) afterRun(ctx context.Context, res *Result, raw []byte) {
	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, res.RunID, raw); err != nil {
			log.Warnf("[CatalogSync] Run %s: archiving feed failed: %v", res.RunID, err)
		}
	}
	if s.recorder != nil {
		if err := s.recorder.RecordSync(ctx, res); err != nil {
			log.Warnf("[CatalogSync] Run %s: recording statistics failed: %v", res.RunID, err)
		}
	}
	if s.invalidator != nil {
		if err := s.invalidator.InvalidateCatalog(ctx); err != nil {
			log.Warnf("[CatalogSync] Run %s: cache invalidation failed: %v", res.RunID, err)
		}
	}
}
