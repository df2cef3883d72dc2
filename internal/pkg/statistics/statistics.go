// Package statistics keeps the outcome of catalog sync runs in the cache.
package statistics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ManuelReschke/SubTrackr/internal/pkg/catalogsync"
)

const (
	CacheKeyLastSync = "statistics:catalog_sync:last"
	CacheExpiration  = 30 * 24 * time.Hour
)

// Cache is the key/value store the statistics live in.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// SyncStatistics is the persisted summary of sync activity.
type SyncStatistics struct {
	LastRun      *catalogsync.Result `json:"last_run"`
	TotalRuns    int64               `json:"total_runs"`
	LastFailedAt *time.Time          `json:"last_failed_at,omitempty"`
	LastError    string              `json:"last_error,omitempty"`
}

// Recorder stores sync statistics.
type Recorder struct {
	cache Cache
	now   func() time.Time
}

func NewRecorder(cache Cache) *Recorder {
	return &Recorder{cache: cache, now: time.Now}
}

// RecordSync stores res as the latest successful run.
func (r *Recorder) RecordSync(ctx context.Context, res *catalogsync.Result) error {
	stats := r.load(ctx)
	stats.LastRun = res
	stats.TotalRuns++
	return r.save(ctx, stats)
}

// RecordFailure keeps the error of a run that never got to write.
func (r *Recorder) RecordFailure(ctx context.Context, runErr error) error {
	stats := r.load(ctx)
	now := r.now()
	stats.LastFailedAt = &now
	stats.LastError = runErr.Error()
	return r.save(ctx, stats)
}

// Get returns the stored statistics. Missing or unreadable entries yield
// empty statistics.
func (r *Recorder) Get(ctx context.Context) *SyncStatistics {
	return r.load(ctx)
}

func (r *Recorder) load(ctx context.Context) *SyncStatistics {
	stats := &SyncStatistics{}
	raw, err := r.cache.Get(ctx, CacheKeyLastSync)
	if err != nil || raw == "" {
		return stats
	}
	if err := json.Unmarshal([]byte(raw), stats); err != nil {
		return &SyncStatistics{}
	}
	return stats
}

func (r *Recorder) save(ctx context.Context, stats *SyncStatistics) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	if err := r.cache.Set(ctx, CacheKeyLastSync, string(raw), CacheExpiration); err != nil {
		return fmt.Errorf("store sync statistics: %w", err)
	}
	return nil
}
