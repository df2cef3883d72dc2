// Package jobqueue runs the catalog sync in the background.
package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SubTrackr/internal/pkg/catalogsync"
)

// SyncRunner executes one catalog sync.
type SyncRunner interface {
	Sync(ctx context.Context) (*catalogsync.Result, error)
}

// FailureRecorder is told about runs that failed.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, err error) error
}

// Manager runs scheduled and on-demand syncs on a single worker goroutine,
// so at most one sync runs at a time in this process.
type Manager struct {
	syncer   SyncRunner
	failures FailureRecorder
	interval time.Duration
	timeout  time.Duration

	ticker  *time.Ticker
	trigger chan struct{}
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	lastResult *catalogsync.Result
	lastErr    error
}

// NewManager creates a manager. A zero interval disables the schedule; syncs
// then only run when triggered.
func NewManager(syncer SyncRunner, interval time.Duration) *Manager {
	return &Manager{
		syncer:   syncer,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// WithFailureRecorder sets the recorder for failed runs.
func (m *Manager) WithFailureRecorder(r FailureRecorder) *Manager {
	m.failures = r
	return m
}

// WithRunTimeout bounds each run. Zero means no bound.
func (m *Manager) WithRunTimeout(d time.Duration) *Manager {
	m.timeout = d
	return m
}

// Start starts the sync worker
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true

	var tick <-chan time.Time
	if m.interval > 0 {
		m.ticker = time.NewTicker(m.interval)
		tick = m.ticker.C
		log.Infof("[JobQueue Manager] Starting catalog sync worker (interval: %s)", m.interval)
	} else {
		log.Info("[JobQueue Manager] Starting catalog sync worker (on demand only)")
	}

	m.wg.Add(1)
	go m.syncWorker(ctx, m.stopCh, tick)
}

// Stop stops the worker and waits for a running sync to return
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}

	log.Info("[JobQueue Manager] Stopping catalog sync worker...")
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
	close(m.stopCh)
	m.cancel()
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
	log.Info("[JobQueue Manager] Stopped successfully")
}

// Trigger requests a sync. Requests made while one is already pending are
// merged into it.
func (m *Manager) Trigger() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastResult returns the outcome of the most recent run.
func (m *Manager) LastResult() (*catalogsync.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastResult, m.lastErr
}

func (m *Manager) syncWorker(ctx context.Context, stopCh <-chan struct{}, tick <-chan time.Time) {
	defer m.wg.Done()
	for {
		select {
		case <-stopCh:
			log.Info("[JobQueue Manager] Catalog sync worker stopping")
			return
		case <-tick:
			m.runOnce(ctx)
		case <-m.trigger:
			m.runOnce(ctx)
		}
	}
}

func (m *Manager) runOnce(ctx context.Context) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	res, err := m.syncer.Sync(ctx)
	if err != nil {
		log.Errorf("[JobQueue Manager] Catalog sync failed: %v", err)
		if m.failures != nil {
			if rerr := m.failures.RecordFailure(ctx, err); rerr != nil {
				log.Warnf("[JobQueue Manager] Recording sync failure failed: %v", rerr)
			}
		}
	}

	m.mu.Lock()
	m.lastResult, m.lastErr = res, err
	m.mu.Unlock()
}
