package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/SubTrackr/internal/pkg/catalogsync"
)

type countingSyncer struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   chan struct{}
	started chan struct{}
}

func (s *countingSyncer) Sync(ctx context.Context) (*catalogsync.Result, error) {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &catalogsync.Result{RunID: "run", Total: 1, Processed: 1}, nil
}

func (s *countingSyncer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type failureSink struct {
	mu   sync.Mutex
	errs []error
}

func (f *failureSink) RecordFailure(ctx context.Context, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
	return nil
}

func (f *failureSink) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errs)
}

func TestManager_IsRunning(t *testing.T) {
	manager := NewManager(&countingSyncer{}, 0)

	assert.False(t, manager.IsRunning())
	manager.Start()
	assert.True(t, manager.IsRunning())
	manager.Start()
	assert.True(t, manager.IsRunning(), "second Start is a no-op")

	manager.Stop()
	assert.False(t, manager.IsRunning())
}

func TestManager_StopWithoutStart(t *testing.T) {
	manager := NewManager(&countingSyncer{}, 0)

	// Stop without starting should be safe
	assert.False(t, manager.IsRunning())
	manager.Stop()
	assert.False(t, manager.IsRunning())
}

func TestManager_Restart(t *testing.T) {
	syncer := &countingSyncer{}
	manager := NewManager(syncer, 0)

	manager.Start()
	manager.Stop()
	manager.Start()
	manager.Trigger()

	assert.Eventually(t, func() bool { return syncer.Calls() == 1 }, time.Second, 5*time.Millisecond)
	manager.Stop()
}

func TestManager_TriggerRunsSync(t *testing.T) {
	syncer := &countingSyncer{}
	manager := NewManager(syncer, 0)
	manager.Start()
	defer manager.Stop()

	manager.Trigger()

	assert.Eventually(t, func() bool { return syncer.Calls() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		res, err := manager.LastResult()
		return err == nil && res != nil && res.RunID == "run"
	}, time.Second, 5*time.Millisecond)
}

func TestManager_TriggersMergeWhileBusy(t *testing.T) {
	syncer := &countingSyncer{block: make(chan struct{}), started: make(chan struct{}, 10)}
	manager := NewManager(syncer, 0)
	manager.Start()
	defer manager.Stop()

	manager.Trigger()
	<-syncer.started

	// One sync is running; these collapse into a single pending request.
	manager.Trigger()
	manager.Trigger()
	manager.Trigger()

	syncer.block <- struct{}{}
	<-syncer.started
	syncer.block <- struct{}{}

	assert.Eventually(t, func() bool { return syncer.Calls() == 2 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return syncer.Calls() > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestManager_IntervalSchedulesRuns(t *testing.T) {
	syncer := &countingSyncer{}
	manager := NewManager(syncer, 10*time.Millisecond)
	manager.Start()

	assert.Eventually(t, func() bool { return syncer.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	manager.Stop()
}

func TestManager_RecordsFailures(t *testing.T) {
	boom := errors.New("feed down")
	sink := &failureSink{}
	manager := NewManager(&countingSyncer{err: boom}, 0).WithFailureRecorder(sink)
	manager.Start()
	defer manager.Stop()

	manager.Trigger()

	require.Eventually(t, func() bool { return sink.Len() == 1 }, time.Second, 5*time.Millisecond)
	_, err := manager.LastResult()
	assert.ErrorIs(t, err, boom)
}

func TestManager_StopCancelsRunningSync(t *testing.T) {
	syncer := &countingSyncer{block: make(chan struct{}), started: make(chan struct{}, 1)}
	manager := NewManager(syncer, 0)
	manager.Start()

	manager.Trigger()
	<-syncer.started

	done := make(chan struct{})
	go func() {
		manager.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return while a sync was running")
	}
	_, err := manager.LastResult()
	assert.ErrorIs(t, err, context.Canceled)
}
