// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bulk

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boekwerk/boekwerk-cli/internal/errors"
	"github.com/boekwerk/boekwerk-cli/internal/models"
)

const testInterval = 10 * time.Millisecond

func pendingOp(id string, total int) *models.BulkOperation {
	return &models.BulkOperation{
		ID:           id,
		ActionType:   models.ActionRecalculate,
		Status:       models.OperationPending,
		TotalClients: total,
	}
}

// scriptedFetch plays back a fixed sequence of snapshots (or errors) and
// repeats the last entry once exhausted.
type fetchStep struct {
	op  *models.BulkOperation
	err error
}

func scriptedFetch(steps ...fetchStep) FetchFunc {
	var i int32
	return func(_ context.Context, _ string) (*models.BulkOperation, error) {
		n := int(atomic.AddInt32(&i, 1)) - 1
		if n >= len(steps) {
			n = len(steps) - 1
		}
		return steps[n].op, steps[n].err
	}
}

// collector records callback invocations in order.
type collector struct {
	mu        sync.Mutex
	updates   []*models.BulkOperation
	terminals []*models.BulkOperation
	done      chan struct{}
}

func newCollector() *collector {
	return &collector{done: make(chan struct{})}
}

func (c *collector) onUpdate(op *models.BulkOperation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, op)
}

func (c *collector) onTerminal(op *models.BulkOperation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminals = append(c.terminals, op)
	close(c.done)
}

func (c *collector) waitDone(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not settle in time")
	}
}

func (c *collector) snapshot() (updates, terminals []*models.BulkOperation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*models.BulkOperation(nil), c.updates...),
		append([]*models.BulkOperation(nil), c.terminals...)
}

func TestWatcherImmediateTerminal(t *testing.T) {
	// A handle that is already terminal must settle with zero fetches.
	var fetches int32
	fetch := func(context.Context, string) (*models.BulkOperation, error) {
		atomic.AddInt32(&fetches, 1)
		return nil, nil
	}

	w := NewWatcher(fetch, testInterval, 0)
	col := newCollector()

	op := pendingOp("op-1", 5)
	op.Status = models.OperationCompleted
	op.SuccessfulClients = 5

	w.Watch(op, col.onUpdate, col.onTerminal)
	col.waitDone(t)

	updates, terminals := col.snapshot()
	assert.Empty(t, updates)
	require.Len(t, terminals, 1)
	assert.Equal(t, models.OperationCompleted, terminals[0].Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetches))
	assert.False(t, w.Active())
}

func TestWatcherProgressThenTerminal(t *testing.T) {
	final := pendingOp("op-2", 10)
	final.Status = models.OperationCompletedWithErrors
	final.ProcessedClients = 10
	final.SuccessfulClients = 8
	final.FailedClients = 2

	running4 := pendingOp("op-2", 10)
	running4.Status = models.OperationInProgress
	running4.ProcessedClients = 4
	running4.SuccessfulClients = 4

	w := NewWatcher(scriptedFetch(
		fetchStep{op: pendingOp("op-2", 10)},
		fetchStep{op: running4},
		fetchStep{op: final},
	), testInterval, 0)
	col := newCollector()

	w.Watch(pendingOp("op-2", 10), col.onUpdate, col.onTerminal)
	col.waitDone(t)

	updates, terminals := col.snapshot()
	require.Len(t, terminals, 1)
	assert.Equal(t, models.OperationCompletedWithErrors, terminals[0].Status)

	// Progress counters never regress across delivered updates.
	last := -1
	for _, u := range updates {
		assert.GreaterOrEqual(t, u.ProcessedClients, last)
		last = u.ProcessedClients
	}
	// The terminal snapshot is also delivered as an update first.
	require.NotEmpty(t, updates)
	assert.Equal(t, 10, updates[len(updates)-1].ProcessedClients)
	assert.False(t, w.Active())
}

func TestWatcherSkipsTransientErrors(t *testing.T) {
	// An error tick is skipped silently; the loop keeps running and the
	// next good tick resumes delivery.
	final := pendingOp("op-3", 3)
	final.Status = models.OperationCompleted
	final.SuccessfulClients = 3

	w := NewWatcher(scriptedFetch(
		fetchStep{err: &errors.NetworkError{Err: context.DeadlineExceeded}},
		fetchStep{err: &errors.NetworkError{Err: context.DeadlineExceeded}},
		fetchStep{op: final},
	), testInterval, 0)
	col := newCollector()

	w.Watch(pendingOp("op-3", 3), col.onUpdate, col.onTerminal)
	col.waitDone(t)

	updates, terminals := col.snapshot()
	require.Len(t, terminals, 1)
	// Only the successful tick delivered anything.
	require.Len(t, updates, 1)
	assert.Equal(t, models.OperationCompleted, updates[0].Status)
}

func TestWatcherCancelIdempotent(t *testing.T) {
	w := NewWatcher(scriptedFetch(fetchStep{op: pendingOp("op-4", 1)}), testInterval, 0)

	// Cancel before any watch is a no-op.
	w.Cancel()
	w.Cancel()

	col := newCollector()
	w.Watch(pendingOp("op-4", 1), col.onUpdate, col.onTerminal)

	w.Cancel()
	w.Cancel()
	assert.False(t, w.Active())

	// Cancel after natural settlement is also a no-op.
	done := pendingOp("op-4", 1)
	done.Status = models.OperationCompleted
	w.Watch(done, col.onUpdate, col.onTerminal)
	col.waitDone(t)
	w.Cancel()
	w.Cancel()
}

func TestWatcherNoCallbacksAfterCancel(t *testing.T) {
	// Cancel while a fetch is in flight: the response that arrives after
	// cancellation must not be delivered.
	inFlight := make(chan struct{})
	release := make(chan struct{})

	fetch := func(_ context.Context, _ string) (*models.BulkOperation, error) {
		close(inFlight)
		<-release
		done := pendingOp("op-5", 2)
		done.Status = models.OperationCompleted
		return done, nil
	}

	w := NewWatcher(fetch, testInterval, 0)
	col := newCollector()
	w.Watch(pendingOp("op-5", 2), col.onUpdate, col.onTerminal)

	select {
	case <-inFlight:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never started")
	}

	w.Cancel()
	close(release)

	// Give the loop goroutine a chance to misbehave.
	time.Sleep(5 * testInterval)

	updates, terminals := col.snapshot()
	assert.Empty(t, updates, "update delivered after cancel")
	assert.Empty(t, terminals, "terminal delivered after cancel")
}

func TestWatcherReplacementCancelsPrevious(t *testing.T) {
	// Starting a second watch detaches the first; only the second delivers.
	slowDone := make(chan struct{})
	fetch := func(_ context.Context, id string) (*models.BulkOperation, error) {
		if id == "op-old" {
			<-slowDone
		}
		done := pendingOp(id, 1)
		done.Status = models.OperationCompleted
		return done, nil
	}

	w := NewWatcher(fetch, testInterval, 0)
	oldCol := newCollector()
	w.Watch(pendingOp("op-old", 1), oldCol.onUpdate, oldCol.onTerminal)
	time.Sleep(2 * testInterval)

	newDone := pendingOp("op-new", 1)
	newDone.Status = models.OperationCompleted
	newCol := newCollector()
	w.Watch(newDone, newCol.onUpdate, newCol.onTerminal)
	close(slowDone)

	newCol.waitDone(t)
	time.Sleep(2 * testInterval)

	oldUpdates, oldTerminals := oldCol.snapshot()
	assert.Empty(t, oldUpdates)
	assert.Empty(t, oldTerminals)
	_, newTerminals := newCol.snapshot()
	assert.Len(t, newTerminals, 1)
}

func TestWatcherTimeout(t *testing.T) {
	w := NewWatcher(scriptedFetch(fetchStep{op: pendingOp("op-6", 1)}), testInterval, 50*time.Millisecond)

	timedOut := make(chan *models.BulkOperation, 1)
	w.OnTimeout = func(last *models.BulkOperation) {
		timedOut <- last
	}

	col := newCollector()
	w.Watch(pendingOp("op-6", 1), col.onUpdate, col.onTerminal)

	select {
	case last := <-timedOut:
		require.NotNil(t, last)
		assert.Equal(t, "op-6", last.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout never fired")
	}

	_, terminals := col.snapshot()
	assert.Empty(t, terminals)
	assert.False(t, w.Active())
}

func TestWatcherIntervalFloor(t *testing.T) {
	w := NewWatcher(nil, time.Millisecond, 0)
	assert.Equal(t, MinWatchInterval, w.interval)

	w = NewWatcher(nil, 0, 0)
	assert.Equal(t, DefaultWatchInterval, w.interval)
}
