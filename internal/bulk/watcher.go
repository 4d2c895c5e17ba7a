// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bulk

import (
	"context"
	"sync"
	"time"

	"github.com/boekwerk/boekwerk-cli/internal/models"
)

const (
	// DefaultWatchInterval is the fixed cadence of status fetches.
	DefaultWatchInterval = 2 * time.Second

	// MinWatchInterval guards against configs that would hammer the API.
	MinWatchInterval = 250 * time.Millisecond
)

// FetchFunc fetches the current snapshot of one operation by ID.
type FetchFunc func(ctx context.Context, id string) (*models.BulkOperation, error)

// Watcher drives the polling loop for one in-flight bulk operation.
//
// A transient fetch error skips that tick and keeps the timer running; a
// long backend job must survive flaky connectivity. A terminal snapshot
// stops the loop and fires the terminal callback exactly once. Cancel is
// idempotent, and once it returns no callback will run again, even if a
// fetch was in flight at the moment of cancellation.
type Watcher struct {
	fetch       FetchFunc
	interval    time.Duration
	maxDuration time.Duration

	// OnTimeout, if set, is called when maxDuration elapses before the
	// operation settles. The loop stops afterwards.
	OnTimeout func(last *models.BulkOperation)

	mu      sync.Mutex
	current *watchRun
}

type watchRun struct {
	stop      chan struct{}
	ctxCancel context.CancelFunc
	cancelled bool
}

// NewWatcher creates a watcher. interval <= 0 selects the default cadence;
// maxDuration == 0 polls until the backend reports a terminal state.
func NewWatcher(fetch FetchFunc, interval, maxDuration time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	if interval < MinWatchInterval {
		interval = MinWatchInterval
	}
	return &Watcher{
		fetch:       fetch,
		interval:    interval,
		maxDuration: maxDuration,
	}
}

// Watch starts polling the given operation. Callbacks run sequentially on
// the watcher's own goroutine, in tick order. Calling Watch while a previous
// watch is active cancels the old timer first: at most one timer is ever
// live per watcher.
func (w *Watcher) Watch(op *models.BulkOperation, onUpdate func(*models.BulkOperation), onTerminal func(*models.BulkOperation)) {
	ctx, ctxCancel := context.WithCancel(context.Background())
	run := &watchRun{
		stop:      make(chan struct{}),
		ctxCancel: ctxCancel,
	}

	w.mu.Lock()
	w.cancelLocked()
	w.current = run
	w.mu.Unlock()

	go w.loop(ctx, run, op, onUpdate, onTerminal)
}

// Cancel stops the active watch immediately. Safe to call any number of
// times, including after natural termination or before any Watch.
func (w *Watcher) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelLocked()
}

func (w *Watcher) cancelLocked() {
	if w.current == nil {
		return
	}
	if !w.current.cancelled {
		w.current.cancelled = true
		close(w.current.stop)
		w.current.ctxCancel()
	}
	w.current = nil
}

func (w *Watcher) loop(ctx context.Context, run *watchRun, op *models.BulkOperation, onUpdate, onTerminal func(*models.BulkOperation)) {
	defer run.ctxCancel()

	// A handle that is already terminal settles without a single tick.
	if op.IsTerminal() {
		w.finish(run, op, onTerminal)
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if w.maxDuration > 0 {
		timer := time.NewTimer(w.maxDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	latest := op
	for {
		select {
		case <-run.stop:
			return

		case <-deadline:
			w.timeout(run, latest)
			return

		case <-ticker.C:
			snapshot, err := w.fetch(ctx, op.ID)
			if err != nil {
				// Transient poll error: skip this tick, keep polling.
				continue
			}

			if !w.deliver(run, snapshot, onUpdate) {
				return
			}
			latest = snapshot

			if snapshot.IsTerminal() {
				w.finish(run, snapshot, onTerminal)
				return
			}
		}
	}
}

// deliver invokes onUpdate unless this run has been cancelled or replaced.
// The check and the callback happen under the watcher lock, so once Cancel
// has returned no further delivery is possible.
func (w *Watcher) deliver(run *watchRun, snapshot *models.BulkOperation, onUpdate func(*models.BulkOperation)) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != run || run.cancelled {
		return false
	}
	if onUpdate != nil {
		onUpdate(snapshot)
	}
	return true
}

// finish fires the terminal callback exactly once and detaches the run, so
// a later Cancel is a no-op.
func (w *Watcher) finish(run *watchRun, snapshot *models.BulkOperation, onTerminal func(*models.BulkOperation)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != run || run.cancelled {
		return
	}
	w.current = nil
	if onTerminal != nil {
		onTerminal(snapshot)
	}
}

func (w *Watcher) timeout(run *watchRun, last *models.BulkOperation) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != run || run.cancelled {
		return
	}
	w.current = nil
	if w.OnTimeout != nil {
		w.OnTimeout(last)
	}
}

// Active reports whether a watch is currently running.
func (w *Watcher) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current != nil
}
