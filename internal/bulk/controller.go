// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bulk

import (
	"context"
	"sync"

	"github.com/boekwerk/boekwerk-cli/internal/models"
)

// State is the controller's position in the bulk-operation lifecycle.
type State int

const (
	StateIdle State = iota
	StateConfirm
	StateSubmitting
	StatePolling
	StateSettled
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirm:
		return "confirm"
	case StateSubmitting:
		return "submitting"
	case StatePolling:
		return "polling"
	case StateSettled:
		return "settled"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Seed is everything needed to re-open the flow: the action configuration,
// verbatim, and a target list. A retry seed carries the failed subset.
type Seed struct {
	Config  models.ActionConfig
	Targets []models.TargetClient
}

// CompletionHook is notified exactly once when an operation settles, so the
// caller can refresh list views, write audit history, and bump counters.
type CompletionHook func(op *models.BulkOperation, summary Summary)

// Controller is the state machine driving one bulk operation from
// confirmation to settlement. One controller owns at most one operation;
// a retry spawns a fresh controller with a new operation, never a
// resumption of the old one.
//
// The poll timer is an effect of being in StatePolling: entering the state
// starts the watcher, leaving it (settle or close) cancels the watcher, so
// a dangling timer cannot outlive the controller.
type Controller struct {
	dispatcher *Dispatcher
	watcher    *Watcher

	mu        sync.Mutex
	state     State
	config    models.ActionConfig
	targets   []models.TargetClient
	operation *models.BulkOperation
	submitErr error

	onChange   func()
	onComplete CompletionHook
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithChangeHook registers a callback fired after every observable state or
// snapshot change. Used by views to re-render.
func WithChangeHook(fn func()) ControllerOption {
	return func(c *Controller) { c.onChange = fn }
}

// WithCompletionHook registers the settle notification.
func WithCompletionHook(fn CompletionHook) ControllerOption {
	return func(c *Controller) { c.onComplete = fn }
}

func NewController(dispatcher *Dispatcher, watcher *Watcher, opts ...ControllerOption) *Controller {
	c := &Controller{
		dispatcher: dispatcher,
		watcher:    watcher,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open moves the controller to StateConfirm with the given action and
// target set. Re-opening discards any previous operation and poller state.
// No-op once closed.
func (c *Controller) Open(config models.ActionConfig, targets []models.TargetClient) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateConfirm
	c.config = config
	c.targets = targets
	c.operation = nil
	c.submitErr = nil
	c.mu.Unlock()

	c.watcher.Cancel()
	c.notifyChange()
}

// UpdateConfig replaces the editable action configuration while confirming.
func (c *Controller) UpdateConfig(config models.ActionConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConfirm {
		return
	}
	c.config = config
	c.submitErr = nil
}

// Submit dispatches the confirmed action. A call in any state other than
// StateConfirm is a no-op: re-entrant submits while submitting or polling
// must not issue a second network call.
//
// A dispatch failure (validation or transport) returns the controller to
// StateConfirm with the error recorded inline; the user may resubmit with
// the same configuration. A terminal response settles immediately with zero
// poll ticks; a pending one enters StatePolling and starts the watcher.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateConfirm {
		c.mu.Unlock()
		return nil
	}
	c.state = StateSubmitting
	c.submitErr = nil
	config := c.config
	targets := c.targets
	c.mu.Unlock()
	c.notifyChange()

	op, err := c.dispatcher.Submit(ctx, config, targets)
	if err != nil {
		c.mu.Lock()
		if c.state == StateSubmitting {
			c.state = StateConfirm
			c.submitErr = err
		}
		c.mu.Unlock()
		c.notifyChange()
		return err
	}

	c.mu.Lock()
	if c.state != StateSubmitting {
		// Closed while the submit call was in flight; drop the result.
		c.mu.Unlock()
		return nil
	}
	c.operation = op
	if op.IsTerminal() {
		c.state = StateSettled
		c.mu.Unlock()
		c.finishSettle(op)
		return nil
	}
	c.state = StatePolling
	c.mu.Unlock()
	c.notifyChange()

	c.watcher.Watch(op, c.applyUpdate, c.applyTerminal)
	return nil
}

// applyUpdate refreshes the displayed snapshot without changing state.
func (c *Controller) applyUpdate(op *models.BulkOperation) {
	c.mu.Lock()
	if c.state != StatePolling {
		c.mu.Unlock()
		return
	}
	c.operation = op
	c.mu.Unlock()
	c.notifyChange()
}

func (c *Controller) applyTerminal(op *models.BulkOperation) {
	c.mu.Lock()
	if c.state != StatePolling {
		c.mu.Unlock()
		return
	}
	c.operation = op
	c.state = StateSettled
	c.mu.Unlock()
	c.finishSettle(op)
}

// finishSettle fires the completion hook exactly once per settled
// operation. Runs without the lock so the hook may call back into the
// controller (e.g. to read the snapshot).
func (c *Controller) finishSettle(op *models.BulkOperation) {
	if c.onComplete != nil {
		c.onComplete(op, Summarize(op))
	}
	c.notifyChange()
}

// RetrySeed returns the seed for a failed-only retry: the same action type
// and configuration verbatim, with the failed subset as the new target
// list. Returns nil when the controller has not settled or nothing failed.
//
// A whole-operation FAILED without per-client results means the backend
// could not process any client; all original targets count as failed then.
func (c *Controller) RetrySeed() *Seed {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSettled || c.operation == nil {
		return nil
	}

	failed := RetryFailedOnly(c.operation)
	if failed == nil {
		if c.operation.Status == models.OperationFailed && len(c.operation.Results) == 0 {
			failed = append([]models.TargetClient(nil), c.targets...)
		} else {
			return nil
		}
	}

	return &Seed{Config: c.config, Targets: failed}
}

// Retry closes this controller and hands back the failed-only seed for the
// caller to open a fresh flow with. Returns nil if retry is not available.
func (c *Controller) Retry() *Seed {
	seed := c.RetrySeed()
	if seed == nil {
		return nil
	}
	c.Close()
	return seed
}

// Close tears the controller down: the watcher is cancelled synchronously,
// in-flight fetches are discarded, and no further state changes are
// permitted. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.mu.Unlock()

	// Cancel outside the lock: watcher callbacks take c.mu.
	c.watcher.Cancel()
	c.notifyChange()
}

func (c *Controller) notifyChange() {
	if c.onChange != nil {
		c.onChange()
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Operation returns the latest snapshot, or nil before submission.
func (c *Controller) Operation() *models.BulkOperation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.operation
}

// SubmitError returns the inline error shown in StateConfirm after a
// failed submission, or nil.
func (c *Controller) SubmitError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitErr
}

// Config returns the action configuration in effect.
func (c *Controller) Config() models.ActionConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Targets returns the target set in effect.
func (c *Controller) Targets() []models.TargetClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.targets
}

// Summary aggregates the latest snapshot.
func (c *Controller) Summary() Summary {
	return Summarize(c.Operation())
}
