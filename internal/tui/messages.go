package tui

import (
	"github.com/boekwerk/boekwerk-cli/internal/bulk"
	"github.com/boekwerk/boekwerk-cli/internal/models"
)

// operationUpdatedMsg carries a fresh snapshot from the poll loop.
type operationUpdatedMsg struct {
	op *models.BulkOperation
}

// operationSettledMsg fires once per settled operation.
type operationSettledMsg struct {
	op      *models.BulkOperation
	summary bulk.Summary
}

// submitDoneMsg reports the outcome of a dispatch.
type submitDoneMsg struct {
	err error
}

// operationTimedOutMsg fires when the polling window elapses before the
// operation settles. The backend keeps running; the watcher stopped.
type operationTimedOutMsg struct{}
