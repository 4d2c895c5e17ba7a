// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "time"

// OperationStatus is the lifecycle status of a bulk operation as reported by
// the backend job executor.
type OperationStatus string

const (
	OperationPending             OperationStatus = "PENDING"
	OperationInProgress          OperationStatus = "IN_PROGRESS"
	OperationCompleted           OperationStatus = "COMPLETED"
	OperationCompletedWithErrors OperationStatus = "COMPLETED_WITH_ERRORS"
	OperationFailed              OperationStatus = "FAILED"
)

// ResultStatus is the per-client outcome within a bulk operation.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "SUCCESS"
	ResultFailed  ResultStatus = "FAILED"
	ResultSkipped ResultStatus = "SKIPPED"
)

// BulkOperation is a snapshot of one server-tracked bulk job. Counters are
// cumulative and non-decreasing across successive snapshots; Results is
// append-only as per-client outcomes arrive.
type BulkOperation struct {
	ID                string                    `json:"id"`
	ActionType        BulkActionType            `json:"actionType"`
	Status            OperationStatus           `json:"status"`
	TotalClients      int                       `json:"totalClients"`
	ProcessedClients  int                       `json:"processedClients"`
	SuccessfulClients int                       `json:"successfulClients"`
	FailedClients     int                       `json:"failedClients"`
	Results           []BulkOperationResultItem `json:"results,omitempty"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

// BulkOperationResultItem is the outcome for a single target client.
// ErrorMessage is opaque user-facing text, present only on FAILED.
type BulkOperationResultItem struct {
	ClientID     string       `json:"clientId"`
	ClientName   string       `json:"clientName"`
	Status       ResultStatus `json:"status"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
}

// TerminalStatuses are the status values after which the operation never
// transitions again.
var TerminalStatuses = []OperationStatus{
	OperationCompleted,
	OperationCompletedWithErrors,
	OperationFailed,
}

// IsTerminalStatus reports whether the operation has stopped making progress.
func IsTerminalStatus(status OperationStatus) bool {
	for _, s := range TerminalStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether this snapshot is in a terminal status.
func (op *BulkOperation) IsTerminal() bool {
	return IsTerminalStatus(op.Status)
}

// IsPartialFailure reports whether some but not all targets failed. This is
// a first-class terminal outcome, distinct from a whole-operation FAILED.
func (op *BulkOperation) IsPartialFailure() bool {
	return op.Status == OperationCompletedWithErrors
}
