// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bulk

import (
	"log/slog"

	"github.com/boekwerk/boekwerk-cli/internal/models"
)

// Summary is the aggregate view of one operation snapshot.
type Summary struct {
	SuccessCount    int
	FailedCount     int
	SkippedCount    int
	FailedClientIDs []string
}

// Summarize derives aggregate counts and the failed-ID subset from a
// snapshot. Pure; safe to call on every poll tick as the counters grow
// toward their final values.
func Summarize(op *models.BulkOperation) Summary {
	if op == nil {
		return Summary{}
	}

	skipped := op.TotalClients - op.SuccessfulClients - op.FailedClients
	if skipped < 0 {
		// Inconsistent upstream counters. Clamp rather than crash; the
		// backend owns the authoritative numbers.
		slog.Warn("bulk operation counters inconsistent",
			"operation_id", op.ID,
			"total", op.TotalClients,
			"successful", op.SuccessfulClients,
			"failed", op.FailedClients,
		)
		skipped = 0
	}

	var failedIDs []string
	for _, item := range op.Results {
		if item.Status == models.ResultFailed {
			failedIDs = append(failedIDs, item.ClientID)
		}
	}

	return Summary{
		SuccessCount:    op.SuccessfulClients,
		FailedCount:     op.FailedClients,
		SkippedCount:    skipped,
		FailedClientIDs: failedIDs,
	}
}
