// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bulk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boekwerk/boekwerk-cli/internal/models"
)

func TestSummarize(t *testing.T) {
	t.Run("nil operation", func(t *testing.T) {
		s := Summarize(nil)
		assert.Zero(t, s.SuccessCount)
		assert.Zero(t, s.FailedCount)
		assert.Zero(t, s.SkippedCount)
		assert.Empty(t, s.FailedClientIDs)
	})

	t.Run("counts add up to total", func(t *testing.T) {
		op := &models.BulkOperation{
			ID:                "op-1",
			Status:            models.OperationCompletedWithErrors,
			TotalClients:      10,
			SuccessfulClients: 7,
			FailedClients:     2,
			Results: []models.BulkOperationResultItem{
				{ClientID: "c1", Status: models.ResultSuccess},
				{ClientID: "c2", Status: models.ResultFailed, ErrorMessage: "grootboek vergrendeld"},
				{ClientID: "c3", Status: models.ResultSuccess},
				{ClientID: "c4", Status: models.ResultFailed, ErrorMessage: "periode gesloten"},
				{ClientID: "c5", Status: models.ResultSkipped},
			},
		}

		s := Summarize(op)
		assert.Equal(t, 7, s.SuccessCount)
		assert.Equal(t, 2, s.FailedCount)
		assert.Equal(t, 1, s.SkippedCount)
		assert.Equal(t, s.SuccessCount+s.FailedCount+s.SkippedCount, op.TotalClients)
		assert.Equal(t, []string{"c2", "c4"}, s.FailedClientIDs)
	})

	t.Run("all successful", func(t *testing.T) {
		op := &models.BulkOperation{
			Status:            models.OperationCompleted,
			TotalClients:      4,
			SuccessfulClients: 4,
		}

		s := Summarize(op)
		assert.Equal(t, 4, s.SuccessCount)
		assert.Zero(t, s.FailedCount)
		assert.Zero(t, s.SkippedCount)
		assert.Empty(t, s.FailedClientIDs)
	})

	t.Run("clamps inconsistent counters", func(t *testing.T) {
		op := &models.BulkOperation{
			ID:                "op-bad",
			TotalClients:      3,
			SuccessfulClients: 3,
			FailedClients:     2,
		}

		s := Summarize(op)
		assert.Equal(t, 0, s.SkippedCount)
	})

	t.Run("partial snapshot mid poll", func(t *testing.T) {
		op := &models.BulkOperation{
			Status:            models.OperationInProgress,
			TotalClients:      10,
			ProcessedClients:  4,
			SuccessfulClients: 3,
			FailedClients:     1,
		}

		s := Summarize(op)
		assert.Equal(t, 3, s.SuccessCount)
		assert.Equal(t, 1, s.FailedCount)
		// Unprocessed clients show as skipped until the counters catch up.
		assert.Equal(t, 6, s.SkippedCount)
	})
}
