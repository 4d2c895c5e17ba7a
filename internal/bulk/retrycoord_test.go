// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bulk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boekwerk/boekwerk-cli/internal/models"
)

func TestRetryFailedOnly(t *testing.T) {
	t.Run("nil operation", func(t *testing.T) {
		assert.Nil(t, RetryFailedOnly(nil))
	})

	t.Run("nothing failed", func(t *testing.T) {
		op := &models.BulkOperation{
			Status:            models.OperationCompleted,
			TotalClients:      2,
			SuccessfulClients: 2,
			Results: []models.BulkOperationResultItem{
				{ClientID: "c1", Status: models.ResultSuccess},
				{ClientID: "c2", Status: models.ResultSuccess},
			},
		}
		assert.Nil(t, RetryFailedOnly(op))
	})

	t.Run("failed subset preserves result order", func(t *testing.T) {
		op := &models.BulkOperation{
			Status:            models.OperationCompletedWithErrors,
			TotalClients:      5,
			SuccessfulClients: 2,
			FailedClients:     3,
			Results: []models.BulkOperationResultItem{
				{ClientID: "c3", ClientName: "Bakkerij Jansen", Status: models.ResultFailed},
				{ClientID: "c1", Status: models.ResultSuccess},
				{ClientID: "c5", ClientName: "De Vries Transport", Status: models.ResultFailed},
				{ClientID: "c2", Status: models.ResultSuccess},
				{ClientID: "c4", ClientName: "Cafe Marktzicht", Status: models.ResultFailed},
			},
		}

		failed := RetryFailedOnly(op)
		require.Len(t, failed, 3)
		assert.Equal(t, "c3", failed[0].ID)
		assert.Equal(t, "c5", failed[1].ID)
		assert.Equal(t, "c4", failed[2].ID)
		assert.Equal(t, "Bakkerij Jansen", failed[0].Name)
	})

	t.Run("skipped clients are not retried", func(t *testing.T) {
		op := &models.BulkOperation{
			Status:        models.OperationCompletedWithErrors,
			TotalClients:  3,
			FailedClients: 1,
			Results: []models.BulkOperationResultItem{
				{ClientID: "c1", Status: models.ResultSkipped},
				{ClientID: "c2", Status: models.ResultFailed},
				{ClientID: "c3", Status: models.ResultSkipped},
			},
		}

		failed := RetryFailedOnly(op)
		require.Len(t, failed, 1)
		assert.Equal(t, "c2", failed[0].ID)
	})

	t.Run("failed counter without failed items", func(t *testing.T) {
		// Counter claims failures but the result list has none; nothing
		// concrete to retry.
		op := &models.BulkOperation{
			Status:        models.OperationFailed,
			TotalClients:  2,
			FailedClients: 2,
		}
		assert.Nil(t, RetryFailedOnly(op))
	})
}
