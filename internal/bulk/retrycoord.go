// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bulk

import "github.com/boekwerk/boekwerk-cli/internal/models"

// RetryFailedOnly returns the target subset for a retry: exactly the clients
// whose result is FAILED, in their order of appearance. Returns nil when
// there is nothing to retry, in which case callers must not offer a retry
// action. Pure; no network.
func RetryFailedOnly(op *models.BulkOperation) []models.TargetClient {
	if op == nil || op.FailedClients == 0 {
		return nil
	}

	var failed []models.TargetClient
	for _, item := range op.Results {
		if item.Status == models.ResultFailed {
			failed = append(failed, models.TargetClient{
				ID:   item.ClientID,
				Name: item.ClientName,
			})
		}
	}

	if len(failed) == 0 {
		return nil
	}
	return failed
}
