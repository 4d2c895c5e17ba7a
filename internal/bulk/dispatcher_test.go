// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bulk

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boekwerk/boekwerk-cli/internal/api/dto"
	"github.com/boekwerk/boekwerk-cli/internal/errors"
	"github.com/boekwerk/boekwerk-cli/internal/models"
)

// fakeAPI is a scriptable OperationAPI for core tests.
type fakeAPI struct {
	mu          sync.Mutex
	submitCalls int
	getCalls    int

	submitFn func(req *dto.BulkActionRequest) (*models.BulkOperation, error)
	getFn    func(id string) (*models.BulkOperation, error)
}

func (f *fakeAPI) SubmitBulkAction(_ context.Context, req *dto.BulkActionRequest) (*models.BulkOperation, error) {
	f.mu.Lock()
	f.submitCalls++
	f.mu.Unlock()
	return f.submitFn(req)
}

func (f *fakeAPI) GetBulkOperation(_ context.Context, id string) (*models.BulkOperation, error) {
	f.mu.Lock()
	f.getCalls++
	f.mu.Unlock()
	return f.getFn(id)
}

func (f *fakeAPI) SubmitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls
}

func targets(ids ...string) []models.TargetClient {
	out := make([]models.TargetClient, len(ids))
	for i, id := range ids {
		out[i] = models.TargetClient{ID: id, Name: "Client " + id}
	}
	return out
}

func TestBuildRequest(t *testing.T) {
	t.Run("recalculate payload", func(t *testing.T) {
		req, err := BuildRequest(models.RecalculateConfig{IncludeDrafts: true}, targets("c1", "c2"))
		require.NoError(t, err)

		assert.Equal(t, models.ActionRecalculate, req.ActionType)
		assert.Equal(t, []string{"c1", "c2"}, req.ClientIDs)
		require.NotNil(t, req.Recalculate)
		assert.True(t, req.Recalculate.IncludeDrafts)
		// Payload shapes are mutually exclusive
		assert.Nil(t, req.AckYellow)
		assert.Nil(t, req.VATDraft)
		assert.Nil(t, req.Reminders)
	})

	t.Run("ack yellow payload", func(t *testing.T) {
		req, err := BuildRequest(models.AckYellowConfig{ClearFlag: true}, targets("c1"))
		require.NoError(t, err)
		require.NotNil(t, req.AckYellow)
		assert.True(t, req.AckYellow.ClearFlag)
		assert.Nil(t, req.Recalculate)
	})

	t.Run("vat draft payload", func(t *testing.T) {
		req, err := BuildRequest(models.VATDraftConfig{Year: 2025, Quarter: 3}, targets("c1"))
		require.NoError(t, err)
		require.NotNil(t, req.VATDraft)
		assert.Equal(t, 2025, req.VATDraft.Year)
		assert.Equal(t, 3, req.VATDraft.Quarter)
	})

	t.Run("reminder payload", func(t *testing.T) {
		req, err := BuildRequest(models.ReminderConfig{Title: "Herinnering", Message: "Graag betalen."}, targets("c1"))
		require.NoError(t, err)
		require.NotNil(t, req.Reminders)
		assert.Equal(t, "Herinnering", req.Reminders.Title)
	})

	t.Run("rejects empty target list", func(t *testing.T) {
		_, err := BuildRequest(models.RecalculateConfig{}, nil)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("rejects nil config", func(t *testing.T) {
		_, err := BuildRequest(nil, targets("c1"))
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("rejects target without id", func(t *testing.T) {
		_, err := BuildRequest(models.RecalculateConfig{}, []models.TargetClient{{Name: "naamloos"}})
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("rejects quarter out of range", func(t *testing.T) {
		for _, quarter := range []int{0, 5, -1} {
			_, err := BuildRequest(models.VATDraftConfig{Year: 2025, Quarter: quarter}, targets("c1"))
			var valErr *errors.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, "quarter", valErr.Field)
		}
	})

	t.Run("rejects implausible year", func(t *testing.T) {
		_, err := BuildRequest(models.VATDraftConfig{Year: 25, Quarter: 1}, targets("c1"))
		var valErr *errors.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "year", valErr.Field)
	})

	t.Run("rejects blank reminder fields", func(t *testing.T) {
		_, err := BuildRequest(models.ReminderConfig{Title: "  ", Message: "x"}, targets("c1"))
		assert.True(t, errors.IsValidationError(err))

		_, err = BuildRequest(models.ReminderConfig{Title: "x", Message: "\n"}, targets("c1"))
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestDispatcherSubmit(t *testing.T) {
	t.Run("performs exactly one call and returns the snapshot", func(t *testing.T) {
		api := &fakeAPI{
			submitFn: func(req *dto.BulkActionRequest) (*models.BulkOperation, error) {
				return &models.BulkOperation{
					ID:           "op-1",
					ActionType:   req.ActionType,
					Status:       models.OperationPending,
					TotalClients: len(req.ClientIDs),
				}, nil
			},
		}
		d := NewDispatcher(api)

		op, err := d.Submit(context.Background(), models.RecalculateConfig{}, targets("c1", "c2", "c3"))
		require.NoError(t, err)
		assert.Equal(t, "op-1", op.ID)
		assert.Equal(t, 3, op.TotalClients)
		assert.Equal(t, 1, api.SubmitCalls())
	})

	t.Run("validation failure makes no network call", func(t *testing.T) {
		api := &fakeAPI{
			submitFn: func(*dto.BulkActionRequest) (*models.BulkOperation, error) {
				t.Fatal("network call issued for invalid config")
				return nil, nil
			},
		}
		d := NewDispatcher(api)

		_, err := d.Submit(context.Background(), models.VATDraftConfig{Year: 2025, Quarter: 0}, targets("c1"))
		assert.True(t, errors.IsValidationError(err))
		assert.Equal(t, 0, api.SubmitCalls())
	})

	t.Run("transport failure surfaces as a single error", func(t *testing.T) {
		api := &fakeAPI{
			submitFn: func(*dto.BulkActionRequest) (*models.BulkOperation, error) {
				return nil, &errors.NetworkError{Err: context.DeadlineExceeded}
			},
		}
		d := NewDispatcher(api)

		_, err := d.Submit(context.Background(), models.RecalculateConfig{}, targets("c1"))
		assert.Error(t, err)
		assert.Equal(t, 1, api.SubmitCalls())
	})
}
