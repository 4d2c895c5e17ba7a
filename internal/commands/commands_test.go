package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boekwerk/boekwerk-cli/internal/api"
	"github.com/boekwerk/boekwerk-cli/internal/api/dto"
	"github.com/boekwerk/boekwerk-cli/internal/bulk"
	"github.com/boekwerk/boekwerk-cli/internal/config"
	"github.com/boekwerk/boekwerk-cli/internal/models"
)

func TestConfigFromFlags(t *testing.T) {
	t.Cleanup(resetBulkFlags)

	t.Run("recalculate", func(t *testing.T) {
		resetBulkFlags()
		bulkIncludeDrafts = true

		config, err := configFromFlags(models.ActionRecalculate)
		require.NoError(t, err)
		recalc, ok := config.(models.RecalculateConfig)
		require.True(t, ok)
		assert.True(t, recalc.IncludeDrafts)
	})

	t.Run("vat draft with explicit period", func(t *testing.T) {
		resetBulkFlags()
		bulkYear = 2025
		bulkQuarter = 3

		config, err := configFromFlags(models.ActionGenerateVATDraft)
		require.NoError(t, err)
		vat := config.(models.VATDraftConfig)
		assert.Equal(t, 2025, vat.Year)
		assert.Equal(t, 3, vat.Quarter)
	})

	t.Run("vat draft defaults to previous quarter", func(t *testing.T) {
		resetBulkFlags()

		config, err := configFromFlags(models.ActionGenerateVATDraft)
		require.NoError(t, err)
		vat := config.(models.VATDraftConfig)
		assert.NotZero(t, vat.Year)
		assert.GreaterOrEqual(t, vat.Quarter, 1)
		assert.LessOrEqual(t, vat.Quarter, 4)
	})

	t.Run("reminder with deadline", func(t *testing.T) {
		resetBulkFlags()
		bulkTitle = "Aanleveren"
		bulkMessage = "Graag voor vrijdag."
		bulkDeadline = "2025-10-01"

		config, err := configFromFlags(models.ActionSendReminders)
		require.NoError(t, err)
		reminder := config.(models.ReminderConfig)
		require.NotNil(t, reminder.Deadline)
		assert.Equal(t, time.October, reminder.Deadline.Month())
	})

	t.Run("reminder with malformed deadline", func(t *testing.T) {
		resetBulkFlags()
		bulkDeadline = "01-10-2025"

		_, err := configFromFlags(models.ActionSendReminders)
		assert.Error(t, err)
	})
}

func TestPreviousQuarter(t *testing.T) {
	tests := []struct {
		now     time.Time
		year    int
		quarter int
	}{
		{time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 2024, 4},
		{time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), 2025, 1},
		{time.Date(2025, 8, 24, 0, 0, 0, 0, time.UTC), 2025, 2},
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 2025, 3},
	}

	for _, tt := range tests {
		year, quarter := previousQuarter(tt.now)
		assert.Equal(t, tt.year, year, "for %s", tt.now)
		assert.Equal(t, tt.quarter, quarter, "for %s", tt.now)
	}
}

func TestJoinActionTypes(t *testing.T) {
	joined := joinActionTypes()
	for _, action := range models.AllActionTypes {
		assert.Contains(t, joined, string(action))
	}
}

func TestExampleFilesParse(t *testing.T) {
	// Every shipped example must name a known action and carry content.
	names := map[string]bool{}
	for _, example := range exampleFiles {
		assert.False(t, names[example.name], "duplicate example %s", example.name)
		names[example.name] = true
		assert.NotEmpty(t, example.content)
		assert.NotEmpty(t, example.filename)
	}
}

func TestRenderClientsTable(t *testing.T) {
	summaries := []models.ClientSummary{
		{
			ID:           "c-101",
			Name:         "Bakkerij Jansen",
			KvKNumber:    "12345678",
			YellowFlag:   true,
			LastActivity: time.Date(2025, 8, 20, 14, 30, 0, 0, time.UTC),
		},
		{ID: "c-102", Name: "De Vries Transport"},
	}

	var buf bytes.Buffer
	require.NoError(t, renderClientsTable(&buf, summaries))

	out := buf.String()
	assert.Contains(t, out, "LAST ACTIVITY")
	assert.Contains(t, out, "Bakkerij Jansen")
	assert.Contains(t, out, "2025-08-20")
	assert.Contains(t, out, "●")
	// A client without recorded activity renders an empty column, not a
	// zero time.
	assert.NotContains(t, out, "0001-01-01")
}

func TestExecuteBulkReturnsAfterPollWindow(t *testing.T) {
	// Backend that accepts the submission and then never settles.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(dto.SingleOperationResponse{Data: &models.BulkOperation{
				ID:           "op-slow",
				ActionType:   models.ActionRecalculate,
				Status:       models.OperationPending,
				TotalClients: 2,
			}})
			return
		}
		_ = json.NewEncoder(w).Encode(models.BulkOperation{
			ID:               "op-slow",
			Status:           models.OperationInProgress,
			TotalClients:     2,
			ProcessedClients: 1,
		})
	}))
	defer server.Close()

	oldCfg, oldFollow := cfg, bulkFollow
	cfg = &config.SecureConfig{Config: &config.Config{
		APIKey:          "test-key",
		APIURL:          server.URL,
		PollInterval:    bulk.MinWatchInterval,
		PollMaxDuration: 400 * time.Millisecond,
	}}
	bulkFollow = true
	t.Cleanup(func() { cfg, bulkFollow = oldCfg, oldFollow })

	client := api.NewClient(cfg.APIKey, cfg.APIURL, false)
	targets := []models.TargetClient{
		{ID: "c-101", Name: "Bakkerij Jansen"},
		{ID: "c-102", Name: "De Vries Transport"},
	}

	type outcome struct {
		op  *models.BulkOperation
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		_, op, err := executeBulk(context.Background(), client, models.RecalculateConfig{}, targets)
		done <- outcome{op: op, err: err}
	}()

	select {
	case result := <-done:
		require.NoError(t, result.err)
		// No settlement: the operation keeps running on the server.
		assert.Nil(t, result.op)
	case <-time.After(3 * time.Second):
		t.Fatal("executeBulk did not return after the poll window elapsed")
	}
}

func resetBulkFlags() {
	bulkFile = ""
	bulkClients = nil
	bulkYellow = false
	bulkAllClients = false
	bulkIncludeDrafts = false
	bulkClearFlag = false
	bulkYear = 0
	bulkQuarter = 0
	bulkTitle = ""
	bulkMessage = ""
	bulkDeadline = ""
}
