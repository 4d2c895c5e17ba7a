// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit keeps a local append-only history of settled bulk
// operations, one JSON document per line. Accountants use it to answer
// "what did we run against which clients last week" without asking the
// backend.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"

	"github.com/boekwerk/boekwerk-cli/internal/bulk"
	"github.com/boekwerk/boekwerk-cli/internal/models"
)

// Entry is one settled operation as recorded locally.
type Entry struct {
	OperationID     string                 `json:"operationId"`
	ActionType      models.BulkActionType  `json:"actionType"`
	Status          models.OperationStatus `json:"status"`
	TotalClients    int                    `json:"totalClients"`
	SuccessCount    int                    `json:"successCount"`
	FailedCount     int                    `json:"failedCount"`
	SkippedCount    int                    `json:"skippedCount"`
	FailedClientIDs []string               `json:"failedClientIds,omitempty"`
	RecordedAt      time.Time              `json:"recordedAt"`
}

// Log appends settled operations to a JSONL file.
type Log struct {
	mu   sync.Mutex
	path string
}

// DefaultPath resolves the history file under the XDG data directory.
func DefaultPath() string {
	// Respect XDG_DATA_HOME for testing.
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = xdg.DataHome
	}
	return filepath.Join(dataDir, "boekwerk", "history.jsonl")
}

// NewLog creates a log writing to the given path.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Record appends one settled operation. Returns the entry as written.
func (l *Log) Record(op *models.BulkOperation, summary bulk.Summary) (*Entry, error) {
	if op == nil {
		return nil, fmt.Errorf("cannot record nil operation")
	}

	entry := Entry{
		OperationID:     op.ID,
		ActionType:      op.ActionType,
		Status:          op.Status,
		TotalClients:    op.TotalClients,
		SuccessCount:    summary.SuccessCount,
		FailedCount:     summary.FailedCount,
		SkippedCount:    summary.SkippedCount,
		FailedClientIDs: summary.FailedClientIDs,
		RecordedAt:      time.Now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("failed to write history entry: %w", err)
	}
	return &entry, nil
}

// Recent returns the last n entries, newest first. A missing history file
// yields an empty slice.
func (l *Log) Recent(n int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			// A torn write from a crashed process; skip the line.
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	// Newest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}
