// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bulk

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"

	"github.com/boekwerk/boekwerk-cli/internal/utils"
)

// Clock abstracts time for day-scoped state, so counter rollover can be
// driven in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// DailyCounter counts completed bulk actions per calendar day. The count
// resets implicitly when the day changes and can be reset explicitly. With
// a non-empty path the state survives restarts.
type DailyCounter struct {
	mu    sync.Mutex
	clock Clock
	path  string
	day   string
	count int
}

type counterState struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// DefaultCounterPath resolves the counter file under the XDG data
// directory.
func DefaultCounterPath() string {
	// Respect XDG_DATA_HOME for testing.
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = xdg.DataHome
	}
	return filepath.Join(dataDir, "boekwerk", "daily_count.json")
}

// NewDailyCounter creates a counter. path may be empty for in-memory use.
func NewDailyCounter(clock Clock, path string) *DailyCounter {
	if clock == nil {
		clock = SystemClock
	}
	c := &DailyCounter{
		clock: clock,
		path:  path,
		day:   utils.DayKey(clock.Now()),
	}
	c.load()
	return c
}

// Increment bumps today's count and returns the new value.
func (c *DailyCounter) Increment() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rolloverLocked()
	c.count++
	c.saveLocked()
	return c.count
}

// Read returns today's count.
func (c *DailyCounter) Read() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rolloverLocked()
	return c.count
}

// Reset zeroes the count for the given day key.
func (c *DailyCounter) Reset(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.day = day
	c.count = 0
	c.saveLocked()
}

func (c *DailyCounter) rolloverLocked() {
	today := utils.DayKey(c.clock.Now())
	if today != c.day {
		c.day = today
		c.count = 0
		c.saveLocked()
	}
}

func (c *DailyCounter) load() {
	if c.path == "" {
		return
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var state counterState
	if err := json.Unmarshal(data, &state); err != nil {
		return
	}
	// Stale state from a previous day starts fresh.
	if state.Day == c.day {
		c.count = state.Count
	}
}

func (c *DailyCounter) saveLocked() {
	if c.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return
	}
	data, err := json.Marshal(counterState{Day: c.day, Count: c.count})
	if err != nil {
		return
	}
	// Best effort; a lost counter write is not worth failing an operation.
	_ = os.WriteFile(c.path, data, 0o644)
}
