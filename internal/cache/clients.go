// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/boekwerk/boekwerk-cli/internal/models"
)

const defaultClientTTL = 5 * time.Minute

// ClientCache holds recently fetched client listings in memory so the
// confirm step can re-open without another round trip. A settled bulk
// operation invalidates the cache: yellow flags and activity stamps are
// exactly what bulk actions change.
type ClientCache struct {
	cache *ttlcache.Cache[string, []models.ClientSummary]
	ttl   time.Duration
}

// NewClientCache creates a cache with the default TTL.
func NewClientCache() *ClientCache {
	return NewClientCacheTTL(defaultClientTTL)
}

// NewClientCacheTTL creates a cache with an explicit TTL.
func NewClientCacheTTL(ttl time.Duration) *ClientCache {
	cache := ttlcache.New[string, []models.ClientSummary](
		ttlcache.WithCapacity[string, []models.ClientSummary](100),
	)
	go cache.Start()

	return &ClientCache{cache: cache, ttl: ttl}
}

func listKey(onlyYellow bool) string {
	if onlyYellow {
		return "clients:yellow"
	}
	return "clients:all"
}

// GetList returns a cached listing, if present and fresh.
func (c *ClientCache) GetList(onlyYellow bool) ([]models.ClientSummary, bool) {
	item := c.cache.Get(listKey(onlyYellow))
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// SetList stores a listing.
func (c *ClientCache) SetList(onlyYellow bool, clients []models.ClientSummary) {
	c.cache.Set(listKey(onlyYellow), clients, c.ttl)
}

// Invalidate drops all cached listings. Called after an operation settles.
func (c *ClientCache) Invalidate() {
	c.cache.DeleteAll()
}

// Stop shuts down the expiry goroutine.
func (c *ClientCache) Stop() {
	c.cache.Stop()
}
