// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog fetches and caches the list of available completion
// models.
//
// The cache-or-fetch policy has no expiry: once populated, the cache is
// treated as valid until a forced refresh fully replaces it.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/hightemp/openrouter-chat/pkg/openrouter"
	"github.com/hightemp/openrouter-chat/pkg/settings"
	"github.com/hightemp/openrouter-chat/pkg/store"
)

// ModelLister is the subset of the completion client the catalog needs.
// The base URL comes from the runtime settings on every call; an empty
// value means the client's default.
type ModelLister interface {
	ListModels(ctx context.Context, apiKey, baseURL string) ([]openrouter.ModelInfo, error)
}

// =============================================================================
// MODEL CATALOG
// =============================================================================

// Catalog holds the in-memory model list backed by the models cache table.
// Thread-safe.
type Catalog struct {
	mu       sync.RWMutex
	db       *store.Store
	settings *settings.Store
	lister   ModelLister

	models  []openrouter.ModelInfo
	loading bool
	err     string
}

// New creates a model catalog.
func New(db *store.Store, st *settings.Store, lister ModelLister) *Catalog {
	return &Catalog{
		db:       db,
		settings: st,
		lister:   lister,
	}
}

// Load populates the model list.
//
// Unless forced, an already populated in-memory list is kept as-is, and a
// non-empty cache table is adopted without a network call. When a fetch is
// needed but no API key is configured, Load silently returns with no
// models. Failures never propagate; they are surfaced through Err.
func (c *Catalog) Load(ctx context.Context, force bool) {
	c.mu.Lock()
	if !force && len(c.models) > 0 {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.err = ""
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	// Try cache first.
	cached, err := c.db.CachedModels(ctx)
	if err != nil {
		c.setErr(err.Error())
		return
	}
	if len(cached) > 0 && !force {
		c.setModels(cached)
		return
	}

	cur := c.settings.Current()
	if cur.APIKey == "" {
		// Cannot fetch without an API key. Not an error.
		return
	}

	fetched, err := c.lister.ListModels(ctx, cur.APIKey, cur.BaseURL)
	if err != nil {
		c.setErr(err.Error())
		return
	}
	c.setModels(fetched)

	// Clear-then-bulk-replace; the cache always mirrors the last
	// successful fetch.
	if err := c.db.ReplaceModels(ctx, fetched); err != nil {
		c.setErr(err.Error())
	}
}

// Filter returns the models whose id or name contains the query,
// case-insensitively. An empty query returns the full list.
func (c *Catalog) Filter(query string) []openrouter.ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if query == "" {
		return append([]openrouter.ModelInfo(nil), c.models...)
	}

	lower := strings.ToLower(query)
	var out []openrouter.ModelInfo
	for _, m := range c.models {
		if strings.Contains(strings.ToLower(m.Name), lower) ||
			strings.Contains(strings.ToLower(m.ID), lower) {
			out = append(out, m)
		}
	}
	return out
}

// Models returns a copy of the current model list.
func (c *Catalog) Models() []openrouter.ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]openrouter.ModelInfo(nil), c.models...)
}

// Loading reports whether a load is in progress.
func (c *Catalog) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the description of the last load failure, or empty string.
func (c *Catalog) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Catalog) setModels(models []openrouter.ModelInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = models
}

func (c *Catalog) setErr(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = msg
}
