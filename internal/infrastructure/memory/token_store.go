// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package memory provides a process local token store, suited to single
// replica deployments and local development.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/domain/port"
)

type tokenEntry struct {
	mu       sync.Mutex
	value    string
	revision uint64
	// removed is set once the entry left the map; writers must start over
	removed bool
}

// TokenStore keeps tokens in a sync.Map of per-key entries, each guarded by
// its own mutex. An entry only exists while a token is stored. Revisions are
// drawn from one store wide counter so a cleared and rewritten key never
// reuses a revision.
type TokenStore struct {
	entries   sync.Map
	revisions atomic.Uint64
}

// lockedEntry returns the live entry of key, created if needed, with its
// mutex held.
func (s *TokenStore) lockedEntry(key string) *tokenEntry {
	for {
		v, _ := s.entries.LoadOrStore(key, &tokenEntry{})
		e := v.(*tokenEntry)
		e.mu.Lock()
		if !e.removed {
			return e
		}
		e.mu.Unlock()
	}
}

// GetToken implements port.TokenStore
func (s *TokenStore) GetToken(ctx context.Context, key string) (model.StoredToken, bool, error) {
	v, ok := s.entries.Load(key)
	if !ok {
		return model.StoredToken{}, false, nil
	}
	e := v.(*tokenEntry)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed || e.revision == 0 {
		return model.StoredToken{}, false, nil
	}
	return model.StoredToken{Value: e.value, Revision: e.revision}, true, nil
}

// SetToken implements port.TokenStore
func (s *TokenStore) SetToken(ctx context.Context, key, value string) error {
	e := s.lockedEntry(key)
	defer e.mu.Unlock()

	e.value = value
	e.revision = s.revisions.Add(1)
	return nil
}

// ClearToken implements port.TokenStore
func (s *TokenStore) ClearToken(ctx context.Context, key string, revision uint64) error {
	v, ok := s.entries.Load(key)
	if !ok {
		return nil
	}
	e := v.(*tokenEntry)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed || e.revision != revision {
		slog.DebugContext(ctx, "token changed since it was read, keeping it",
			"read_revision", revision,
			"current_revision", e.revision,
		)
		return nil
	}
	e.removed = true
	s.entries.CompareAndDelete(key, e)
	return nil
}

// IsReady implements port.TokenStore
func (s *TokenStore) IsReady(ctx context.Context) error {
	return nil
}

// Close implements port.TokenStore
func (s *TokenStore) Close() error {
	return nil
}

// NewTokenStore creates an empty in-memory token store
func NewTokenStore() port.TokenStore {
	return &TokenStore{}
}
