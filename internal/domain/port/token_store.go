// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
)

// TokenStore persists one refresh token per session key.
// Implementations must provide independent read-modify-write per key; no
// operation may lock other keys.
type TokenStore interface {
	// GetToken returns the stored token and the revision it was read at.
	// The boolean is false when nothing is stored under key.
	GetToken(ctx context.Context, key string) (model.StoredToken, bool, error)

	// SetToken stores value under key, replacing any previous value
	SetToken(ctx context.Context, key, value string) error

	// ClearToken deletes key only if it is still at revision, so a token
	// written concurrently by another request is never lost
	ClearToken(ctx context.Context, key string, revision uint64) error

	// IsReady checks if the store is ready to serve requests
	IsReady(ctx context.Context) error

	// Close releases the store resources
	Close() error
}
