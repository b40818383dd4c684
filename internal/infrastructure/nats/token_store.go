// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/domain/port"
	pkgerrors "github.com/esgf/globus-transfer-service/pkg/errors"
)

// maxWriteAttempts bounds the create/update loop of SetToken under contention
const maxWriteAttempts = 3

// NATSTokenStore implements port.TokenStore on a JetStream key-value bucket
type NATSTokenStore struct {
	client NATSClientInterface
}

// bucketKey encodes session keys, which may hold characters KV keys reject
func bucketKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// GetToken implements port.TokenStore
func (n *NATSTokenStore) GetToken(ctx context.Context, key string) (model.StoredToken, bool, error) {
	entry, err := n.client.Get(ctx, bucketKey(key))
	if err != nil {
		slog.ErrorContext(ctx, "failed to read session token", "error", err)
		return model.StoredToken{}, false, pkgerrors.NewServiceUnavailable("token store read failed", err)
	}
	if entry == nil {
		return model.StoredToken{}, false, nil
	}
	return model.StoredToken{Value: string(entry.Value), Revision: entry.Revision}, true, nil
}

// SetToken implements port.TokenStore. The last writer wins; each write is
// conditional on the revision it observed.
func (n *NATSTokenStore) SetToken(ctx context.Context, key, value string) error {
	k := bucketKey(key)

	var lastErr error
	for range maxWriteAttempts {
		entry, err := n.client.Get(ctx, k)
		if err != nil {
			return pkgerrors.NewServiceUnavailable("token store read failed", err)
		}

		if entry == nil {
			_, lastErr = n.client.Create(ctx, k, []byte(value))
		} else {
			_, lastErr = n.client.Update(ctx, k, []byte(value), entry.Revision)
		}
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ErrStaleRevision) {
			break
		}
		slog.DebugContext(ctx, "session token written concurrently, retrying")
	}

	slog.ErrorContext(ctx, "failed to write session token", "error", lastErr)
	return pkgerrors.NewServiceUnavailable("token store write failed", lastErr)
}

// ClearToken implements port.TokenStore
func (n *NATSTokenStore) ClearToken(ctx context.Context, key string, revision uint64) error {
	err := n.client.Delete(ctx, bucketKey(key), revision)
	if errors.Is(err, ErrStaleRevision) {
		slog.DebugContext(ctx, "token changed since it was read, keeping it",
			"read_revision", revision,
		)
		return nil
	}
	if err != nil {
		return pkgerrors.NewServiceUnavailable("token store delete failed", err)
	}
	return nil
}

// IsReady implements port.TokenStore
func (n *NATSTokenStore) IsReady(ctx context.Context) error {
	if err := n.client.IsReady(ctx); err != nil {
		return pkgerrors.NewServiceUnavailable("token store is not ready", err)
	}
	return nil
}

// Close gracefully closes the NATS connection
func (n *NATSTokenStore) Close() error {
	return n.client.Close()
}

// NewTokenStore creates a new NATS backed token store
func NewTokenStore(ctx context.Context, config Config) (port.TokenStore, error) {
	slog.InfoContext(ctx, "creating NATS token store",
		"url", config.URL,
		"bucket", config.Bucket,
	)

	client, err := NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS client: %w", err)
	}

	return &NATSTokenStore{
		client: client,
	}, nil
}
