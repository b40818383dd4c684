// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrStaleRevision is returned when a conditional write lost against a
// concurrent writer of the same key
var ErrStaleRevision = errors.New("stale key revision")

const defaultTimeout = 10 * time.Second

// NATSClient wraps the NATS connection and the JetStream key-value bucket
type NATSClient struct {
	conn    *nats.Conn
	kv      jetstream.KeyValue
	config  Config
	timeout time.Duration
}

// NATSClientInterface defines the interface for NATS operations
// This allows for easy mocking and testing
type NATSClientInterface interface {
	Get(ctx context.Context, key string) (*TokenEntry, error)
	Create(ctx context.Context, key string, value []byte) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
	Delete(ctx context.Context, key string, revision uint64) error
	IsReady(ctx context.Context) error
	Close() error
}

// Get reads key; a missing or deleted key yields a nil entry and no error
func (c *NATSClient) Get(ctx context.Context, key string) (*TokenEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	entry, err := c.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("NATS KV get failed: %w", err)
	}

	return &TokenEntry{Value: entry.Value(), Revision: entry.Revision()}, nil
}

// Create writes key only if it does not exist yet
func (c *NATSClient) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	revision, err := c.kv.Create(ctx, key, value)
	if errors.Is(err, jetstream.ErrKeyExists) || isWrongLastSequence(err) {
		return 0, ErrStaleRevision
	}
	if err != nil {
		return 0, fmt.Errorf("NATS KV create failed: %w", err)
	}
	return revision, nil
}

// Update writes key only if its last revision is still revision
func (c *NATSClient) Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	next, err := c.kv.Update(ctx, key, value, revision)
	if isWrongLastSequence(err) {
		return 0, ErrStaleRevision
	}
	if err != nil {
		return 0, fmt.Errorf("NATS KV update failed: %w", err)
	}
	return next, nil
}

// Delete removes key only if its last revision is still revision
func (c *NATSClient) Delete(ctx context.Context, key string, revision uint64) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.kv.Delete(ctx, key, jetstream.LastRevision(revision))
	if isWrongLastSequence(err) {
		return ErrStaleRevision
	}
	if err != nil {
		return fmt.Errorf("NATS KV delete failed: %w", err)
	}
	return nil
}

// IsReady checks the connection and the bucket
func (c *NATSClient) IsReady(ctx context.Context) error {
	if c.conn == nil || c.conn.Status() != nats.CONNECTED {
		return errors.New("NATS connection is not established")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.kv.Status(ctx); err != nil {
		return fmt.Errorf("NATS KV bucket %s is not available: %w", c.config.Bucket, err)
	}
	return nil
}

// Close gracefully closes the NATS connection
func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

func isWrongLastSequence(err error) bool {
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

// NewClient creates a new NATS client with the given configuration
func NewClient(ctx context.Context, config Config) (*NATSClient, error) {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	slog.InfoContext(ctx, "creating NATS client",
		"url", config.URL,
		"timeout", config.Timeout,
		"bucket", config.Bucket,
	)

	// Configure NATS connection options
	opts := []nats.Option{
		nats.Name("globus-transfer-service"),
		nats.Timeout(config.Timeout),
		nats.MaxReconnects(config.MaxReconnect),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.WarnContext(ctx, "NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.InfoContext(ctx, "NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection closed")
		}),
	}

	// Establish connection
	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to NATS", "error", err)
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kvCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(kvCtx, jetstream.KeyValueConfig{
		Bucket:      config.Bucket,
		Description: "sealed Globus refresh tokens by session",
		History:     1,
		TTL:         config.TTL,
	})
	if err != nil {
		conn.Close()
		slog.ErrorContext(ctx, "failed to bind NATS KV bucket", "bucket", config.Bucket, "error", err)
		return nil, fmt.Errorf("failed to bind NATS KV bucket %s: %w", config.Bucket, err)
	}

	client := &NATSClient{
		conn:    conn,
		kv:      kv,
		config:  config,
		timeout: config.Timeout,
	}

	slog.InfoContext(ctx, "NATS client created successfully",
		"connected_url", conn.ConnectedUrl(),
		"status", conn.Status(),
	)

	return client, nil
}
