// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"time"
)

// Config represents NATS configuration
type Config struct {
	// URL is the NATS server URL
	URL string `json:"url"`
	// Timeout is the connection and request timeout duration
	Timeout time.Duration `json:"timeout"`
	// MaxReconnect is the maximum number of reconnection attempts
	MaxReconnect int `json:"max_reconnect"`
	// ReconnectWait is the time to wait between reconnection attempts
	ReconnectWait time.Duration `json:"reconnect_wait"`
	// Bucket is the JetStream key-value bucket holding session tokens
	Bucket string `json:"bucket"`
	// TTL expires idle session tokens; zero keeps them forever
	TTL time.Duration `json:"ttl"`
}

// TokenEntry is a raw value read from the key-value bucket
type TokenEntry struct {
	Value    []byte
	Revision uint64
}
