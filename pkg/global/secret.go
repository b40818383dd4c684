// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package global

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/crypto/hkdf"
)

// SessionTokenSecretName is the environment variable holding the sealing secret
const SessionTokenSecretName = "SESSION_TOKEN_SECRET"

// MinSessionTokenSecretLength is the shortest secret accepted
const MinSessionTokenSecretLength = 32

var sessionKeyInfo = []byte("globus-transfer-service sealing key")

var (
	sessionTokenSecret       [32]byte
	doOnceSessionTokenSecret sync.Once
)

// SessionTokenSecret retrieves the key used to seal refresh tokens, OAuth2
// state values and page tokens. The key is derived from SESSION_TOKEN_SECRET
// with HKDF-SHA256; the process exits when the secret is missing or shorter
// than MinSessionTokenSecretLength bytes.
func SessionTokenSecret(ctx context.Context) *[32]byte {

	doOnceSessionTokenSecret.Do(func() {
		key, err := deriveSessionKey(os.Getenv(SessionTokenSecretName))
		if err != nil {
			slog.ErrorContext(ctx, "invalid session token secret", "error", err)
			os.Exit(1)
		}
		sessionTokenSecret = *key
	})

	return &sessionTokenSecret
}

func deriveSessionKey(secret string) (*[32]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("%s environment variable is not set", SessionTokenSecretName)
	}
	if len(secret) < MinSessionTokenSecretLength {
		return nil, fmt.Errorf("%s must be at least %d bytes, got %d",
			SessionTokenSecretName, MinSessionTokenSecretLength, len(secret))
	}

	var key [32]byte
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, sessionKeyInfo), key[:]); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	return &key, nil
}
