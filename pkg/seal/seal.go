// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package seal encrypts small opaque values (refresh tokens, OAuth2 state,
// page tokens) with NaCl secretbox and encodes them as unpadded base64url.
package seal

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/esgf/globus-transfer-service/pkg/constants"
	"github.com/esgf/globus-transfer-service/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

// Seal encrypts plaintext with a random nonce and returns the encoded box.
func Seal(plaintext []byte, secretKey *[32]byte) (string, error) {
	var nonce [constants.NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", errors.NewUnexpected("failed to generate nonce", err)
	}

	encrypted := secretbox.Seal(nonce[:], plaintext, &nonce, secretKey)
	return base64.RawURLEncoding.EncodeToString(encrypted), nil
}

// Open reverses Seal. Any decoding or authentication failure is reported as
// a Validation error since the value always comes from outside the process.
func Open(encoded string, secretKey *[32]byte) ([]byte, error) {
	encrypted, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.NewValidation("invalid sealed value encoding", err)
	}

	if len(encrypted) < constants.NonceSize+secretbox.Overhead {
		return nil, errors.NewValidation(
			"invalid sealed value length",
			fmt.Errorf("expected at least %d bytes, got %d", constants.NonceSize+secretbox.Overhead, len(encrypted)),
		)
	}

	var nonce [constants.NonceSize]byte
	copy(nonce[:], encrypted[:constants.NonceSize])
	decrypted, ok := secretbox.Open(nil, encrypted[constants.NonceSize:], &nonce, secretKey)
	if !ok {
		return nil, errors.NewValidation("failed to open sealed value")
	}
	return decrypted, nil
}
