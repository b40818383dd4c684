// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package paging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/esgf/globus-transfer-service/pkg/seal"
	"github.com/stretchr/testify/assert"
)

func TestEncodePageToken(t *testing.T) {
	secretKey := [32]byte{}
	copy(secretKey[:], []byte("12345678901234567890123456789012"))

	tests := []struct {
		name          string
		searchAfter   any
		expectedError bool
	}{
		{
			name:        "encode sort values of a history hit",
			searchAfter: []any{"2026-01-02T03:04:05Z", "record-1"},
		},
		{
			name:        "encode nil",
			searchAfter: nil,
		},
		{
			name:          "encode channel (should fail)",
			searchAfter:   make(chan int),
			expectedError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token, err := EncodePageToken(tc.searchAfter, &secretKey)

			if tc.expectedError {
				assert.Error(t, err)
				assert.IsType(t, errors.Unexpected{}, err)
				assert.Empty(t, token)
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.NotContains(t, token, "=")
			assert.NotContains(t, token, "+")
			assert.NotContains(t, token, "/")
		})
	}
}

func TestDecodePageToken(t *testing.T) {
	secretKey := [32]byte{}
	copy(secretKey[:], []byte("12345678901234567890123456789012"))

	ctx := context.Background()

	tests := []struct {
		name            string
		setupToken      func() string
		expectedError   bool
		expectedContent string
	}{
		{
			name: "decode sort values",
			setupToken: func() string {
				token, _ := EncodePageToken([]any{"2026-01-02T03:04:05Z", "record-1"}, &secretKey)
				return token
			},
			expectedContent: `["2026-01-02T03:04:05Z","record-1"]`,
		},
		{
			name: "decode nil token",
			setupToken: func() string {
				token, _ := EncodePageToken(nil, &secretKey)
				return token
			},
			expectedContent: "null",
		},
		{
			name: "decode invalid base64",
			setupToken: func() string {
				return "invalid-base64-!!!"
			},
			expectedError: true,
		},
		{
			name: "decode token with wrong key",
			setupToken: func() string {
				wrongKey := [32]byte{}
				copy(wrongKey[:], []byte("wrong-key-32-bytes-long-wrong-k"))
				token, _ := EncodePageToken("test", &wrongKey)
				return token
			},
			expectedError: true,
		},
		{
			name: "decode sealed value that is not JSON",
			setupToken: func() string {
				token, _ := seal.Seal([]byte("not json"), &secretKey)
				return token
			},
			expectedError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := DecodePageToken(ctx, tc.setupToken(), &secretKey)

			if tc.expectedError {
				assert.Error(t, err)
				assert.IsType(t, errors.Validation{}, err)
				assert.Empty(t, result)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedContent, result)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	secretKey := [32]byte{}
	copy(secretKey[:], []byte("12345678901234567890123456789012"))

	searchAfter := map[string]any{
		"created_at": "2026-01-02T03:04:05Z",
		"id":         "record-1",
	}

	token, err := EncodePageToken(searchAfter, &secretKey)
	assert.NoError(t, err)

	decoded, err := DecodePageToken(context.Background(), token, &secretKey)
	assert.NoError(t, err)

	originalJSON, err := json.Marshal(searchAfter)
	assert.NoError(t, err)
	assert.JSONEq(t, string(originalJSON), decoded)
}
