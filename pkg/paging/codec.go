// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package paging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/esgf/globus-transfer-service/pkg/seal"
)

// DecodePageToken opens a sealed page token and returns the search_after
// value it carries as normalized JSON.
func DecodePageToken(ctx context.Context, encoded string, secretKey *[32]byte) (string, error) {

	slog.DebugContext(ctx, "decoding page token",
		"encoded_token", encoded,
	)

	decrypted, err := seal.Open(encoded, secretKey)
	if err != nil {
		return "", errors.NewValidation("invalid page token", err)
	}

	if !json.Valid(decrypted) {
		return "", errors.NewValidation("page token does not carry a JSON value")
	}

	// JSON re-marshal to normalize structure.
	searchAfterData, err := json.Marshal(json.RawMessage(decrypted))
	if err != nil {
		return "", errors.NewValidation("failed to marshal search_after data", err)
	}

	return string(searchAfterData), nil
}

// EncodePageToken marshals the sort values of the last hit of a page and
// seals them into an opaque token.
func EncodePageToken(searchAfter any, secretKey *[32]byte) (string, error) {
	encodedSearchAfter, err := json.Marshal(searchAfter)
	if err != nil {
		return "", errors.NewUnexpected("failed to marshal search_after data", err)
	}

	return seal.Seal(encodedSearchAfter, secretKey)
}
