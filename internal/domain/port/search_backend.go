// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"
	"net/url"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
)

// SearchBackend defines the behavior of the metadata search API
// This abstraction allows different search implementations (ESGF index nodes, mocks)
// without the domain layer knowing about specific implementations
type SearchBackend interface {
	// SearchFiles issues one search request with the given query parameters
	SearchFiles(ctx context.Context, params url.Values) ([]model.SearchResultDocument, error)

	// IsReady checks if the search service is ready
	IsReady(ctx context.Context) error
}
