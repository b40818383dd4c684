// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package esgf

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
)

// FileSearcher implements the port.SearchBackend interface using the ESGF search API
type FileSearcher struct {
	client *Client
}

// SearchFiles implements the SearchBackend interface
func (s *FileSearcher) SearchFiles(ctx context.Context, params url.Values) ([]model.SearchResultDocument, error) {
	slog.DebugContext(ctx, "searching files via ESGF search API",
		"params", params.Encode(),
	)

	response, err := s.client.Search(ctx, params)
	if err != nil {
		slog.ErrorContext(ctx, "error searching files", "error", err)
		return nil, err
	}

	docs := *response.Response.Docs
	slog.DebugContext(ctx, "file search completed",
		"num_found", response.Response.NumFound,
		"returned", len(docs),
	)
	if response.Response.NumFound > len(docs) {
		slog.WarnContext(ctx, "search matched more files than one page holds, only the first page is transferred",
			"num_found", response.Response.NumFound,
			"returned", len(docs),
		)
	}

	return docs, nil
}

// IsReady checks if the ESGF search API is ready to serve requests
func (s *FileSearcher) IsReady(ctx context.Context) error {
	return s.client.IsReady(ctx)
}

// NewFileSearcher creates a new ESGF based file searcher
func NewFileSearcher(ctx context.Context, config Config) (*FileSearcher, error) {
	if config.SearchURL == "" {
		return nil, fmt.Errorf("ESGF search URL is required")
	}
	if _, err := url.Parse(config.SearchURL); err != nil {
		return nil, fmt.Errorf("invalid ESGF search URL: %w", err)
	}

	slog.InfoContext(ctx, "ESGF file searcher initialized",
		"search_url", config.SearchURL,
	)

	return &FileSearcher{
		client: NewClient(config),
	}, nil
}
