// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package opensearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/esgf/globus-transfer-service/pkg/global"
	"github.com/esgf/globus-transfer-service/pkg/paging"
	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

const indexExistsError = "resource_already_exists_exception"

type httpClient struct {
	client *opensearchapi.Client
}

func (c *httpClient) Search(ctx context.Context, index string, query []byte, pageSize int) (*SearchResponse, error) {

	slog.DebugContext(ctx, "executing opensearch search",
		"index", index,
		"query", string(query),
	)

	searchRequest := opensearchapi.SearchReq{
		Indices: []string{index},
		Body:    bytes.NewReader(query),
		Params: opensearchapi.SearchParams{
			Source: true,
			SourceIncludes: []string{
				"principal",
				"target_endpoint",
				"target_path",
				"task_ids",
				"failures",
				"status",
				"created_at",
			},
		},
	}

	searchResponse, errSearchResponse := c.client.Search(ctx, &searchRequest)
	if errSearchResponse != nil {
		return nil, fmt.Errorf("failed to execute search: %w", errSearchResponse)
	}

	// Check for errors in the response
	if searchResponse.Errors {
		return nil, fmt.Errorf("opensearch search returned errors")
	}

	result := &SearchResponse{
		Hits: Hits{
			Total: Total{
				Value: searchResponse.Hits.Total.Value,
			},
			Hits: make([]Hit, len(searchResponse.Hits.Hits)),
		},
	}
	for i, hit := range searchResponse.Hits.Hits {
		result.Hits.Hits[i] = Hit{
			ID:     hit.ID,
			Source: hit.Source,
		}
	}

	// if the number of hits returned equals the page size, there may be more results.
	if pageSize > 0 && len(searchResponse.Hits.Hits) == pageSize {
		searchAfter := searchResponse.Hits.Hits[len(searchResponse.Hits.Hits)-1].Sort
		pageToken, errEncodePageToken := paging.EncodePageToken(searchAfter, global.SessionTokenSecret(ctx))
		if errEncodePageToken != nil {
			slog.ErrorContext(ctx, "failed to encode page token", "error", errEncodePageToken)
			return nil, errEncodePageToken
		}
		result.PageToken = &pageToken
		slog.DebugContext(ctx, "pagination token generated",
			"total_hits", searchResponse.Hits.Total.Value,
		)
	}

	return result, nil
}

func (c *httpClient) Index(ctx context.Context, index, documentID string, document []byte) error {
	slog.DebugContext(ctx, "indexing opensearch document",
		"index", index,
		"document_id", documentID,
	)

	_, err := c.client.Index(ctx, opensearchapi.IndexReq{
		Index:      index,
		DocumentID: documentID,
		Body:       bytes.NewReader(document),
	})
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	return nil
}

func (c *httpClient) IsReady(ctx context.Context) error {
	if _, err := c.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("opensearch ping failed: %w", err)
	}
	return nil
}

func (c *httpClient) EnsureIndex(ctx context.Context, index string, body []byte) error {
	_, err := c.client.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: index,
		Body:  bytes.NewReader(body),
	})
	if err == nil {
		slog.InfoContext(ctx, "opensearch index created", "index", index)
		return nil
	}

	var structErr *opensearch.StructError
	if errors.As(err, &structErr) && structErr.Err.Type == indexExistsError {
		slog.DebugContext(ctx, "opensearch index already exists", "index", index)
		return nil
	}
	return fmt.Errorf("failed to create index %s: %w", index, err)
}
