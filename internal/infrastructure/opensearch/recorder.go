// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"text/template"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/domain/port"
	"github.com/esgf/globus-transfer-service/pkg/constants"
	"github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/google/uuid"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

var queryTransfersTemplate = template.Must(
	template.New("queryTransfers").
		Funcs(template.FuncMap{
			"quote": strconv.Quote,
		}).
		Parse(queryTransfersSource))

// OpenSearchRecorder implements the TransferRecorder interface for OpenSearch
type OpenSearchRecorder struct {
	client OpenSearchClientRetriever
	index  string
}

// OpenSearchClientRetriever defines the interface for OpenSearch operations
// This allows for easy mocking and testing
type OpenSearchClientRetriever interface {
	Search(ctx context.Context, index string, query []byte, pageSize int) (*SearchResponse, error)
	Index(ctx context.Context, index, documentID string, document []byte) error
	EnsureIndex(ctx context.Context, index string, body []byte) error
	IsReady(ctx context.Context) error
}

// Record implements the TransferRecorder interface
func (os *OpenSearchRecorder) Record(ctx context.Context, record model.TransferRecord) error {
	document, err := json.Marshal(record)
	if err != nil {
		return errors.NewUnexpected("failed to marshal transfer record", err)
	}

	if err := os.client.Index(ctx, os.index, uuid.NewString(), document); err != nil {
		return errors.NewServiceUnavailable("failed to record transfer", err)
	}

	slog.DebugContext(ctx, "transfer recorded",
		"target_endpoint", record.TargetEndpoint,
		"tasks", len(record.TaskIDs),
	)
	return nil
}

// ListTransfers implements the TransferRecorder interface
func (os *OpenSearchRecorder) ListTransfers(ctx context.Context, criteria model.HistoryCriteria) (*model.TransferHistory, error) {
	if criteria.PageSize <= 0 {
		criteria.PageSize = constants.DefaultPageSize
	}

	query, err := os.Render(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to render query: %w", err)
	}

	response, err := os.client.Search(ctx, os.index, query, criteria.PageSize)
	if err != nil {
		return nil, errors.NewServiceUnavailable("opensearch search failed", err)
	}

	history := os.convertResponse(ctx, response)

	slog.DebugContext(ctx, "opensearch search completed",
		"results_count", len(history.Records),
	)
	return history, nil
}

// Render generates the OpenSearch query for the history criteria
func (os *OpenSearchRecorder) Render(ctx context.Context, criteria model.HistoryCriteria) ([]byte, error) {
	var buf bytes.Buffer
	if err := queryTransfersTemplate.Execute(&buf, historyQuery{
		Principal:   criteria.Principal,
		PageSize:    criteria.PageSize,
		SearchAfter: criteria.SearchAfter,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to render query template", "error", err)
		return nil, err
	}

	if !json.Valid(buf.Bytes()) {
		slog.ErrorContext(ctx, "rendered query is not valid JSON", "query", buf.String())
		return nil, fmt.Errorf("rendered query is not valid JSON")
	}
	return buf.Bytes(), nil
}

// convertResponse converts OpenSearch response to domain objects
func (os *OpenSearchRecorder) convertResponse(ctx context.Context, response *SearchResponse) *model.TransferHistory {
	history := &model.TransferHistory{
		Records:   make([]model.TransferRecord, 0, len(response.Hits.Hits)),
		PageToken: response.PageToken,
	}

	for _, hit := range response.Hits.Hits {
		var record model.TransferRecord
		if err := json.Unmarshal(hit.Source, &record); err != nil {
			// Log error but continue processing other hits
			slog.ErrorContext(ctx, "failed to convert hit", "hit_id", hit.ID, "error", err)
			continue
		}
		history.Records = append(history.Records, record)
	}

	return history
}

// EnsureIndex creates the history index with its mapping unless it exists
func (os *OpenSearchRecorder) EnsureIndex(ctx context.Context) error {
	if err := os.client.EnsureIndex(ctx, os.index, []byte(transfersIndexMapping)); err != nil {
		return errors.NewServiceUnavailable("failed to prepare transfer history index", err)
	}
	return nil
}

// IsReady implements the TransferRecorder interface
func (os *OpenSearchRecorder) IsReady(ctx context.Context) error {
	if err := os.client.IsReady(ctx); err != nil {
		return errors.NewServiceUnavailable("transfer history store is not ready", err)
	}
	return nil
}

// NewRecorder returns a new OpenSearchRecorder implementation
func NewRecorder(ctx context.Context, config Config) (port.TransferRecorder, error) {

	if config.URL == "" {
		slog.ErrorContext(ctx, "opensearch URL is required")
		return nil, fmt.Errorf("opensearch URL is required")
	}
	if config.Index == "" {
		slog.ErrorContext(ctx, "opensearch index is required")
		return nil, fmt.Errorf("opensearch index is required")
	}

	opensearchClient, errOpensearchClient := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: []string{config.URL},
			Transport: &http.Transport{
				MaxIdleConnsPerHost:   10,
				ResponseHeaderTimeout: 5 * time.Second,
				DialContext:           (&net.Dialer{Timeout: 3 * time.Second}).DialContext,
			},
		},
	})
	if errOpensearchClient != nil {
		slog.ErrorContext(ctx, "failed to create OpenSearch client", "error", errOpensearchClient)
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", errOpensearchClient)
	}

	recorder := &OpenSearchRecorder{
		client: &httpClient{
			client: opensearchClient,
		},
		index: config.Index,
	}
	if err := recorder.EnsureIndex(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to prepare transfer history index", "error", err)
		return nil, err
	}
	return recorder, nil
}
