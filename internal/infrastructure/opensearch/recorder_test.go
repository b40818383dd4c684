// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package opensearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	pkgerrors "github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockOpenSearchClient is a mock implementation of OpenSearchClientRetriever
type MockOpenSearchClient struct {
	searchResponse *SearchResponse
	searchError    error
	indexError     error
	readyError     error
	lastQuery      []byte
	lastPageSize   int
	indexed        map[string][]byte
	ensureError    error
	mappings       map[string][]byte
}

func NewMockOpenSearchClient() *MockOpenSearchClient {
	return &MockOpenSearchClient{indexed: map[string][]byte{}, mappings: map[string][]byte{}}
}

func (m *MockOpenSearchClient) Search(ctx context.Context, index string, query []byte, pageSize int) (*SearchResponse, error) {
	m.lastQuery = query
	m.lastPageSize = pageSize
	if m.searchError != nil {
		return nil, m.searchError
	}
	return m.searchResponse, nil
}

func (m *MockOpenSearchClient) Index(ctx context.Context, index, documentID string, document []byte) error {
	if m.indexError != nil {
		return m.indexError
	}
	m.indexed[documentID] = document
	return nil
}

func (m *MockOpenSearchClient) EnsureIndex(ctx context.Context, index string, body []byte) error {
	if m.ensureError != nil {
		return m.ensureError
	}
	m.mappings[index] = body
	return nil
}

func (m *MockOpenSearchClient) IsReady(ctx context.Context) error {
	return m.readyError
}

func testRecord(principal string, createdAt time.Time) model.TransferRecord {
	return model.TransferRecord{
		Principal:      principal,
		TargetEndpoint: "c4d80096-7612-11e7-8b5e-22000b9923ef",
		TargetPath:     "/~/data",
		TaskIDs:        []string{"task-1"},
		Failures:       []string{},
		Status:         200,
		CreatedAt:      createdAt,
	}
}

func TestOpenSearchRecorderRecord(t *testing.T) {
	client := NewMockOpenSearchClient()
	recorder := &OpenSearchRecorder{client: client, index: "globus-transfers"}

	record := testRecord("user-1", time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC))
	require.NoError(t, recorder.Record(context.Background(), record))

	require.Len(t, client.indexed, 1)
	for _, document := range client.indexed {
		var stored map[string]any
		require.NoError(t, json.Unmarshal(document, &stored))
		assert.Equal(t, "user-1", stored["principal"])
		assert.Equal(t, "c4d80096-7612-11e7-8b5e-22000b9923ef", stored["target_endpoint"])
		assert.Equal(t, "2026-10-16T09:30:00Z", stored["created_at"])
	}

	client.indexError = errors.New("connection refused")
	err := recorder.Record(context.Background(), record)
	var unavailable pkgerrors.ServiceUnavailable
	assert.True(t, errors.As(err, &unavailable))
}

func TestOpenSearchRecorderRender(t *testing.T) {
	recorder := &OpenSearchRecorder{}
	searchAfter := `["1760607000000","abc"]`

	tests := []struct {
		name     string
		criteria model.HistoryCriteria
		validate func(t *testing.T, query map[string]any)
	}{
		{
			name:     "first page",
			criteria: model.HistoryCriteria{Principal: `user "quoted"`, PageSize: 50},
			validate: func(t *testing.T, query map[string]any) {
				assert.Equal(t, float64(50), query["size"])
				assert.NotContains(t, query, "search_after")

				filter := query["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
				term := filter[0].(map[string]any)["term"].(map[string]any)
				assert.Equal(t, `user "quoted"`, term["principal"])

				sort := query["sort"].([]any)
				assert.Equal(t, map[string]any{"created_at": map[string]any{"order": "desc"}}, sort[0])
			},
		},
		{
			name:     "next page",
			criteria: model.HistoryCriteria{Principal: "user-1", PageSize: 10, SearchAfter: &searchAfter},
			validate: func(t *testing.T, query map[string]any) {
				assert.Equal(t, []any{"1760607000000", "abc"}, query["search_after"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered, err := recorder.Render(context.Background(), tt.criteria)
			require.NoError(t, err)

			var query map[string]any
			require.NoError(t, json.Unmarshal(rendered, &query))
			tt.validate(t, query)
		})
	}
}

func TestOpenSearchRecorderListTransfers(t *testing.T) {
	newer, err := json.Marshal(testRecord("user-1", time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	older, err := json.Marshal(testRecord("user-1", time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	pageToken := "sealed-token"

	client := NewMockOpenSearchClient()
	client.searchResponse = &SearchResponse{
		Hits: Hits{
			Total: Total{Value: 3},
			Hits: []Hit{
				{ID: "1", Source: newer},
				{ID: "2", Source: json.RawMessage(`"not an object"`)},
				{ID: "3", Source: older},
			},
		},
		PageToken: &pageToken,
	}
	recorder := &OpenSearchRecorder{client: client, index: "globus-transfers"}

	history, err := recorder.ListTransfers(context.Background(), model.HistoryCriteria{Principal: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, 50, client.lastPageSize)
	require.Len(t, history.Records, 2)
	assert.True(t, history.Records[0].CreatedAt.After(history.Records[1].CreatedAt))
	assert.Equal(t, &pageToken, history.PageToken)

	client.searchError = errors.New("index_not_found_exception")
	_, err = recorder.ListTransfers(context.Background(), model.HistoryCriteria{Principal: "user-1"})
	var unavailable pkgerrors.ServiceUnavailable
	assert.True(t, errors.As(err, &unavailable))
}

func TestOpenSearchRecorderIsReady(t *testing.T) {
	client := NewMockOpenSearchClient()
	recorder := &OpenSearchRecorder{client: client}
	assert.NoError(t, recorder.IsReady(context.Background()))

	client.readyError = errors.New("no living connections")
	assert.Error(t, recorder.IsReady(context.Background()))
}

func TestNewRecorderValidatesConfig(t *testing.T) {
	_, err := NewRecorder(context.Background(), Config{Index: "globus-transfers"})
	assert.EqualError(t, err, "opensearch URL is required")

	_, err = NewRecorder(context.Background(), Config{URL: "http://localhost:9200"})
	assert.EqualError(t, err, "opensearch index is required")
}

func TestOpenSearchRecorderEnsureIndex(t *testing.T) {
	client := NewMockOpenSearchClient()
	recorder := &OpenSearchRecorder{client: client, index: "globus-transfers"}

	require.NoError(t, recorder.EnsureIndex(context.Background()))

	var mapping struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(client.mappings["globus-transfers"], &mapping))
	assert.Equal(t, "keyword", mapping.Mappings.Properties["principal"].Type)
	assert.Equal(t, "keyword", mapping.Mappings.Properties["target_endpoint"].Type)
	assert.Equal(t, "date", mapping.Mappings.Properties["created_at"].Type)

	client.ensureError = errors.New("cluster_block_exception")
	var unavailable pkgerrors.ServiceUnavailable
	assert.True(t, errors.As(recorder.EnsureIndex(context.Background()), &unavailable))
}

func TestNewRecorderCreatesIndex(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedError bool
	}{
		{
			name:   "index created",
			status: http.StatusOK,
			body:   `{"acknowledged":true,"shards_acknowledged":true,"index":"globus-transfers"}`,
		},
		{
			name:   "index already exists",
			status: http.StatusBadRequest,
			body:   `{"error":{"root_cause":[],"type":"resource_already_exists_exception","reason":"index [globus-transfers] already exists"},"status":400}`,
		},
		{
			name:          "cluster refuses",
			status:        http.StatusForbidden,
			body:          `{"error":{"root_cause":[],"type":"cluster_block_exception","reason":"blocked"},"status":403}`,
			expectedError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, "/globus-transfers", r.URL.Path)
				body, err := io.ReadAll(r.Body)
				assert.NoError(t, err)
				assert.Contains(t, string(body), `"principal":       {"type": "keyword"}`)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			recorder, err := NewRecorder(context.Background(), Config{URL: ts.URL, Index: "globus-transfers"})
			if tc.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, recorder)
		})
	}
}
