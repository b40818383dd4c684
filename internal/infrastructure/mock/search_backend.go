// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
)

// MockSearchBackend is a mock implementation of port.SearchBackend for testing
type MockSearchBackend struct {
	mu           sync.Mutex
	documents    []model.SearchResultDocument
	searchError  error
	isReadyError error
	calls        []url.Values
}

// NewMockSearchBackend creates a new mock search backend with some sample data
func NewMockSearchBackend() *MockSearchBackend {
	return &MockSearchBackend{
		documents: []model.SearchResultDocument{
			{
				DataNode: "esgf-data1.llnl.gov",
				URLs: []string{
					"https://esgf-data1.llnl.gov/thredds/fileServer/css03_data/CMIP6/CMIP/NCAR/CESM2/historical/r1i1p1f1/Amon/tas/gn/v20190308/tas_Amon_CESM2_historical_r1i1p1f1_gn_185001-201412.nc|application/netcdf|HTTPServer",
					"globus:415a6320-e49c-11e5-9798-22000b9da45e/css03_data/CMIP6/CMIP/NCAR/CESM2/historical/r1i1p1f1/Amon/tas/gn/v20190308/tas_Amon_CESM2_historical_r1i1p1f1_gn_185001-201412.nc|Globus|Globus",
				},
			},
			{
				DataNode: "esgf-data1.llnl.gov",
				URLs: []string{
					"globus:415a6320-e49c-11e5-9798-22000b9da45e/css03_data/CMIP6/CMIP/NCAR/CESM2/historical/r1i1p1f1/Amon/pr/gn/v20190308/pr_Amon_CESM2_historical_r1i1p1f1_gn_185001-201412.nc|Globus|Globus",
				},
			},
			{
				DataNode: "eagle.alcf.anl.gov",
				URLs: []string{
					"globus:8896f38e-68d1-4708-bce4-b1b3a27405b8/CMIP6/CMIP/E3SM-Project/E3SM-1-0/historical/r1i1p1f1/Amon/tas/gr/v20190913/tas_Amon_E3SM-1-0_historical_r1i1p1f1_gr_185001-201412.nc|Globus|Globus",
				},
			},
		},
	}
}

// SearchFiles returns the configured documents and records the request parameters
func (m *MockSearchBackend) SearchFiles(ctx context.Context, params url.Values) ([]model.SearchResultDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slog.DebugContext(ctx, "executing mock file search",
		"params", params.Encode(),
		"documents", len(m.documents),
	)

	m.calls = append(m.calls, params)
	if m.searchError != nil {
		return nil, m.searchError
	}

	documents := make([]model.SearchResultDocument, len(m.documents))
	copy(documents, m.documents)
	return documents, nil
}

// IsReady implements the SearchBackend interface
func (m *MockSearchBackend) IsReady(ctx context.Context) error {
	return m.isReadyError
}

// SetDocuments replaces the mock documents
func (m *MockSearchBackend) SetDocuments(documents ...model.SearchResultDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = documents
}

// SetSearchError makes every search fail with err
func (m *MockSearchBackend) SetSearchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchError = err
}

// SetIsReadyError sets the readiness result
func (m *MockSearchBackend) SetIsReadyError(err error) {
	m.isReadyError = err
}

// Calls returns the parameters of every search issued so far
func (m *MockSearchBackend) Calls() []url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]url.Values(nil), m.calls...)
}
