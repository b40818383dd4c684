// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
)

// MockTransferRecorder keeps transfer records in memory
type MockTransferRecorder struct {
	mu          sync.Mutex
	records     []model.TransferRecord
	RecordError error
}

// NewMockTransferRecorder creates an empty recorder
func NewMockTransferRecorder() *MockTransferRecorder {
	return &MockTransferRecorder{}
}

// Record implements the TransferRecorder interface
func (m *MockTransferRecorder) Record(ctx context.Context, record model.TransferRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RecordError != nil {
		return m.RecordError
	}
	m.records = append(m.records, record)
	return nil
}

// ListTransfers returns every record of the principal, newest first, without paging
func (m *MockTransferRecorder) ListTransfers(ctx context.Context, criteria model.HistoryCriteria) (*model.TransferHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := &model.TransferHistory{Records: []model.TransferRecord{}}
	for _, record := range slices.Backward(m.records) {
		if record.Principal == criteria.Principal {
			history.Records = append(history.Records, record)
		}
	}
	return history, nil
}

// IsReady implements the TransferRecorder interface
func (m *MockTransferRecorder) IsReady(ctx context.Context) error {
	return nil
}

// Records returns every stored record
func (m *MockTransferRecorder) Records() []model.TransferRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.TransferRecord(nil), m.records...)
}
