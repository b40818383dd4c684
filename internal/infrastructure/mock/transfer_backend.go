// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/pkg/errors"
)

// MockTransferBackend is a mock implementation of port.TransferBackend.
// Consent is required for an endpoint until the access token is listed in
// ConsentedTokens.
type MockTransferBackend struct {
	mu sync.Mutex

	// ConsentScopes maps a target endpoint to the scopes it requires
	ConsentScopes map[string][]string
	// ConsentedTokens are access tokens that already carry every consent
	ConsentedTokens map[string]bool
	// ProbeErrors maps a target endpoint to an inconclusive probe error
	ProbeErrors map[string]error
	// FailingSources maps a source endpoint to its submission error
	FailingSources map[string]error

	submitted []model.TransferTask
	probes    int
}

// NewMockTransferBackend creates a transfer backend accepting everything
func NewMockTransferBackend() *MockTransferBackend {
	return &MockTransferBackend{
		ConsentScopes:   map[string][]string{},
		ConsentedTokens: map[string]bool{},
		ProbeErrors:     map[string]error{},
		FailingSources:  map[string]error{},
	}
}

// ProbeEndpoint implements the TransferBackend interface
func (m *MockTransferBackend) ProbeEndpoint(ctx context.Context, credential model.TransferCredential, endpointID, path string) model.ProbeOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.probes++
	if err, ok := m.ProbeErrors[endpointID]; ok {
		return model.ProbeInconclusive(err)
	}
	if scopes, ok := m.ConsentScopes[endpointID]; ok && !m.ConsentedTokens[credential.AccessToken] {
		return model.ProbeConsentRequired(scopes)
	}
	return model.ProbeUsable()
}

// SubmitTransfer records the task and returns a receipt, or the configured error
func (m *MockTransferBackend) SubmitTransfer(ctx context.Context, credential model.TransferCredential, task model.TransferTask) (*model.TransferReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submitted = append(m.submitted, task)
	if err, ok := m.FailingSources[task.SourceEndpointID]; ok {
		return nil, errors.NewTaskSubmission(task.SourceEndpointID, "transfer submission refused", err)
	}

	slog.DebugContext(ctx, "mock transfer submitted",
		"source_endpoint", task.SourceEndpointID,
		"items", len(task.Items),
	)

	return &model.TransferReceipt{
		TaskID:           fmt.Sprintf("task-%d", len(m.submitted)),
		SubmissionID:     fmt.Sprintf("submission-%d", len(m.submitted)),
		SourceEndpointID: task.SourceEndpointID,
		Code:             "Accepted",
		Message:          "The transfer has been accepted and a task has been created and queued for execution",
	}, nil
}

// Submitted returns every task submitted so far
func (m *MockTransferBackend) Submitted() []model.TransferTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.TransferTask(nil), m.submitted...)
}

// Probes returns the number of probes issued so far
func (m *MockTransferBackend) Probes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probes
}
