// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"net/http"
	"time"
)

// TransferRequest is the inbound transfer orchestration request
type TransferRequest struct {
	AccessToken     string
	RefreshToken    string
	AuthCode        string
	AuthRedirectURL string
	AuthState       string
	// EndpointID is the target endpoint
	EndpointID string
	// Path is the target directory on EndpointID
	Path string
	// Filters are the search facets, already normalized
	Filters map[string][]string
}

// TransferBatch groups file paths by source endpoint. Endpoints keep their
// first discovery order and paths keep their insertion order.
type TransferBatch struct {
	order []string
	paths map[string][]string
	size  int
}

// Add appends the location to the group of its source endpoint.
func (b *TransferBatch) Add(location FileLocation) {
	if b.paths == nil {
		b.paths = make(map[string][]string)
	}
	if _, ok := b.paths[location.SourceEndpointID]; !ok {
		b.order = append(b.order, location.SourceEndpointID)
	}
	b.paths[location.SourceEndpointID] = append(b.paths[location.SourceEndpointID], location.SourcePath)
	b.size++
}

// Endpoints returns the source endpoints in discovery order.
func (b *TransferBatch) Endpoints() []string {
	return b.order
}

// Paths returns the paths grouped under endpointID.
func (b *TransferBatch) Paths(endpointID string) []string {
	return b.paths[endpointID]
}

// Len returns the number of files in the batch.
func (b *TransferBatch) Len() int {
	return b.size
}

// TransferItem is one file of a transfer task
type TransferItem struct {
	SourcePath      string
	DestinationPath string
}

// TransferTask is one submission to the transfer backend, always scoped to a
// single source endpoint.
type TransferTask struct {
	SourceEndpointID      string
	DestinationEndpointID string
	Deadline              time.Time
	Label                 string
	Items                 []TransferItem
}

// TransferReceipt is returned by the transfer backend for an accepted task
type TransferReceipt struct {
	TaskID           string `json:"task_id"`
	SubmissionID     string `json:"submission_id"`
	SourceEndpointID string `json:"source_endpoint"`
	Code             string `json:"code,omitempty"`
	Message          string `json:"message,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

// SubmissionOutcome is the public result of one orchestration call
type SubmissionOutcome struct {
	HTTPStatus       int               `json:"status"`
	Successes        []TransferReceipt `json:"successes"`
	Failures         []string          `json:"failures"`
	AuthorizationURL string            `json:"authorizationUrl,omitempty"`
}

// NewSubmissionOutcome returns an outcome in its initial multi-status state.
func NewSubmissionOutcome() *SubmissionOutcome {
	return &SubmissionOutcome{
		HTTPStatus: http.StatusMultiStatus,
		Successes:  []TransferReceipt{},
		Failures:   []string{},
	}
}

// Settle promotes the outcome to 200 when no task failed.
func (o *SubmissionOutcome) Settle() {
	if len(o.Failures) == 0 {
		o.HTTPStatus = http.StatusOK
	}
}
