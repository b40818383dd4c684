// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
)

// Service is the transfer service exposed over HTTP
type Service interface {
	// JWTAuth authenticates the bearer token and returns a context carrying
	// the principal.
	JWTAuth(ctx context.Context, token string) (context.Context, error)
	// Transfer resolves the search filters and submits one transfer task per
	// source endpoint.
	Transfer(ctx context.Context, p *TransferPayload) (*model.SubmissionOutcome, error)
	// ListTransfers returns the caller's transfer history.
	ListTransfers(ctx context.Context, p *ListTransfersPayload) (*model.TransferHistory, error)
	// Readyz checks if the service is able to take inbound requests.
	Readyz(ctx context.Context) ([]byte, error)
	// Livez checks if the service is alive.
	Livez(ctx context.Context) ([]byte, error)
}

// TransferPayload is the payload of the transfer method
type TransferPayload struct {
	// BearerToken is the caller's JWT
	BearerToken string
	// Body is the decoded JSON object: credentials, target and search filters
	Body map[string]any
}

// ListTransfersPayload is the payload of the list-transfers method
type ListTransfersPayload struct {
	// BearerToken is the caller's JWT
	BearerToken string
	// PageToken is the opaque token of the next page
	PageToken *string
}
