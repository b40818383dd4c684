// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"
	"log/slog"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
)

// Authenticator defines the interface for authentication operations
type Authenticator interface {
	// ParsePrincipal parses and validates a JWT token, returning the principal
	ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (model.Principal, error)
}

// AuthorizationServer is the OAuth2 authorization server issuing transfer credentials
type AuthorizationServer interface {
	// AuthorizationURL builds the URL a user must visit to grant scopes
	AuthorizationURL(state string, scopes []string) string

	// ExchangeCode redeems an authorization code for a refreshable credential
	ExchangeCode(ctx context.Context, code, redirectURL string) (*model.TransferCredential, error)

	// RefreshCredential redeems a refresh token. An explicit refusal is
	// reported as errors.CredentialRejected, anything else is transient.
	RefreshCredential(ctx context.Context, refreshToken string) (*model.TransferCredential, error)

	// IsReady checks if the authorization server accepts the service client
	IsReady(ctx context.Context) error
}
