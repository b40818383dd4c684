// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/domain/port"
	usecase "github.com/esgf/globus-transfer-service/internal/service"
	"github.com/esgf/globus-transfer-service/pkg/constants"
	"github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/esgf/globus-transfer-service/pkg/log"
)

// transfer service implementation using clean architecture.
type transferSvcsrvc struct {
	auth         port.Authenticator
	orchestrator *usecase.TransferOrchestrator
	history      *usecase.TransferHistory
}

// JWTAuth implements the authorization logic for the "jwt" security scheme.
func (s *transferSvcsrvc) JWTAuth(ctx context.Context, token string) (context.Context, error) {
	if token == "" {
		return ctx, errors.NewUnauthorized("missing bearer token")
	}

	principal, err := s.auth.ParsePrincipal(ctx, token, slog.Default())
	if err != nil {
		return ctx, err
	}

	// Log the principal for debugging purposes in all logs for this request.
	ctx = log.AppendCtx(ctx, slog.String(constants.PrincipalAttribute, principal.Subject))

	// Return a new context containing the principal as a value.
	return context.WithValue(ctx, constants.PrincipalContextID, principal), nil
}

// Transfer resolves the filters of the payload and submits the transfer.
func (s *transferSvcsrvc) Transfer(ctx context.Context, p *TransferPayload) (*model.SubmissionOutcome, error) {

	req, err := payloadToTransferRequest(p)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "transferSvc.transfer",
		"endpoint_id", req.EndpointID,
		"path", req.Path,
		"with_refresh_token", req.RefreshToken != "",
		"with_auth_code", req.AuthCode != "",
	)

	return s.orchestrator.Transfer(ctx, req)
}

// ListTransfers lists the transfers recorded for the caller.
func (s *transferSvcsrvc) ListTransfers(ctx context.Context, p *ListTransfersPayload) (*model.TransferHistory, error) {

	criteria, err := payloadToHistoryCriteria(ctx, p)
	if err != nil {
		return nil, err
	}

	return s.history.ListTransfers(ctx, criteria)
}

// Check if the service is able to take inbound requests.
func (s *transferSvcsrvc) Readyz(ctx context.Context) ([]byte, error) {
	if err := s.orchestrator.IsReady(ctx); err != nil {
		slog.ErrorContext(ctx, "transferSvc.readyz failed", "error", err)
		return nil, err
	}

	if err := s.history.IsReady(ctx); err != nil {
		slog.ErrorContext(ctx, "transferSvc.readyz history failed", "error", err)
		return nil, err
	}

	return []byte("OK\n"), nil
}

// Check if the service is alive.
func (s *transferSvcsrvc) Livez(ctx context.Context) ([]byte, error) {
	// This always returns as long as the service is still running. As this
	// endpoint is expected to be used as a Kubernetes liveness check, this
	// service must likewise self-detect non-recoverable errors and
	// self-terminate.
	return []byte("OK\n"), nil
}

// NewTransferSvc returns the transfer service implementation.
func NewTransferSvc(auth port.Authenticator,
	orchestrator *usecase.TransferOrchestrator,
	history *usecase.TransferHistory,
) Service {
	return &transferSvcsrvc{
		auth:         auth,
		orchestrator: orchestrator,
		history:      history,
	}
}
