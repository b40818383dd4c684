// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/domain/port"
	"github.com/esgf/globus-transfer-service/pkg/constants"
	"github.com/esgf/globus-transfer-service/pkg/errors"
)

// TransferHistory lists the transfers recorded for the calling principal
type TransferHistory struct {
	recorder port.TransferRecorder
}

// ListTransfers returns one page of the principal's transfer records
func (s *TransferHistory) ListTransfers(ctx context.Context, criteria model.HistoryCriteria) (*model.TransferHistory, error) {
	if s.recorder == nil {
		return nil, errors.NewServiceUnavailable("transfer history is not enabled")
	}

	// Grab the principal which was stored into the context by the security handler.
	principal, ok := ctx.Value(constants.PrincipalContextID).(model.Principal)
	if !ok || principal.Subject == "" {
		return nil, errors.NewUnauthorized("missing principal in context")
	}
	criteria.Principal = principal.Subject
	if criteria.PageSize <= 0 {
		criteria.PageSize = constants.DefaultPageSize
	}

	slog.DebugContext(ctx, "listing transfer history",
		"page_size", criteria.PageSize,
		"paged", criteria.SearchAfter != nil,
	)

	history, err := s.recorder.ListTransfers(ctx, criteria)
	if err != nil {
		slog.ErrorContext(ctx, "transfer history query failed", "error", err)
		return nil, err
	}

	slog.DebugContext(ctx, "transfer history listed",
		"records", len(history.Records),
	)
	return history, nil
}

// IsReady checks the history store when one is configured
func (s *TransferHistory) IsReady(ctx context.Context) error {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.IsReady(ctx)
}

// NewTransferHistory creates a new TransferHistory instance; recorder may be nil
func NewTransferHistory(recorder port.TransferRecorder) *TransferHistory {
	return &TransferHistory{
		recorder: recorder,
	}
}
