// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
)

// TransferRecorder keeps the history of submitted transfers
type TransferRecorder interface {
	// Record stores one transfer record
	Record(ctx context.Context, record model.TransferRecord) error

	// ListTransfers returns a page of records of one principal, newest first
	ListTransfers(ctx context.Context, criteria model.HistoryCriteria) (*model.TransferHistory, error)

	// IsReady checks if the history store is ready
	IsReady(ctx context.Context) error
}
