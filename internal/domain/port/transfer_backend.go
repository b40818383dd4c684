// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
)

// TransferBackend is the remote file transfer service
type TransferBackend interface {
	// ProbeEndpoint lists path on endpointID to find out whether more
	// consent is needed. It never returns an error; failures are tagged.
	ProbeEndpoint(ctx context.Context, credential model.TransferCredential, endpointID, path string) model.ProbeOutcome

	// SubmitTransfer submits one transfer task
	SubmitTransfer(ctx context.Context, credential model.TransferCredential, task model.TransferTask) (*model.TransferReceipt, error)
}
