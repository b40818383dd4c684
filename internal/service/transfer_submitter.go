// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/domain/port"
	"github.com/esgf/globus-transfer-service/pkg/constants"
	"github.com/esgf/globus-transfer-service/pkg/metrics"
)

// TransferSubmitter batches resolved files by source endpoint and submits
// one transfer task per source endpoint.
type TransferSubmitter struct {
	transferBackend port.TransferBackend
	metrics         *metrics.Metrics
	now             func() time.Time
}

// NormalizeEndpointID decodes the "%23" escape sometimes left in endpoint
// ids of the form "owner#name".
func NormalizeEndpointID(endpointID string) string {
	return strings.ReplaceAll(endpointID, "%23", "#")
}

// Submit consumes locations, then submits the tasks sequentially. A failed
// task is reported in the outcome and never stops the remaining ones. An
// error from locations aborts before anything is submitted.
func (s *TransferSubmitter) Submit(
	ctx context.Context,
	locations iter.Seq2[model.FileLocation, error],
	credential model.TransferCredential,
	targetEndpointID string,
	targetDirectory string,
) (*model.SubmissionOutcome, error) {

	var batch model.TransferBatch
	for location, err := range locations {
		if err != nil {
			return nil, err
		}
		batch.Add(location)
	}

	targetEndpointID = NormalizeEndpointID(targetEndpointID)
	deadline := s.now().Add(constants.TransferDeadlineWindow)

	slog.DebugContext(ctx, "submitting transfer batch",
		"files", batch.Len(),
		"source_endpoints", len(batch.Endpoints()),
		"target_endpoint", targetEndpointID,
	)

	outcome := model.NewSubmissionOutcome()
	for _, sourceEndpointID := range batch.Endpoints() {
		task := buildTask(sourceEndpointID, batch.Paths(sourceEndpointID), targetEndpointID, targetDirectory, deadline)

		receipt, err := s.transferBackend.SubmitTransfer(ctx, credential, task)
		if err != nil {
			slog.ErrorContext(ctx, "transfer task submission failed",
				"source_endpoint", sourceEndpointID,
				"error", err,
			)
			s.metrics.TaskSubmitted(metrics.ResultFailed)
			outcome.Failures = append(outcome.Failures, fmt.Sprintf("%s: %v", sourceEndpointID, err))
			continue
		}

		slog.InfoContext(ctx, "transfer task submitted",
			"source_endpoint", sourceEndpointID,
			"task_id", receipt.TaskID,
			"items", len(task.Items),
		)
		s.metrics.TaskSubmitted(metrics.ResultSubmitted)
		outcome.Successes = append(outcome.Successes, *receipt)
	}

	outcome.Settle()
	return outcome, nil
}

func buildTask(sourceEndpointID string, paths []string, targetEndpointID, targetDirectory string, deadline time.Time) model.TransferTask {
	task := model.TransferTask{
		SourceEndpointID:      sourceEndpointID,
		DestinationEndpointID: targetEndpointID,
		Deadline:              deadline,
		Label:                 fmt.Sprintf("ESGF transfer of %d files", len(paths)),
		Items:                 make([]model.TransferItem, 0, len(paths)),
	}
	for _, sourcePath := range paths {
		task.Items = append(task.Items, model.TransferItem{
			SourcePath:      sourcePath,
			DestinationPath: path.Join(targetDirectory, path.Base(sourcePath)),
		})
	}
	return task
}

// NewTransferSubmitter creates a new TransferSubmitter instance
func NewTransferSubmitter(transferBackend port.TransferBackend, m *metrics.Metrics) *TransferSubmitter {
	return &TransferSubmitter{
		transferBackend: transferBackend,
		metrics:         m,
		now:             time.Now,
	}
}
