// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/domain/port"
	"github.com/esgf/globus-transfer-service/pkg/constants"
	pkgerrors "github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/esgf/globus-transfer-service/pkg/metrics"
)

// TransferOrchestrator drives one transfer request through
// resolve, credential, batch and submit.
type TransferOrchestrator struct {
	resolver  *FileResolver
	broker    *CredentialBroker
	submitter *TransferSubmitter
	recorder  port.TransferRecorder
	metrics   *metrics.Metrics
}

// Transfer runs the orchestration. Needing authorization is not an error:
// the outcome then carries the authorization URL and a 207 status.
// Resolution failures are returned as errors.Resolution or
// errors.SearchBackend.
func (o *TransferOrchestrator) Transfer(ctx context.Context, req model.TransferRequest) (*model.SubmissionOutcome, error) {

	slog.DebugContext(ctx, "starting transfer orchestration",
		"endpoint_id", req.EndpointID,
		"path", req.Path,
		"filters", len(req.Filters),
	)

	if req.EndpointID == "" || req.Path == "" {
		return nil, pkgerrors.NewValidation("endpointId and path are required")
	}

	params, err := BuildSearchParams(req.Filters)
	if err != nil {
		slog.ErrorContext(ctx, "invalid search filters", "error", err)
		return nil, err
	}

	req.EndpointID = NormalizeEndpointID(req.EndpointID)

	// nothing is searched until the submitter ranges over the locations
	locations := o.resolver.Resolve(ctx, params)

	credential := o.broker.GetTransferCredential(ctx, req)
	if !credential.Usable() {
		outcome := model.NewSubmissionOutcome()
		outcome.AuthorizationURL = credential.AuthorizationURL
		return outcome, nil
	}

	outcome, err := o.submitter.Submit(ctx, locations, *credential.Credential, req.EndpointID, req.Path)
	if err != nil {
		var resolutionErr pkgerrors.Resolution
		if errors.As(err, &resolutionErr) {
			o.metrics.ResolutionFailed()
		}
		slog.ErrorContext(ctx, "transfer locations could not be resolved", "error", err)
		return nil, err
	}

	o.record(ctx, req, outcome)

	slog.InfoContext(ctx, "transfer orchestration completed",
		"status", outcome.HTTPStatus,
		"successes", len(outcome.Successes),
		"failures", len(outcome.Failures),
	)
	return outcome, nil
}

// record stores the outcome in the transfer history; failures are only logged
func (o *TransferOrchestrator) record(ctx context.Context, req model.TransferRequest, outcome *model.SubmissionOutcome) {
	if o.recorder == nil {
		return
	}
	principal, _ := ctx.Value(constants.PrincipalContextID).(model.Principal)

	record := model.TransferRecord{
		Principal:      principal.Subject,
		TargetEndpoint: req.EndpointID,
		TargetPath:     req.Path,
		TaskIDs:        make([]string, 0, len(outcome.Successes)),
		Failures:       outcome.Failures,
		Status:         outcome.HTTPStatus,
		CreatedAt:      o.submitter.now().UTC(),
	}
	for _, receipt := range outcome.Successes {
		record.TaskIDs = append(record.TaskIDs, receipt.TaskID)
	}

	if err := o.recorder.Record(ctx, record); err != nil {
		slog.ErrorContext(ctx, "failed to record transfer", "error", err)
	}
}

// IsReady checks every collaborator the orchestration depends on
func (o *TransferOrchestrator) IsReady(ctx context.Context) error {
	if err := o.resolver.IsReady(ctx); err != nil {
		return err
	}
	return o.broker.IsReady(ctx)
}

// NewTransferOrchestrator creates a new TransferOrchestrator instance.
// recorder may be nil to disable the transfer history.
func NewTransferOrchestrator(
	resolver *FileResolver,
	broker *CredentialBroker,
	submitter *TransferSubmitter,
	recorder port.TransferRecorder,
	m *metrics.Metrics,
) *TransferOrchestrator {
	return &TransferOrchestrator{
		resolver:  resolver,
		broker:    broker,
		submitter: submitter,
		recorder:  recorder,
		metrics:   m,
	}
}
