// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package globus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/pkg/constants"
	pkgerrors "github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/esgf/globus-transfer-service/pkg/httpclient"
)

// TransferClient implements port.TransferBackend against the Globus Transfer API
type TransferClient struct {
	baseURL    string
	httpClient *httpclient.Client
}

// ProbeEndpoint lists path on the endpoint. A ConsentRequired answer carries
// the scopes to request; any other failure is inconclusive.
func (c *TransferClient) ProbeEndpoint(ctx context.Context, credential model.TransferCredential, endpointID, path string) model.ProbeOutcome {
	query := url.Values{}
	query.Set("path", path)
	lsURL := fmt.Sprintf("%s/operation/endpoint/%s/ls?%s", c.baseURL, url.PathEscape(endpointID), query.Encode())

	_, err := c.httpClient.Request(ctx, http.MethodGet, lsURL, nil, bearer(credential))
	if err == nil {
		return model.ProbeUsable()
	}

	apiErr, ok := decodeAPIError(err)
	if ok && apiErr.Code == constants.ConsentRequiredCode {
		slog.DebugContext(ctx, "endpoint requires consent",
			"endpoint_id", endpointID,
			"required_scopes", apiErr.scopes(),
		)
		return model.ProbeConsentRequired(apiErr.scopes())
	}
	return model.ProbeInconclusive(err)
}

// SubmitTransfer reserves a submission id and submits the task
func (c *TransferClient) SubmitTransfer(ctx context.Context, credential model.TransferCredential, task model.TransferTask) (*model.TransferReceipt, error) {
	headers := bearer(credential)

	resp, err := c.httpClient.Request(ctx, http.MethodGet, c.baseURL+"/submission_id", nil, headers)
	if err != nil {
		return nil, submissionError(task.SourceEndpointID, "submission id request failed", err)
	}
	var submission submissionIDResponse
	if err := json.Unmarshal(resp.Body, &submission); err != nil || submission.Value == "" {
		return nil, pkgerrors.NewTaskSubmission(task.SourceEndpointID, "submission id response is malformed", err)
	}

	document := transferDocument{
		DataType:            "transfer",
		SubmissionID:        submission.Value,
		SourceEndpoint:      task.SourceEndpointID,
		DestinationEndpoint: task.DestinationEndpointID,
		Deadline:            task.Deadline.UTC().Format(time.RFC3339),
		Label:               task.Label,
		Data:                make([]transferItem, 0, len(task.Items)),
	}
	for _, item := range task.Items {
		document.Data = append(document.Data, transferItem{
			DataType:        "transfer_item",
			SourcePath:      item.SourcePath,
			DestinationPath: item.DestinationPath,
		})
	}

	resp, err = c.httpClient.PostJSON(ctx, c.baseURL+"/transfer", document, headers)
	if err != nil {
		return nil, submissionError(task.SourceEndpointID, "transfer submission failed", err)
	}

	var result transferResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, pkgerrors.NewTaskSubmission(task.SourceEndpointID, "transfer response is not JSON", err)
	}

	slog.InfoContext(ctx, "transfer task submitted",
		"task_id", result.TaskID,
		"source_endpoint", task.SourceEndpointID,
		"destination_endpoint", task.DestinationEndpointID,
		"items", len(task.Items),
	)

	submissionID := result.SubmissionID
	if submissionID == "" {
		submissionID = submission.Value
	}
	return &model.TransferReceipt{
		TaskID:           result.TaskID,
		SubmissionID:     submissionID,
		SourceEndpointID: task.SourceEndpointID,
		Code:             result.Code,
		Message:          result.Message,
		RequestID:        result.RequestID,
	}, nil
}

func bearer(credential model.TransferCredential) map[string]string {
	return map[string]string{"Authorization": "Bearer " + credential.AccessToken}
}

// decodeAPIError extracts the Transfer API error document of a failed request
func decodeAPIError(err error) (apiError, bool) {
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		return apiError{}, false
	}
	var apiErr apiError
	if jsonErr := json.Unmarshal(statusErr.Body, &apiErr); jsonErr != nil || apiErr.Code == "" {
		return apiError{}, false
	}
	return apiErr, true
}

// submissionError names the Transfer API error code; a consent withdrawn
// after the readiness check also carries the scopes to request again.
func submissionError(sourceEndpointID, message string, err error) error {
	if apiErr, ok := decodeAPIError(err); ok {
		message = fmt.Sprintf("%s: %s", apiErr.Code, apiErr.Message)
		if apiErr.Code == constants.ConsentRequiredCode {
			return pkgerrors.NewTaskSubmission(sourceEndpointID, message,
				pkgerrors.NewConsentRequired(apiErr.Message, apiErr.scopes()), err)
		}
		return pkgerrors.NewTaskSubmission(sourceEndpointID, message, err)
	}
	return pkgerrors.NewTaskSubmission(sourceEndpointID, message, err)
}

// NewTransferClient creates a Globus Transfer API client from config
func NewTransferClient(config Config) (*TransferClient, error) {
	if config.TransferURL == "" {
		return nil, fmt.Errorf("missing required configuration: %s_TRANSFER_URL", envVarPrefix)
	}

	httpConfig := httpclient.DefaultConfig()
	httpConfig.Timeout = config.Timeout

	return &TransferClient{
		baseURL:    config.TransferURL,
		httpClient: httpclient.NewClient(httpConfig),
	}, nil
}
