// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	usecase "github.com/esgf/globus-transfer-service/internal/service"
	"github.com/esgf/globus-transfer-service/pkg/constants"
	"github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/esgf/globus-transfer-service/pkg/global"
	"github.com/esgf/globus-transfer-service/pkg/paging"
)

// request body members that are not search filters
const (
	fieldAccessToken     = "accessToken"
	fieldRefreshToken    = "refreshToken"
	fieldAuthCode        = "authCode"
	fieldAuthRedirectURL = "authRedirectUrl"
	fieldAuthState       = "authState"
	fieldEndpointID      = "endpointId"
	fieldPath            = "path"
)

// payloadToTransferRequest splits the request body into the transfer request
// members and the normalized search filters
func payloadToTransferRequest(p *TransferPayload) (model.TransferRequest, error) {
	fields := map[string]*string{}
	req := model.TransferRequest{}
	fields[fieldAccessToken] = &req.AccessToken
	fields[fieldRefreshToken] = &req.RefreshToken
	fields[fieldAuthCode] = &req.AuthCode
	fields[fieldAuthRedirectURL] = &req.AuthRedirectURL
	fields[fieldAuthState] = &req.AuthState
	fields[fieldEndpointID] = &req.EndpointID
	fields[fieldPath] = &req.Path

	filters := make(map[string]any, len(p.Body))
	for name, value := range p.Body {
		target, known := fields[name]
		if !known {
			filters[name] = value
			continue
		}
		if value == nil {
			continue
		}
		s, ok := value.(string)
		if !ok {
			return model.TransferRequest{}, errors.NewValidation(fmt.Sprintf("%s must be a string", name))
		}
		*target = s
	}

	req.Filters = usecase.NormalizeFilters(filters)
	return req, nil
}

// payloadToHistoryCriteria converts the list payload, opening the page token
func payloadToHistoryCriteria(ctx context.Context, p *ListTransfersPayload) (model.HistoryCriteria, error) {
	criteria := model.HistoryCriteria{
		PageToken: p.PageToken,
		PageSize:  constants.DefaultPageSize,
	}

	if criteria.PageToken != nil && *criteria.PageToken != "" {
		pageToken, errPageToken := paging.DecodePageToken(ctx, *criteria.PageToken, global.SessionTokenSecret(ctx))
		if errPageToken != nil {
			slog.ErrorContext(ctx, "failed to decode page token", "error", errPageToken)
			return criteria, errPageToken
		}
		criteria.SearchAfter = &pageToken
		slog.DebugContext(ctx, "decoded page token",
			"decoded", pageToken,
		)
	}

	return criteria, nil
}

// errorToOutcome renders a failed transfer as a submission outcome
func errorToOutcome(httpErr *HTTPError) *model.SubmissionOutcome {
	return &model.SubmissionOutcome{
		HTTPStatus: httpErr.Status,
		Successes:  []model.TransferReceipt{},
		Failures:   []string{httpErr.Message},
	}
}

// bearerToken extracts the token of an Authorization header
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
