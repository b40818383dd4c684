// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	pkgerrors "github.com/esgf/globus-transfer-service/pkg/errors"
)

// HTTPError is a service error with the status it is rendered with
type HTTPError struct {
	Status  int    `json:"-"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return e.Message
}

func newHTTPError(status int, message string) *HTTPError {
	return &HTTPError{
		Status:  status,
		Name:    http.StatusText(status),
		Message: message,
	}
}

func wrapError(ctx context.Context, err error) *HTTPError {

	f := func(err error) *HTTPError {
		if err == nil {
			return newHTTPError(http.StatusInternalServerError, "unknown error")
		}

		var (
			httpErr            *HTTPError
			validation         pkgerrors.Validation
			unauthorized       pkgerrors.Unauthorized
			credentialRejected pkgerrors.CredentialRejected
			notFound           pkgerrors.NotFound
			searchBackend      pkgerrors.SearchBackend
			resolution         pkgerrors.Resolution
			taskSubmission     pkgerrors.TaskSubmission
			serviceUnavailable pkgerrors.ServiceUnavailable
		)
		switch {
		case errors.As(err, &httpErr):
			return httpErr
		case errors.As(err, &validation):
			return newHTTPError(http.StatusBadRequest, err.Error())
		case errors.As(err, &unauthorized), errors.As(err, &credentialRejected):
			return newHTTPError(http.StatusUnauthorized, err.Error())
		case errors.As(err, &notFound):
			return newHTTPError(http.StatusNotFound, err.Error())
		case errors.As(err, &searchBackend), errors.As(err, &resolution), errors.As(err, &taskSubmission):
			return newHTTPError(http.StatusBadGateway, err.Error())
		case errors.As(err, &serviceUnavailable):
			return newHTTPError(http.StatusServiceUnavailable, err.Error())
		default:
			return newHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	wrapped := f(err)
	if wrapped.Status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "error", err, "status", wrapped.Status)
	} else {
		slog.WarnContext(ctx, "request rejected", "error", err, "status", wrapped.Status)
	}
	return wrapped
}
