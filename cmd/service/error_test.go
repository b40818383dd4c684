// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedName   string
	}{
		{
			name:           "nil error",
			err:            nil,
			expectedStatus: http.StatusInternalServerError,
			expectedName:   "Internal Server Error",
		},
		{
			name:           "validation",
			err:            errors.NewValidation("endpointId and path are required"),
			expectedStatus: http.StatusBadRequest,
			expectedName:   "Bad Request",
		},
		{
			name:           "unauthorized",
			err:            errors.NewUnauthorized("missing bearer token"),
			expectedStatus: http.StatusUnauthorized,
			expectedName:   "Unauthorized",
		},
		{
			name:           "credential rejected",
			err:            errors.NewCredentialRejected("refresh token revoked"),
			expectedStatus: http.StatusUnauthorized,
			expectedName:   "Unauthorized",
		},
		{
			name:           "not found",
			err:            errors.NewNotFound("no such record"),
			expectedStatus: http.StatusNotFound,
			expectedName:   "Not Found",
		},
		{
			name:           "search backend",
			err:            errors.NewSearchBackend("index unreachable"),
			expectedStatus: http.StatusBadGateway,
			expectedName:   "Bad Gateway",
		},
		{
			name:           "resolution",
			err:            errors.NewResolution([]string{"https://example.org/file.nc|application/netcdf|HTTPServer"}),
			expectedStatus: http.StatusBadGateway,
			expectedName:   "Bad Gateway",
		},
		{
			name:           "task submission",
			err:            errors.NewTaskSubmission("source", "refused"),
			expectedStatus: http.StatusBadGateway,
			expectedName:   "Bad Gateway",
		},
		{
			name:           "service unavailable",
			err:            errors.NewServiceUnavailable("token store unreachable"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedName:   "Service Unavailable",
		},
		{
			name:           "wrapped validation",
			err:            fmt.Errorf("decoding: %w", errors.NewValidation("invalid page token")),
			expectedStatus: http.StatusBadRequest,
			expectedName:   "Bad Request",
		},
		{
			name:           "unexpected",
			err:            errors.NewUnexpected("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedName:   "Internal Server Error",
		},
		{
			name:           "already wrapped",
			err:            newHTTPError(http.StatusConflict, "conflict"),
			expectedStatus: http.StatusConflict,
			expectedName:   "Conflict",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			httpErr := wrapError(context.Background(), tc.err)
			require.NotNil(t, httpErr)
			assert.Equal(t, tc.expectedStatus, httpErr.Status)
			assert.Equal(t, tc.expectedName, httpErr.Name)
			assert.NotEmpty(t, httpErr.Message)
		})
	}
}
