// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package errors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	cause := io.ErrUnexpectedEOF

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"validation", NewValidation("bad input"), "bad input"},
		{"validation with cause", NewValidation("bad input", cause), "bad input: unexpected EOF"},
		{"unauthorized", NewUnauthorized("no token"), "no token"},
		{"credential rejected", NewCredentialRejected("revoked", cause), "revoked: unexpected EOF"},
		{"service unavailable", NewServiceUnavailable("down"), "down"},
		{"search backend", NewSearchBackend("index unreachable", cause), "index unreachable: unexpected EOF"},
		{"resolution", NewResolution([]string{"a|b|c", "d|e|f"}), "no transfer url found in [a|b|c, d|e|f]"},
		{"task submission", NewTaskSubmission("src", "Code: Message"), "Code: Message"},
		{"consent required", NewConsentRequired("consent needed", []string{"scope"}), "consent needed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestErrorsUnwrapToCause(t *testing.T) {
	err := NewSearchBackend("file search failed", io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	var backendErr SearchBackend
	assert.True(t, errors.As(error(err), &backendErr))

	submission := NewTaskSubmission("415a6320-e49c-11e5-9798-22000b9da45e", "refused")
	var submissionErr TaskSubmission
	assert.True(t, errors.As(error(submission), &submissionErr))
	assert.Equal(t, "415a6320-e49c-11e5-9798-22000b9da45e", submissionErr.SourceEndpointID)
}
