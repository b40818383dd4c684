// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

type requestIDHeaderType string

// RequestIDHeader is the header name for the request ID
const RequestIDHeader requestIDHeaderType = "X-REQUEST-ID"

type contextID int

const (
	// PrincipalContextID is the context key holding the authenticated model.Principal
	PrincipalContextID contextID = iota
)

const (
	// PrincipalAttribute is the log attribute name for the authenticated principal
	PrincipalAttribute = "principal"
)
