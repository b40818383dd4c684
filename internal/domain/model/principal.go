// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

// Principal is the authenticated caller of the service
type Principal struct {
	// Subject is the principal claim of the bearer token
	Subject string
	// SessionKey scopes stored credentials; the token session id when
	// present, the subject otherwise
	SessionKey string
}
