// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package errors

import "errors"

// ConsentRequired signals that the principal must grant additional scopes
// before the target endpoint can be used. It is an expected condition.
type ConsentRequired struct {
	base
	Scopes []string
}

// Error returns the error message for ConsentRequired.
func (c ConsentRequired) Error() string {
	return c.error()
}

// NewConsentRequired creates a new ConsentRequired error carrying the required scopes.
func NewConsentRequired(message string, scopes []string) ConsentRequired {
	return ConsentRequired{
		base: base{
			message: message,
		},
		Scopes: scopes,
	}
}

// CredentialRejected is returned when the authorization server explicitly
// refused a credential (expired, revoked or malformed grant).
type CredentialRejected struct {
	base
}

// Error returns the error message for CredentialRejected.
func (c CredentialRejected) Error() string {
	return c.error()
}

// NewCredentialRejected creates a new CredentialRejected error with the provided message.
func NewCredentialRejected(message string, err ...error) CredentialRejected {
	return CredentialRejected{
		base: base{
			message: message,
			err:     errors.Join(err...),
		},
	}
}
