// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"slices"
	"time"
)

// BrokerState is a state of the credential broker state machine.
type BrokerState string

const (
	// StateNoCredential is the initial state
	StateNoCredential BrokerState = "no_credential"
	// StateHaveCredential is reached once a usable credential is held
	StateHaveCredential BrokerState = "have_credential"
	// StateConsentBlocked means the target endpoint needs more scopes
	StateConsentBlocked BrokerState = "consent_blocked"
	// StateAuthorizationPending means the user must go through the authorization URL
	StateAuthorizationPending BrokerState = "authorization_pending"
)

// TransferCredential is a bearer credential for the transfer API.
type TransferCredential struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Refreshable reports whether the credential is backed by a refresh token.
func (c TransferCredential) Refreshable() bool {
	return c.RefreshToken != ""
}

// StoredToken is a token value read from the token store along with the
// revision it was read at.
type StoredToken struct {
	Value    string
	Revision uint64
}

// ConsentRequirement accumulates the scopes the principal must still grant.
type ConsentRequirement struct {
	Scopes []string
}

// Add appends scopes that are not already present, keeping order.
func (c *ConsentRequirement) Add(scopes ...string) {
	for _, scope := range scopes {
		if scope == "" || slices.Contains(c.Scopes, scope) {
			continue
		}
		c.Scopes = append(c.Scopes, scope)
	}
}

// Empty reports whether no consent is pending.
func (c *ConsentRequirement) Empty() bool {
	return len(c.Scopes) == 0
}

// ProbeStatus tags a ProbeOutcome.
type ProbeStatus string

const (
	ProbeStatusUsable          ProbeStatus = "usable"
	ProbeStatusConsentRequired ProbeStatus = "consent_required"
	ProbeStatusInconclusive    ProbeStatus = "inconclusive"
)

// ProbeOutcome is the result of a directory listing against a target endpoint.
type ProbeOutcome struct {
	Status ProbeStatus
	// Scopes is set for ProbeStatusConsentRequired
	Scopes []string
	// Err is set for ProbeStatusInconclusive
	Err error
}

// ProbeUsable reports that the endpoint accepted the credential.
func ProbeUsable() ProbeOutcome {
	return ProbeOutcome{Status: ProbeStatusUsable}
}

// ProbeConsentRequired reports that more scopes must be granted.
func ProbeConsentRequired(scopes []string) ProbeOutcome {
	return ProbeOutcome{Status: ProbeStatusConsentRequired, Scopes: scopes}
}

// ProbeInconclusive reports a probe failure unrelated to consent.
func ProbeInconclusive(err error) ProbeOutcome {
	return ProbeOutcome{Status: ProbeStatusInconclusive, Err: err}
}

// CredentialOutcome is the terminal result of the credential broker.
type CredentialOutcome struct {
	State            BrokerState
	Credential       *TransferCredential
	AuthorizationURL string
}

// Usable reports whether a credential was obtained.
func (o CredentialOutcome) Usable() bool {
	return o.Credential != nil
}
