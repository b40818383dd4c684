// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import "time"

const (
	// RefreshTokenSessionKey is the session key under which the sealed Globus
	// refresh token is stored
	RefreshTokenSessionKey = "globus_refresh_token"

	// TransferResourceServer is the resource server of the Globus Transfer API
	TransferResourceServer = "transfer.api.globus.org"

	// TransferScope grants access to the Globus Transfer API
	TransferScope = "urn:globus:auth:scope:transfer.api.globus.org:all"

	// TransferDeadlineWindow is added to the submission time to build the task
	// deadline required by the transfer API
	TransferDeadlineWindow = 10 * 24 * time.Hour

	// AuthStateMaxAge bounds the age of an OAuth2 state value returned by a caller
	AuthStateMaxAge = 10 * time.Minute

	// ConsentRequiredCode is the transfer API error code raised when extra
	// scopes must be granted
	ConsentRequiredCode = "ConsentRequired"
)

// DefaultRequestedScopes are always requested when building an authorization URL
var DefaultRequestedScopes = []string{"openid", "profile", "email", TransferScope}

// DataAccessScope returns the data_access dependent scope of a mapped collection.
func DataAccessScope(endpointID string) string {
	return TransferScope + "[*https://auth.globus.org/scopes/" + endpointID + "/data_access]"
}
