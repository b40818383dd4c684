// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/domain/port"
	"github.com/esgf/globus-transfer-service/pkg/constants"
	pkgerrors "github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/esgf/globus-transfer-service/pkg/metrics"
	"github.com/esgf/globus-transfer-service/pkg/seal"
)

// authState is sealed into the OAuth2 state parameter
type authState struct {
	SessionKey string `json:"sid"`
	IssuedAt   int64  `json:"iat"`
}

// CredentialBroker obtains a usable transfer credential for the principal
// of the request, or the authorization URL the user has to go through.
type CredentialBroker struct {
	authServer      port.AuthorizationServer
	transferBackend port.TransferBackend
	tokenStore      port.TokenStore
	secretKey       *[32]byte
	scopes          []string
	metrics         *metrics.Metrics
	now             func() time.Time
}

// GetTransferCredential runs the broker state machine. It never fails: when
// no usable credential can be obtained the outcome is AuthorizationPending.
func (b *CredentialBroker) GetTransferCredential(ctx context.Context, req model.TransferRequest) model.CredentialOutcome {
	principal, _ := ctx.Value(constants.PrincipalContextID).(model.Principal)

	var consent model.ConsentRequirement

	if credential := b.startCredential(ctx, principal, req); credential != nil {
		if b.probe(ctx, *credential, req, &consent) {
			return b.usable(ctx, credential)
		}
	}

	// a code is only redeemed together with the state this service issued
	code := req.AuthCode
	if code != "" && !b.validState(ctx, principal, req.AuthState) {
		slog.WarnContext(ctx, "authorization state missing or rejected, ignoring authorization code")
		code = ""
	}

	if code != "" {
		credential, err := b.authServer.ExchangeCode(ctx, code, req.AuthRedirectURL)
		if err != nil {
			slog.WarnContext(ctx, "authorization code exchange failed",
				"error", err,
			)
		} else {
			b.persist(ctx, principal, credential.RefreshToken)
			if b.probe(ctx, *credential, req, &consent) {
				return b.usable(ctx, credential)
			}
		}
	}

	return b.pending(ctx, principal, req, consent)
}

// startCredential tries, in order, the refresh token of the request, the
// stored refresh token of the session and the access token of the request.
func (b *CredentialBroker) startCredential(ctx context.Context, principal model.Principal, req model.TransferRequest) *model.TransferCredential {

	if req.RefreshToken != "" {
		credential, err := b.authServer.RefreshCredential(ctx, req.RefreshToken)
		if err == nil {
			b.persist(ctx, principal, credential.RefreshToken)
			return credential
		}
		slog.WarnContext(ctx, "request refresh token could not be redeemed",
			"error", err,
		)
	}

	if credential := b.storedCredential(ctx, principal); credential != nil {
		return credential
	}

	if req.AccessToken != "" {
		slog.DebugContext(ctx, "using single-use access token of the request")
		return &model.TransferCredential{AccessToken: req.AccessToken}
	}

	return nil
}

// storedCredential redeems the refresh token stored for the session. Only
// an explicit rejection clears it; transient failures leave it in place.
func (b *CredentialBroker) storedCredential(ctx context.Context, principal model.Principal) *model.TransferCredential {
	if principal.SessionKey == "" {
		return nil
	}
	key := tokenKey(principal)

	stored, found, err := b.tokenStore.GetToken(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read stored refresh token",
			"error", err,
		)
		return nil
	}
	if !found {
		return nil
	}

	refreshToken, err := seal.Open(stored.Value, b.secretKey)
	if err != nil {
		slog.WarnContext(ctx, "stored refresh token cannot be opened, clearing it",
			"error", err,
		)
		b.clear(ctx, key, stored.Revision)
		return nil
	}

	credential, err := b.authServer.RefreshCredential(ctx, string(refreshToken))
	if err != nil {
		var rejected pkgerrors.CredentialRejected
		if errors.As(err, &rejected) {
			slog.InfoContext(ctx, "stored refresh token rejected, clearing it",
				"error", err,
			)
			b.clear(ctx, key, stored.Revision)
			return nil
		}
		slog.WarnContext(ctx, "stored refresh token could not be redeemed",
			"error", err,
		)
		return nil
	}

	if credential.RefreshToken != "" && credential.RefreshToken != string(refreshToken) {
		b.persist(ctx, principal, credential.RefreshToken)
	}
	return credential
}

// probe lists the target path and reports whether the credential is usable.
// Consent scopes are accumulated; inconclusive probes count as usable.
func (b *CredentialBroker) probe(ctx context.Context, credential model.TransferCredential, req model.TransferRequest, consent *model.ConsentRequirement) bool {
	outcome := b.transferBackend.ProbeEndpoint(ctx, credential, req.EndpointID, req.Path)

	switch outcome.Status {
	case model.ProbeStatusConsentRequired:
		consent.Add(outcome.Scopes...)
		slog.InfoContext(ctx, "target endpoint requires consent",
			"state", model.StateConsentBlocked,
			"endpoint_id", req.EndpointID,
			"scopes", consent.Scopes,
		)
		return false
	case model.ProbeStatusInconclusive:
		slog.WarnContext(ctx, "endpoint probe inconclusive, assuming no consent is required",
			"endpoint_id", req.EndpointID,
			"error", outcome.Err,
		)
	}
	return true
}

func (b *CredentialBroker) usable(ctx context.Context, credential *model.TransferCredential) model.CredentialOutcome {
	b.metrics.CredentialOutcome(string(model.StateHaveCredential))
	slog.DebugContext(ctx, "transfer credential obtained",
		"refreshable", credential.Refreshable(),
	)
	return model.CredentialOutcome{
		State:      model.StateHaveCredential,
		Credential: credential,
	}
}

// pending builds the authorization URL asking for the base scopes, the data
// access scope of the target endpoint and any pending consent.
func (b *CredentialBroker) pending(ctx context.Context, principal model.Principal, req model.TransferRequest, consent model.ConsentRequirement) model.CredentialOutcome {
	var scopes model.ConsentRequirement
	scopes.Add(b.scopes...)
	if req.EndpointID != "" {
		scopes.Add(constants.DataAccessScope(req.EndpointID))
	}
	scopes.Add(consent.Scopes...)

	state, err := b.sealState(principal)
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal authorization state",
			"error", err,
		)
	}

	b.metrics.CredentialOutcome(string(model.StateAuthorizationPending))
	slog.InfoContext(ctx, "authorization required",
		"state", model.StateAuthorizationPending,
		"consent_scopes", consent.Scopes,
	)

	return model.CredentialOutcome{
		State:            model.StateAuthorizationPending,
		AuthorizationURL: b.authServer.AuthorizationURL(state, scopes.Scopes),
	}
}

func (b *CredentialBroker) persist(ctx context.Context, principal model.Principal, refreshToken string) {
	if principal.SessionKey == "" || refreshToken == "" {
		return
	}

	sealed, err := seal.Seal([]byte(refreshToken), b.secretKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal refresh token",
			"error", err,
		)
		return
	}
	if err := b.tokenStore.SetToken(ctx, tokenKey(principal), sealed); err != nil {
		slog.ErrorContext(ctx, "failed to store refresh token",
			"error", err,
		)
	}
}

func (b *CredentialBroker) clear(ctx context.Context, key string, revision uint64) {
	if err := b.tokenStore.ClearToken(ctx, key, revision); err != nil {
		slog.ErrorContext(ctx, "failed to clear stored refresh token",
			"error", err,
		)
	}
}

func (b *CredentialBroker) sealState(principal model.Principal) (string, error) {
	data, err := json.Marshal(authState{
		SessionKey: principal.SessionKey,
		IssuedAt:   b.now().Unix(),
	})
	if err != nil {
		return "", err
	}
	return seal.Seal(data, b.secretKey)
}

// validState checks that the state was issued by this service for the same
// session no longer than AuthStateMaxAge ago.
func (b *CredentialBroker) validState(ctx context.Context, principal model.Principal, sealed string) bool {
	data, err := seal.Open(sealed, b.secretKey)
	if err != nil {
		slog.DebugContext(ctx, "authorization state cannot be opened",
			"error", err,
		)
		return false
	}

	var state authState
	if err := json.Unmarshal(data, &state); err != nil {
		return false
	}
	if state.SessionKey != principal.SessionKey {
		return false
	}

	age := b.now().Sub(time.Unix(state.IssuedAt, 0))
	return age >= 0 && age <= constants.AuthStateMaxAge
}

func tokenKey(principal model.Principal) string {
	return principal.SessionKey + "." + constants.RefreshTokenSessionKey
}

// NewCredentialBroker creates a new CredentialBroker instance. An empty
// scopes list requests constants.DefaultRequestedScopes.
func NewCredentialBroker(
	authServer port.AuthorizationServer,
	transferBackend port.TransferBackend,
	tokenStore port.TokenStore,
	secretKey *[32]byte,
	scopes []string,
	m *metrics.Metrics,
) *CredentialBroker {
	if len(scopes) == 0 {
		scopes = constants.DefaultRequestedScopes
	}
	return &CredentialBroker{
		authServer:      authServer,
		transferBackend: transferBackend,
		tokenStore:      tokenStore,
		secretKey:       secretKey,
		scopes:          scopes,
		metrics:         m,
		now:             time.Now,
	}
}

// IsReady checks the authorization server and the token store
func (b *CredentialBroker) IsReady(ctx context.Context) error {
	if err := b.authServer.IsReady(ctx); err != nil {
		return err
	}
	return b.tokenStore.IsReady(ctx)
}
