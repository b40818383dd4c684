// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/domain/port"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/globus"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/memory"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/mock"
	"github.com/esgf/globus-transfer-service/pkg/constants"
	"github.com/esgf/globus-transfer-service/pkg/seal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTargetEndpoint = "c4d80096-7612-11e7-8b5e-22000b9923ef"
	testConsentScope   = "urn:globus:auth:scope:transfer.api.globus.org:all[*https://auth.globus.org/scopes/c4d80096-7612-11e7-8b5e-22000b9923ef/data_access]"
)

var testSecretKey = &[32]byte{'t', 'e', 's', 't', '-', 's', 'e', 'c', 'r', 'e', 't'}

var testPrincipal = model.Principal{Subject: "user-1", SessionKey: "session-1"}

type brokerFixture struct {
	broker   *CredentialBroker
	auth     *mock.MockAuthorizationServer
	transfer *mock.MockTransferBackend
	store    port.TokenStore
}

func newBrokerFixture() brokerFixture {
	auth := mock.NewMockAuthorizationServer()
	transfer := mock.NewMockTransferBackend()
	store := memory.NewTokenStore()
	return brokerFixture{
		broker:   NewCredentialBroker(auth, transfer, store, testSecretKey, nil, nil),
		auth:     auth,
		transfer: transfer,
		store:    store,
	}
}

func principalContext(principal model.Principal) context.Context {
	return context.WithValue(context.Background(), constants.PrincipalContextID, principal)
}

func (f brokerFixture) storeRefreshToken(t *testing.T, refreshToken string) {
	t.Helper()
	sealed, err := seal.Seal([]byte(refreshToken), testSecretKey)
	require.NoError(t, err)
	require.NoError(t, f.store.SetToken(context.Background(), tokenKey(testPrincipal), sealed))
}

func (f brokerFixture) storedRefreshToken(t *testing.T) (string, bool) {
	t.Helper()
	stored, found, err := f.store.GetToken(context.Background(), tokenKey(testPrincipal))
	require.NoError(t, err)
	if !found {
		return "", false
	}
	value, err := seal.Open(stored.Value, testSecretKey)
	require.NoError(t, err)
	return string(value), true
}

func (f brokerFixture) issuedState(t *testing.T) string {
	t.Helper()
	state, err := f.broker.sealState(testPrincipal)
	require.NoError(t, err)
	return state
}

func transferRequest() model.TransferRequest {
	return model.TransferRequest{
		EndpointID: testTargetEndpoint,
		Path:       "/~/esgf",
	}
}

func authorizationScopes(t *testing.T, authorizationURL string) (string, string) {
	t.Helper()
	parsed, err := url.Parse(authorizationURL)
	require.NoError(t, err)
	return parsed.Query().Get("scope"), parsed.Query().Get("state")
}

func TestCredentialBrokerWithoutTokenOrCode(t *testing.T) {
	f := newBrokerFixture()

	outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), transferRequest())

	assert.Equal(t, model.StateAuthorizationPending, outcome.State)
	assert.False(t, outcome.Usable())
	assert.NotEmpty(t, outcome.AuthorizationURL)

	scope, state := authorizationScopes(t, outcome.AuthorizationURL)
	assert.Contains(t, scope, "openid")
	assert.Contains(t, scope, constants.TransferScope)
	assert.Contains(t, scope, testConsentScope)
	assert.NotEmpty(t, state)
	assert.Empty(t, f.auth.RefreshCalls())
	assert.Empty(t, f.auth.ExchangeCalls())
}

func TestCredentialBrokerStoredTokenAccepted(t *testing.T) {
	f := newBrokerFixture()
	f.auth.AcceptedRefreshTokens["stored-refresh"] = "stored-access"
	f.storeRefreshToken(t, "stored-refresh")

	req := transferRequest()
	req.AuthCode = "unused-code"
	outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), req)

	require.True(t, outcome.Usable())
	assert.Equal(t, model.StateHaveCredential, outcome.State)
	assert.Equal(t, "stored-access", outcome.Credential.AccessToken)
	assert.True(t, outcome.Credential.Refreshable())
	assert.Empty(t, outcome.AuthorizationURL)
	assert.Empty(t, f.auth.ExchangeCalls())
}

func TestCredentialBrokerStoredTokenRejected(t *testing.T) {
	f := newBrokerFixture()
	f.auth.RejectedRefreshTokens["revoked-refresh"] = true
	f.storeRefreshToken(t, "revoked-refresh")

	outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), transferRequest())

	assert.Equal(t, model.StateAuthorizationPending, outcome.State)
	assert.NotEmpty(t, outcome.AuthorizationURL)
	_, found := f.storedRefreshToken(t)
	assert.False(t, found)
}

func TestCredentialBrokerStoredTokenTransientFailure(t *testing.T) {
	f := newBrokerFixture()
	// unknown to the mock server: redeeming fails with a transient error
	f.storeRefreshToken(t, "unreachable-refresh")

	outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), transferRequest())

	assert.Equal(t, model.StateAuthorizationPending, outcome.State)
	value, found := f.storedRefreshToken(t)
	assert.True(t, found)
	assert.Equal(t, "unreachable-refresh", value)
}

func TestCredentialBrokerClientRegistrationRefused(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
	}{
		{name: "invalid client", status: http.StatusUnauthorized, code: "invalid_client"},
		{name: "unauthorized client", status: http.StatusBadRequest, code: "unauthorized_client"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":"` + tc.code + `"}`))
			}))
			defer ts.Close()

			authClient, err := globus.NewAuthClient(globus.Config{
				ClientID:     "client-id",
				ClientSecret: "rotated-secret",
				AuthURL:      ts.URL,
				TransferURL:  ts.URL,
				Timeout:      5 * time.Second,
			})
			require.NoError(t, err)

			f := newBrokerFixture()
			f.broker = NewCredentialBroker(authClient, f.transfer, f.store, testSecretKey, nil, nil)
			f.storeRefreshToken(t, "stored-refresh")

			outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), transferRequest())

			assert.Equal(t, model.StateAuthorizationPending, outcome.State)
			value, found := f.storedRefreshToken(t)
			assert.True(t, found)
			assert.Equal(t, "stored-refresh", value)
		})
	}
}

func TestCredentialBrokerStoredTokenUnreadable(t *testing.T) {
	f := newBrokerFixture()
	require.NoError(t, f.store.SetToken(context.Background(), tokenKey(testPrincipal), "not-sealed"))

	outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), transferRequest())

	assert.Equal(t, model.StateAuthorizationPending, outcome.State)
	_, found, err := f.store.GetToken(context.Background(), tokenKey(testPrincipal))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCredentialBrokerRequestRefreshTokenIsPersisted(t *testing.T) {
	f := newBrokerFixture()
	f.auth.AcceptedRefreshTokens["request-refresh"] = "request-access"

	req := transferRequest()
	req.RefreshToken = "request-refresh"
	outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), req)

	require.True(t, outcome.Usable())
	assert.Equal(t, "request-access", outcome.Credential.AccessToken)
	value, found := f.storedRefreshToken(t)
	assert.True(t, found)
	assert.Equal(t, "request-refresh", value)
}

func TestCredentialBrokerRotatedRefreshTokenIsPersisted(t *testing.T) {
	f := newBrokerFixture()
	f.auth.AcceptedRefreshTokens["stored-refresh"] = "stored-access"
	f.auth.RotateRefreshTokens = true
	f.storeRefreshToken(t, "stored-refresh")

	outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), transferRequest())

	require.True(t, outcome.Usable())
	value, found := f.storedRefreshToken(t)
	assert.True(t, found)
	assert.Equal(t, "stored-refresh-rotated", value)
}

func TestCredentialBrokerSingleUseAccessToken(t *testing.T) {
	f := newBrokerFixture()

	req := transferRequest()
	req.AccessToken = "single-use-access"
	outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), req)

	require.True(t, outcome.Usable())
	assert.Equal(t, "single-use-access", outcome.Credential.AccessToken)
	assert.False(t, outcome.Credential.Refreshable())
	_, found := f.storedRefreshToken(t)
	assert.False(t, found)
}

func TestCredentialBrokerInconclusiveProbe(t *testing.T) {
	f := newBrokerFixture()
	f.transfer.ProbeErrors[testTargetEndpoint] = errors.New("endpoint is not activated")

	req := transferRequest()
	req.AccessToken = "single-use-access"
	outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), req)

	assert.True(t, outcome.Usable())
	assert.Equal(t, 1, f.transfer.Probes())
}

func TestCredentialBrokerConsentRequired(t *testing.T) {
	f := newBrokerFixture()
	f.auth.AcceptedRefreshTokens["stored-refresh"] = "stored-access"
	f.storeRefreshToken(t, "stored-refresh")
	f.transfer.ConsentScopes[testTargetEndpoint] = []string{"urn:globus:auth:scope:extra"}

	outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), transferRequest())

	assert.Equal(t, model.StateAuthorizationPending, outcome.State)
	scope, _ := authorizationScopes(t, outcome.AuthorizationURL)
	assert.Contains(t, scope, "urn:globus:auth:scope:extra")
	// consent is not a rejection of the stored token
	_, found := f.storedRefreshToken(t)
	assert.True(t, found)
}

func TestCredentialBrokerAuthorizationCode(t *testing.T) {
	f := newBrokerFixture()
	f.auth.Codes["valid-code"] = "code-refresh"

	req := transferRequest()
	req.AuthCode = "valid-code"
	req.AuthState = f.issuedState(t)
	req.AuthRedirectURL = "https://app.example.org/cart/items"
	outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), req)

	require.True(t, outcome.Usable())
	assert.Equal(t, "access-code-refresh", outcome.Credential.AccessToken)
	assert.Equal(t, []string{"valid-code"}, f.auth.ExchangeCalls())
	value, found := f.storedRefreshToken(t)
	assert.True(t, found)
	assert.Equal(t, "code-refresh", value)
}

func TestCredentialBrokerAuthorizationCodeFailures(t *testing.T) {
	t.Run("exchange fails", func(t *testing.T) {
		f := newBrokerFixture()

		req := transferRequest()
		req.AuthCode = "unknown-code"
		req.AuthState = f.issuedState(t)
		outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), req)

		assert.Equal(t, model.StateAuthorizationPending, outcome.State)
		assert.NotEmpty(t, outcome.AuthorizationURL)
	})

	t.Run("consent still required after exchange", func(t *testing.T) {
		f := newBrokerFixture()
		f.auth.Codes["valid-code"] = "code-refresh"
		f.transfer.ConsentScopes[testTargetEndpoint] = []string{"urn:globus:auth:scope:extra"}

		req := transferRequest()
		req.AuthCode = "valid-code"
		req.AuthState = f.issuedState(t)
		outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), req)

		assert.Equal(t, model.StateAuthorizationPending, outcome.State)
		scope, _ := authorizationScopes(t, outcome.AuthorizationURL)
		assert.Contains(t, scope, "urn:globus:auth:scope:extra")
		// the exchanged refresh token is kept for the next attempt
		_, found := f.storedRefreshToken(t)
		assert.True(t, found)
	})
}

func TestCredentialBrokerAuthorizationState(t *testing.T) {
	f := newBrokerFixture()
	f.auth.Codes["valid-code"] = "code-refresh"

	pending := f.broker.GetTransferCredential(principalContext(testPrincipal), transferRequest())
	_, state := authorizationScopes(t, pending.AuthorizationURL)
	require.NotEmpty(t, state)

	t.Run("state of another session is ignored", func(t *testing.T) {
		req := transferRequest()
		req.AuthCode = "valid-code"
		req.AuthState = state
		other := model.Principal{Subject: "user-2", SessionKey: "session-2"}

		outcome := f.broker.GetTransferCredential(principalContext(other), req)

		assert.Equal(t, model.StateAuthorizationPending, outcome.State)
		assert.Empty(t, f.auth.ExchangeCalls())
	})

	t.Run("code without state is ignored", func(t *testing.T) {
		req := transferRequest()
		req.AuthCode = "valid-code"

		outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), req)

		assert.Equal(t, model.StateAuthorizationPending, outcome.State)
		assert.NotEmpty(t, outcome.AuthorizationURL)
		assert.Empty(t, f.auth.ExchangeCalls())
	})

	t.Run("tampered state is ignored", func(t *testing.T) {
		req := transferRequest()
		req.AuthCode = "valid-code"
		req.AuthState = "tampered"

		outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), req)

		assert.Equal(t, model.StateAuthorizationPending, outcome.State)
		assert.Empty(t, f.auth.ExchangeCalls())
	})

	t.Run("expired state is ignored", func(t *testing.T) {
		expired := newBrokerFixture()
		expired.auth.Codes["valid-code"] = "code-refresh"
		expired.broker.now = func() time.Time { return time.Now().Add(constants.AuthStateMaxAge + time.Minute) }

		req := transferRequest()
		req.AuthCode = "valid-code"
		req.AuthState = state

		outcome := expired.broker.GetTransferCredential(principalContext(testPrincipal), req)

		assert.Equal(t, model.StateAuthorizationPending, outcome.State)
		assert.Empty(t, expired.auth.ExchangeCalls())
	})

	t.Run("valid state lets the code through", func(t *testing.T) {
		req := transferRequest()
		req.AuthCode = "valid-code"
		req.AuthState = state

		outcome := f.broker.GetTransferCredential(principalContext(testPrincipal), req)

		assert.True(t, outcome.Usable())
		assert.Equal(t, []string{"valid-code"}, f.auth.ExchangeCalls())
	})
}

func TestCredentialBrokerWithoutSession(t *testing.T) {
	f := newBrokerFixture()
	f.auth.AcceptedRefreshTokens["request-refresh"] = "request-access"

	req := transferRequest()
	req.RefreshToken = "request-refresh"
	outcome := f.broker.GetTransferCredential(context.Background(), req)

	assert.True(t, outcome.Usable())
	_, found := f.storedRefreshToken(t)
	assert.False(t, found)
}
