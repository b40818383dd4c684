// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package globus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/pkg/constants"
	pkgerrors "github.com/esgf/globus-transfer-service/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AuthClient implements port.AuthorizationServer against Globus Auth
type AuthClient struct {
	oauth2     *oauth2.Config
	readiness  *clientcredentials.Config
	httpClient *http.Client
}

// AuthorizationURL builds the authorize URL for scopes, asking for a
// refresh token with access_type=offline.
func (c *AuthClient) AuthorizationURL(state string, scopes []string) string {
	config := *c.oauth2
	config.Scopes = scopes
	return config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode redeems an authorization code. redirectURL must be the one
// used to obtain the code; the configured one is used when empty.
func (c *AuthClient) ExchangeCode(ctx context.Context, code, redirectURL string) (*model.TransferCredential, error) {
	var opts []oauth2.AuthCodeOption
	if redirectURL != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURL))
	}

	token, err := c.oauth2.Exchange(c.clientContext(ctx), code, opts...)
	if err != nil {
		return nil, tokenError("authorization code exchange failed", err)
	}

	slog.DebugContext(ctx, "authorization code exchanged",
		"resource_server", token.Extra("resource_server"),
	)
	return transferCredential(token)
}

// RefreshCredential redeems a transfer refresh token
func (c *AuthClient) RefreshCredential(ctx context.Context, refreshToken string) (*model.TransferCredential, error) {
	source := c.oauth2.TokenSource(c.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		return nil, tokenError("refresh token grant failed", err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return transferCredential(token)
}

// IsReady requests a client credentials token to check the client registration
func (c *AuthClient) IsReady(ctx context.Context) error {
	if _, err := c.readiness.Token(c.clientContext(ctx)); err != nil {
		return pkgerrors.NewServiceUnavailable("Globus Auth is not ready", err)
	}
	return nil
}

func (c *AuthClient) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// tokenError tells an explicit refusal of a grant apart from other failures.
// Only invalid_grant names the user's credential; invalid_client and the
// other 4xx codes refuse this service's client registration.
func tokenError(message string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode == "invalid_grant" {
			return pkgerrors.NewCredentialRejected(message, err)
		}
		if retrieveErr.Response != nil &&
			retrieveErr.Response.StatusCode >= http.StatusBadRequest &&
			retrieveErr.Response.StatusCode < http.StatusInternalServerError {
			return pkgerrors.NewUnexpected(message, err)
		}
	}
	return pkgerrors.NewServiceUnavailable(message, err)
}

// transferCredential selects the Transfer API token of a token response,
// either the top level one or one of other_tokens.
func transferCredential(token *oauth2.Token) (*model.TransferCredential, error) {
	resourceServer, _ := token.Extra("resource_server").(string)
	if resourceServer == constants.TransferResourceServer || resourceServer == "" {
		return &model.TransferCredential{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			Expiry:       token.Expiry,
		}, nil
	}

	for _, other := range otherTokens(token) {
		if other.ResourceServer != constants.TransferResourceServer {
			continue
		}
		credential := &model.TransferCredential{
			AccessToken:  other.AccessToken,
			RefreshToken: other.RefreshToken,
		}
		if other.ExpiresIn > 0 {
			credential.Expiry = time.Now().Add(time.Duration(other.ExpiresIn) * time.Second)
		}
		return credential, nil
	}

	return nil, pkgerrors.NewCredentialRejected(
		fmt.Sprintf("token response carries no %s token", constants.TransferResourceServer))
}

func otherTokens(token *oauth2.Token) []otherToken {
	raw, _ := token.Extra("other_tokens").([]any)

	tokens := make([]otherToken, 0, len(raw))
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		var other otherToken
		other.ResourceServer, _ = fields["resource_server"].(string)
		other.AccessToken, _ = fields["access_token"].(string)
		other.RefreshToken, _ = fields["refresh_token"].(string)
		other.ExpiresIn, _ = fields["expires_in"].(float64)
		tokens = append(tokens, other)
	}
	return tokens
}

// NewAuthClient creates a Globus Auth client from config
func NewAuthClient(config Config) (*AuthClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	endpoint := oauth2.Endpoint{
		AuthURL:   config.AuthURL + "/v2/oauth2/authorize",
		TokenURL:  config.AuthURL + "/v2/oauth2/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}

	return &AuthClient{
		oauth2: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  config.RedirectURL,
		},
		readiness: &clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     endpoint.TokenURL,
			Scopes:       []string{constants.TransferScope},
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}
