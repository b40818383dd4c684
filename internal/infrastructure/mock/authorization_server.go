// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/pkg/errors"
)

// MockAuthorizationServer is a mock implementation of port.AuthorizationServer.
// Refresh tokens listed in AcceptedRefreshTokens are redeemed, listed in
// RejectedRefreshTokens are explicitly refused, any other token fails with a
// transient error.
type MockAuthorizationServer struct {
	mu sync.Mutex

	AcceptedRefreshTokens map[string]string
	RejectedRefreshTokens map[string]bool
	// Codes maps an authorization code to the refresh token it yields
	Codes map[string]string
	// RotateRefreshTokens makes every refresh return a new refresh token
	RotateRefreshTokens bool
	IsReadyError        error

	refreshCalls  []string
	exchangeCalls []string
}

// NewMockAuthorizationServer creates an authorization server that knows no token
func NewMockAuthorizationServer() *MockAuthorizationServer {
	return &MockAuthorizationServer{
		AcceptedRefreshTokens: map[string]string{},
		RejectedRefreshTokens: map[string]bool{},
		Codes:                 map[string]string{},
	}
}

// AuthorizationURL builds a fake authorization URL carrying the state and scopes
func (m *MockAuthorizationServer) AuthorizationURL(state string, scopes []string) string {
	query := url.Values{}
	query.Set("state", state)
	query.Set("scope", strings.Join(scopes, " "))
	query.Set("access_type", "offline")
	return "https://auth.example.org/v2/oauth2/authorize?" + query.Encode()
}

// ExchangeCode redeems a known authorization code
func (m *MockAuthorizationServer) ExchangeCode(ctx context.Context, code, redirectURL string) (*model.TransferCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exchangeCalls = append(m.exchangeCalls, code)
	refreshToken, ok := m.Codes[code]
	if !ok {
		return nil, errors.NewCredentialRejected(fmt.Sprintf("invalid grant for code %q", code))
	}
	m.AcceptedRefreshTokens[refreshToken] = "access-" + refreshToken
	return &model.TransferCredential{
		AccessToken:  "access-" + refreshToken,
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

// RefreshCredential redeems a refresh token
func (m *MockAuthorizationServer) RefreshCredential(ctx context.Context, refreshToken string) (*model.TransferCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refreshCalls = append(m.refreshCalls, refreshToken)
	if m.RejectedRefreshTokens[refreshToken] {
		return nil, errors.NewCredentialRejected("refresh token revoked")
	}
	accessToken, ok := m.AcceptedRefreshTokens[refreshToken]
	if !ok {
		return nil, errors.NewServiceUnavailable("authorization server unreachable")
	}

	credential := &model.TransferCredential{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(time.Hour),
	}
	if m.RotateRefreshTokens {
		credential.RefreshToken = refreshToken + "-rotated"
	}
	return credential, nil
}

// IsReady implements the AuthorizationServer interface
func (m *MockAuthorizationServer) IsReady(ctx context.Context) error {
	return m.IsReadyError
}

// RefreshCalls returns the refresh tokens redeemed so far
func (m *MockAuthorizationServer) RefreshCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.refreshCalls...)
}

// ExchangeCalls returns the authorization codes exchanged so far
func (m *MockAuthorizationServer) ExchangeCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.exchangeCalls...)
}
