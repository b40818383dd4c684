// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	errs "github.com/esgf/globus-transfer-service/pkg/errors"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

const (
	signatureAlgorithm = validator.RS256
	defaultIssuer      = "esgf-auth"
	defaultAudience    = "globus-transfer-service"
	defaultJWKSURL     = "http://esgf-auth:4457/.well-known/jwks"
)

// JWTAuthConfig holds the configuration parameters for JWT authentication.
type JWTAuthConfig struct {
	// JWKSURL is the URL to the JSON Web Key Set endpoint
	JWKSURL string
	// Issuer is the expected iss claim
	Issuer string
	// Audience is the intended audience for the JWT token
	Audience string
}

var (
	// Factory for custom JWT claims target.
	customClaims = func() validator.CustomClaims {
		return &SessionClaims{}
	}
)

// SessionClaims contains extra custom claims we want to parse from the JWT
// token.
type SessionClaims struct {
	Principal string `json:"principal"`
	// SessionID keys the stored transfer credential; it falls back to the principal
	SessionID string `json:"sid,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Validate provides additional middleware validation of any claims defined in
// SessionClaims.
func (c *SessionClaims) Validate(ctx context.Context) error {
	if c.Principal == "" {
		return errors.New("principal must be provided")
	}
	return nil
}

type JWTAuth struct {
	validator *validator.Validator
	config    JWTAuthConfig
}

// ParsePrincipal extracts the principal and its session from the JWT claims.
func (j *JWTAuth) ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (model.Principal, error) {

	if j.validator == nil {
		return model.Principal{}, errors.New("JWT validator is not set up")
	}

	parsedJWT, err := j.validator.ValidateToken(ctx, token)
	if err != nil {
		logger.ErrorContext(ctx, "failed to validate JWT token",
			"error", err,
		)
		return model.Principal{}, errs.NewUnauthorized(truncateValidationError(err))
	}

	claims, ok := parsedJWT.(*validator.ValidatedClaims)
	if !ok {
		// This should never happen.
		return model.Principal{}, errs.NewUnauthorized("failed to get validated authorization claims")
	}

	session, ok := claims.CustomClaims.(*SessionClaims)
	if !ok {
		// This should never happen.
		return model.Principal{}, errs.NewUnauthorized("failed to get custom authorization claims")
	}

	sessionKey := session.SessionID
	if sessionKey == "" {
		sessionKey = session.Principal
	}

	return model.Principal{
		Subject:    session.Principal,
		SessionKey: sessionKey,
	}, nil
}

// truncateValidationError drops tertiary (and deeper) nested errors for
// security reasons, using colons as an approximation for error nesting.
func truncateValidationError(err error) string {
	errString := err.Error()
	firstColon := strings.Index(errString, ":")
	if firstColon != -1 && firstColon+1 < len(errString) {
		errString = strings.Replace(errString, ": go-jose/go-jose/jwt", "", 1)
		secondColon := strings.Index(errString[firstColon+1:], ":")
		if secondColon != -1 {
			// Error has two colons (which may be 3 or more errors), so drop the
			// second colon and everything after it.
			errString = errString[:firstColon+secondColon+1]
		}
	}
	return errString
}

func newJWTAuth(keyFunc func(context.Context) (any, error), issuer, audience string, config JWTAuthConfig) (*JWTAuth, error) {
	jwtValidator, err := validator.New(
		keyFunc,
		signatureAlgorithm,
		issuer,
		[]string{audience},
		validator.WithCustomClaims(customClaims),
		validator.WithAllowedClockSkew(5*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &JWTAuth{
		validator: jwtValidator,
		config:    config,
	}, nil
}

// NewJWTAuth creates a new JWT authentication service
func NewJWTAuth(config JWTAuthConfig) (*JWTAuth, error) {
	// Set up defaults if not provided
	jwksURLStr := config.JWKSURL
	if jwksURLStr == "" {
		jwksURLStr = defaultJWKSURL
	}
	issuerStr := config.Issuer
	if issuerStr == "" {
		issuerStr = defaultIssuer
	}
	audience := config.Audience
	if audience == "" {
		audience = defaultAudience
	}

	// Set up the JWKS key provider.
	jwksURL, err := url.Parse(jwksURLStr)
	if err != nil {
		slog.With("error", err).Error("invalid JWKS_URL")
		return nil, err
	}
	issuer, err := url.Parse(issuerStr)
	if err != nil {
		slog.With("error", err).Error("invalid JWT_ISSUER")
		return nil, err
	}
	provider := jwks.NewCachingProvider(issuer, 5*time.Minute, jwks.WithCustomJWKSURI(jwksURL))

	// Set up the JWT validator.
	jwtAuth, err := newJWTAuth(provider.KeyFunc, issuer.String(), audience, config)
	if err != nil {
		slog.With("error", err).Error("failed to set up the JWT validator")
		return nil, err
	}
	return jwtAuth, nil
}
