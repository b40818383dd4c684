// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
	"github.com/esgf/globus-transfer-service/internal/domain/port"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/auth"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/esgf"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/globus"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/memory"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/mock"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/nats"
	"github.com/esgf/globus-transfer-service/internal/infrastructure/opensearch"

	"gopkg.in/yaml.v3"
)

// SearchBackendImpl injects the search backend implementation
func SearchBackendImpl(ctx context.Context) port.SearchBackend {

	var (
		searchBackend port.SearchBackend
		err           error
	)

	// Search source implementation configuration
	searchSource := os.Getenv("SEARCH_SOURCE")
	if searchSource == "" {
		searchSource = "esgf"
	}

	switch searchSource {
	case "mock":
		slog.InfoContext(ctx, "initializing mock search backend")
		searchBackend = mock.NewMockSearchBackend()

	case "esgf":
		maxRetries := 0
		if value := os.Getenv("ESGF_SEARCH_MAX_RETRIES"); value != "" {
			maxRetries, err = strconv.Atoi(value)
			if err != nil {
				log.Fatalf("invalid ESGF max retries value %s: %v", value, err)
			}
		}

		esgfConfig, err := esgf.NewConfig(
			os.Getenv("ESGF_SEARCH_URL"),
			os.Getenv("ESGF_SEARCH_TIMEOUT"),
			maxRetries,
			os.Getenv("ESGF_SEARCH_RETRY_DELAY"),
		)
		if err != nil {
			log.Fatalf("failed to create ESGF configuration: %v", err)
		}

		slog.InfoContext(ctx, "initializing ESGF search backend",
			"search_url", esgfConfig.SearchURL,
			"timeout", esgfConfig.Timeout,
			"max_retries", esgfConfig.MaxRetries,
		)

		searchBackend, err = esgf.NewFileSearcher(ctx, esgfConfig)
		if err != nil {
			log.Fatalf("failed to initialize ESGF search backend: %v", err)
		}

	default:
		log.Fatalf("unsupported search implementation: %s", searchSource)
	}

	return searchBackend
}

// URLPatternImpl reads the transfer url pattern of search results
func URLPatternImpl(ctx context.Context) model.URLPattern {
	pattern, err := esgf.NewURLPattern(
		os.Getenv("ESGF_URL_SCHEME"),
		os.Getenv("ESGF_URL_MARKER"),
		os.Getenv("ESGF_URL_MARKER_COUNT"),
	)
	if err != nil {
		log.Fatalf("invalid ESGF url pattern: %v", err)
	}

	slog.InfoContext(ctx, "transfer url pattern",
		"scheme", pattern.Scheme,
		"marker", pattern.Marker,
		"marker_count", pattern.Arity,
	)
	return pattern
}

// EndpointRemappingImpl loads the endpoint remapping tables, empty when
// ENDPOINT_REMAP_FILE is not set
func EndpointRemappingImpl(ctx context.Context) model.EndpointRemapping {
	path := os.Getenv("ENDPOINT_REMAP_FILE")
	if path == "" {
		slog.InfoContext(ctx, "no endpoint remapping configured")
		return model.EndpointRemapping{}
	}

	remapping, err := loadEndpointRemapping(path)
	if err != nil {
		log.Fatalf("failed to load endpoint remapping: %v", err)
	}

	slog.InfoContext(ctx, "endpoint remapping loaded",
		"file", path,
		"data_nodes", len(remapping.DataNodes),
		"endpoints", len(remapping.Endpoints),
	)
	return remapping
}

func loadEndpointRemapping(path string) (model.EndpointRemapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.EndpointRemapping{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var remapping model.EndpointRemapping
	if err := yaml.Unmarshal(data, &remapping); err != nil {
		return model.EndpointRemapping{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return remapping, nil
}

// globusConfig loads and validates the GLOBUS_* settings
func globusConfig() globus.Config {
	config, err := globus.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load Globus configuration: %v", err)
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("invalid Globus configuration: %v", err)
	}
	return config
}

func transferSource() string {
	source := os.Getenv("TRANSFER_SOURCE")
	if source == "" {
		source = "globus"
	}
	return source
}

// AuthorizationServerImpl injects the authorization server implementation
// along with the scopes requested from it
func AuthorizationServerImpl(ctx context.Context) (port.AuthorizationServer, []string) {

	switch source := transferSource(); source {
	case "mock":
		slog.InfoContext(ctx, "initializing mock authorization server")
		return mock.NewMockAuthorizationServer(), nil

	case "globus":
		config := globusConfig()
		slog.InfoContext(ctx, "initializing Globus Auth client",
			"auth_url", config.AuthURL,
			"client_id", config.ClientID,
			"scopes", config.Scopes,
		)

		authClient, err := globus.NewAuthClient(config)
		if err != nil {
			log.Fatalf("failed to initialize Globus Auth client: %v", err)
		}
		return authClient, config.Scopes

	default:
		log.Fatalf("unsupported transfer implementation: %s", source)
	}
	return nil, nil
}

// TransferBackendImpl injects the transfer backend implementation
func TransferBackendImpl(ctx context.Context) port.TransferBackend {

	switch source := transferSource(); source {
	case "mock":
		slog.InfoContext(ctx, "initializing mock transfer backend")
		return mock.NewMockTransferBackend()

	case "globus":
		config := globusConfig()
		slog.InfoContext(ctx, "initializing Globus Transfer client",
			"transfer_url", config.TransferURL,
			"timeout", config.Timeout,
		)

		transferClient, err := globus.NewTransferClient(config)
		if err != nil {
			log.Fatalf("failed to initialize Globus Transfer client: %v", err)
		}
		return transferClient

	default:
		log.Fatalf("unsupported transfer implementation: %s", source)
	}
	return nil
}

// TokenStoreImpl injects the session token store implementation
func TokenStoreImpl(ctx context.Context) port.TokenStore {

	var tokenStore port.TokenStore

	// Token store implementation configuration
	tokenStoreSource := os.Getenv("TOKEN_STORE")
	if tokenStoreSource == "" {
		tokenStoreSource = "memory"
	}

	switch tokenStoreSource {
	case "memory":
		slog.InfoContext(ctx, "initializing in-memory token store")
		tokenStore = memory.NewTokenStore()

	case "nats":
		natsURL := os.Getenv("NATS_URL")
		if natsURL == "" {
			natsURL = "nats://localhost:4222"
		}

		natsTimeout := os.Getenv("NATS_TIMEOUT")
		if natsTimeout == "" {
			natsTimeout = "10s"
		}
		natsTimeoutDuration, err := time.ParseDuration(natsTimeout)
		if err != nil {
			log.Fatalf("invalid NATS timeout duration: %v", err)
		}

		natsMaxReconnect := os.Getenv("NATS_MAX_RECONNECT")
		if natsMaxReconnect == "" {
			natsMaxReconnect = "3"
		}
		natsMaxReconnectInt, err := strconv.Atoi(natsMaxReconnect)
		if err != nil {
			log.Fatalf("invalid NATS max reconnect value %s: %v", natsMaxReconnect, err)
		}

		natsReconnectWait := os.Getenv("NATS_RECONNECT_WAIT")
		if natsReconnectWait == "" {
			natsReconnectWait = "2s"
		}
		natsReconnectWaitDuration, err := time.ParseDuration(natsReconnectWait)
		if err != nil {
			log.Fatalf("invalid NATS reconnect wait duration %s : %v", natsReconnectWait, err)
		}

		natsBucket := os.Getenv("NATS_TOKEN_BUCKET")
		if natsBucket == "" {
			natsBucket = "globus-sessions"
		}

		var natsTTLDuration time.Duration
		if natsTTL := os.Getenv("NATS_TOKEN_TTL"); natsTTL != "" {
			natsTTLDuration, err = time.ParseDuration(natsTTL)
			if err != nil {
				log.Fatalf("invalid NATS token TTL %s : %v", natsTTL, err)
			}
		}

		slog.InfoContext(ctx, "initializing NATS token store", "bucket", natsBucket)
		tokenStore, err = nats.NewTokenStore(ctx, nats.Config{
			URL:           natsURL,
			Timeout:       natsTimeoutDuration,
			MaxReconnect:  natsMaxReconnectInt,
			ReconnectWait: natsReconnectWaitDuration,
			Bucket:        natsBucket,
			TTL:           natsTTLDuration,
		})
		if err != nil {
			log.Fatalf("failed to initialize NATS token store: %v", err)
		}

	default:
		log.Fatalf("unsupported token store implementation: %s", tokenStoreSource)
	}

	return tokenStore
}

// TransferRecorderImpl injects the transfer history implementation; nil
// disables the history
func TransferRecorderImpl(ctx context.Context) port.TransferRecorder {

	recorderSource := os.Getenv("RECORDER_SOURCE")
	if recorderSource == "" {
		recorderSource = "none"
	}

	switch recorderSource {
	case "none":
		slog.InfoContext(ctx, "transfer history disabled")
		return nil

	case "mock":
		slog.InfoContext(ctx, "initializing mock transfer recorder")
		return mock.NewMockTransferRecorder()

	case "opensearch":
		opensearchURL := os.Getenv("OPENSEARCH_URL")
		if opensearchURL == "" {
			opensearchURL = "http://localhost:9200"
		}

		opensearchIndex := os.Getenv("TRANSFER_HISTORY_INDEX")
		if opensearchIndex == "" {
			opensearchIndex = "globus-transfers"
		}

		slog.InfoContext(ctx, "initializing opensearch transfer recorder",
			"url", opensearchURL,
			"index", opensearchIndex,
		)
		recorder, err := opensearch.NewRecorder(ctx, opensearch.Config{
			URL:   opensearchURL,
			Index: opensearchIndex,
		})
		if err != nil {
			log.Fatalf("failed to initialize OpenSearch transfer recorder: %v", err)
		}
		return recorder

	default:
		log.Fatalf("unsupported transfer recorder implementation: %s", recorderSource)
	}
	return nil
}

// AuthServiceImpl injects the bearer token authenticator
func AuthServiceImpl(ctx context.Context) port.Authenticator {

	authSource := os.Getenv("AUTH_SOURCE")
	if authSource == "" {
		authSource = "jwt"
	}

	switch authSource {
	case "mock":
		slog.WarnContext(ctx, "initializing mock authentication, bearer tokens are not verified")
		return mock.NewMockAuthService()

	case "jwt":
		jwtAuth, err := auth.NewJWTAuth(auth.JWTAuthConfig{
			JWKSURL:  os.Getenv("JWKS_URL"),
			Issuer:   os.Getenv("JWT_ISSUER"),
			Audience: os.Getenv("JWT_AUDIENCE"),
		})
		if err != nil {
			log.Fatalf("failed to initialize JWT authentication: %v", err)
		}
		slog.InfoContext(ctx, "initializing JWT authentication")
		return jwtAuth

	default:
		log.Fatalf("unsupported authentication implementation: %s", authSource)
	}
	return nil
}
