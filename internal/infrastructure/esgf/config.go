// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package esgf

import (
	"fmt"
	"strconv"
	"time"

	"github.com/esgf/globus-transfer-service/internal/domain/model"
)

var defaultSearchURL = "https://esgf-node.llnl.gov/esg-search/search"

// Config holds the configuration for the ESGF search API client
type Config struct {
	// SearchURL is the search endpoint of an ESGF index node
	SearchURL string

	// Timeout is the HTTP client timeout for API requests
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the delay between retry attempts
	RetryDelay time.Duration
}

// DefaultConfig returns a Config pointing at the LLNL index node, without retries
func DefaultConfig() Config {
	return Config{
		SearchURL:  defaultSearchURL,
		Timeout:    60 * time.Second,
		MaxRetries: 0,
		RetryDelay: 1 * time.Second,
	}
}

// NewConfig creates a new ESGF configuration with the provided parameters
func NewConfig(searchURL, timeout string, maxRetries int, retryDelay string) (Config, error) {
	config := DefaultConfig()

	if searchURL != "" {
		config.SearchURL = searchURL
	}

	if timeout != "" {
		timeoutDuration, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid timeout duration: %w", err)
		}
		config.Timeout = timeoutDuration
	}

	if maxRetries < 0 {
		return Config{}, fmt.Errorf("max retries must not be negative")
	}
	config.MaxRetries = maxRetries

	if retryDelay != "" {
		retryDelayDuration, err := time.ParseDuration(retryDelay)
		if err != nil {
			return Config{}, fmt.Errorf("invalid retry delay duration: %w", err)
		}
		config.RetryDelay = retryDelayDuration
	}

	return config, nil
}

// NewURLPattern builds the transfer url pattern, defaulting every empty
// value to model.DefaultURLPattern.
func NewURLPattern(scheme, marker, markerCount string) (model.URLPattern, error) {
	pattern := model.DefaultURLPattern

	if scheme != "" {
		pattern.Scheme = scheme
	}
	if marker != "" {
		pattern.Marker = marker
	}
	if markerCount != "" {
		count, err := strconv.Atoi(markerCount)
		if err != nil || count < 1 {
			return model.URLPattern{}, fmt.Errorf("invalid url marker count %q", markerCount)
		}
		pattern.Arity = count
	}

	return pattern, nil
}
