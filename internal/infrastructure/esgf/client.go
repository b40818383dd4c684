// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package esgf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	pkgerrors "github.com/esgf/globus-transfer-service/pkg/errors"
	"github.com/esgf/globus-transfer-service/pkg/httpclient"
)

// Client represents an ESGF search API client
type Client struct {
	config     Config
	httpClient *httpclient.Client
}

// Search issues one search request and decodes the solr envelope
func (c *Client) Search(ctx context.Context, params url.Values) (*SearchResponse, error) {
	u, err := url.Parse(c.config.SearchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search URL: %w", err)
	}
	u.RawQuery = params.Encode()

	resp, err := c.httpClient.Request(ctx, http.MethodGet, u.String(), nil, nil)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return nil, pkgerrors.NewSearchBackend(
				fmt.Sprintf("search API answered with status %d", statusErr.StatusCode), err)
		}
		return nil, pkgerrors.NewSearchBackend("search API request failed", err)
	}

	var response SearchResponse
	if err := json.Unmarshal(resp.Body, &response); err != nil {
		return nil, pkgerrors.NewSearchBackend("search API response is not JSON", err)
	}
	if response.Response == nil || response.Response.Docs == nil {
		return nil, pkgerrors.NewSearchBackend("search API response has no response.docs envelope")
	}

	return &response, nil
}

// IsReady checks if the search API is reachable
func (c *Client) IsReady(ctx context.Context) error {
	params := url.Values{}
	params.Set("type", "File")
	params.Set("format", "application/solr+json")
	params.Set("limit", "0")

	if _, err := c.Search(ctx, params); err != nil {
		return pkgerrors.NewServiceUnavailable("ESGF search API is not ready", err)
	}
	return nil
}

// NewClient creates a new ESGF search API client
func NewClient(config Config) *Client {
	httpConfig := httpclient.DefaultConfig()
	httpConfig.Timeout = config.Timeout
	httpConfig.MaxRetries = config.MaxRetries
	httpConfig.RetryDelay = config.RetryDelay

	return &Client{
		config:     config,
		httpClient: httpclient.NewClient(httpConfig),
	}
}
