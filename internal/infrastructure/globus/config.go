// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package globus

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envVarPrefix = "GLOBUS"

// Config holds the Globus Auth client registration and the API locations
type Config struct {
	ClientID     string        `envconfig:"CLIENT_ID"`
	ClientSecret string        `envconfig:"CLIENT_SECRET"`
	RedirectURL  string        `envconfig:"REDIRECT_URL"`
	AuthURL      string        `envconfig:"AUTH_URL"      default:"https://auth.globus.org"`
	TransferURL  string        `envconfig:"TRANSFER_URL"  default:"https://transfer.api.globus.org/v0.10"`
	Timeout      time.Duration `envconfig:"TIMEOUT"       default:"30s"`
	Scopes       []string      `envconfig:"SCOPES"`
}

// LoadConfig reads the GLOBUS_* environment variables
func LoadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("parsing environment variables: %w", err)
	}
	c.AuthURL = strings.TrimSuffix(c.AuthURL, "/")
	c.TransferURL = strings.TrimSuffix(c.TransferURL, "/")
	return c, nil
}

// Validate reports the first missing required setting
func (c Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("missing required configuration: %s_CLIENT_ID", envVarPrefix)
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("missing required configuration: %s_CLIENT_SECRET", envVarPrefix)
	}
	if c.AuthURL == "" {
		return fmt.Errorf("missing required configuration: %s_AUTH_URL", envVarPrefix)
	}
	if c.TransferURL == "" {
		return fmt.Errorf("missing required configuration: %s_TRANSFER_URL", envVarPrefix)
	}
	return nil
}
