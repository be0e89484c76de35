// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package groupsio

import (
	"os"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/httpclient"
)

// Config holds the Groups.io account and transport settings
type Config struct {
	// BaseURL is the API root, e.g. https://groups.io/api
	BaseURL  string
	Email    string
	Password string
	// TokenTTL is assumed for login tokens that carry no exp claim
	TokenTTL time.Duration
	// RefreshMargin renews the token this long before it expires
	RefreshMargin time.Duration
	HTTP          httpclient.Config
}

// DefaultConfig returns the settings used for unset GROUPSIO_* variables
func DefaultConfig() Config {
	transport := httpclient.DefaultConfig()
	// failed pairs are reported by the batch, not retried by the transport
	transport.MaxRetries = 0
	return Config{
		BaseURL:       "https://groups.io/api",
		TokenTTL:      10 * time.Minute,
		RefreshMargin: time.Minute,
		HTTP:          transport,
	}
}

// NewConfigFromEnv creates a Config from GROUPSIO_* environment variables
func NewConfigFromEnv() Config {
	config := DefaultConfig()

	if v := os.Getenv("GROUPSIO_BASE_URL"); v != "" {
		config.BaseURL = v
	}
	config.Email = os.Getenv("GROUPSIO_EMAIL")
	config.Password = os.Getenv("GROUPSIO_PASSWORD")

	if v := os.Getenv("GROUPSIO_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.HTTP.Timeout = d
		}
	}
	if v := os.Getenv("GROUPSIO_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			config.HTTP.MaxRetries = n
		}
	}
	if v := os.Getenv("GROUPSIO_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.HTTP.RetryDelay = d
		}
	}

	return config
}
