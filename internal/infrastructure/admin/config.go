// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package admin

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/httpclient"
)

// Config holds the admin directory API settings
type Config struct {
	// BaseURL is the directory API root, e.g. https://admin.googleapis.com/admin/directory/v1
	BaseURL string
	// Customer scopes list calls to one account
	Customer string

	// OAuth2 client credentials. Basic credentials are used when ClientID is empty.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	// Username and Password send basic credentials when no OAuth2 client is set
	Username string
	Password string

	// PageSize is the maxResults sent with each list page
	PageSize int

	// WaitAttempts and WaitDelay bound the polling done by DeleteMember with Wait
	WaitAttempts int
	WaitDelay    time.Duration

	HTTP httpclient.Config
}

// DefaultConfig returns a Config for the Google Admin directory
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://admin.googleapis.com/admin/directory/v1",
		Customer:     "my_customer",
		TokenURL:     "https://oauth2.googleapis.com/token",
		Scopes:       []string{"https://www.googleapis.com/auth/admin.directory.user"},
		PageSize:     100,
		WaitAttempts: 10,
		WaitDelay:    time.Second,
		HTTP:         noRetries(httpclient.DefaultConfig()),
	}
}

// noRetries disables transport retries; CreationIncomplete and bounded waits
// are retried by the lifecycle service instead
func noRetries(config httpclient.Config) httpclient.Config {
	config.MaxRetries = 0
	return config
}

// NewConfigFromEnv creates a Config from ADMIN_* environment variables
func NewConfigFromEnv() Config {
	config := DefaultConfig()

	if v := os.Getenv("ADMIN_BASE_URL"); v != "" {
		config.BaseURL = v
	}
	if v := os.Getenv("ADMIN_CUSTOMER"); v != "" {
		config.Customer = v
	}
	if v := os.Getenv("ADMIN_TOKEN_URL"); v != "" {
		config.TokenURL = v
	}
	config.ClientID = os.Getenv("ADMIN_CLIENT_ID")
	config.ClientSecret = os.Getenv("ADMIN_CLIENT_SECRET")
	config.Username = os.Getenv("ADMIN_USERNAME")
	config.Password = os.Getenv("ADMIN_PASSWORD")
	if v := os.Getenv("ADMIN_SCOPES"); v != "" {
		config.Scopes = strings.Split(v, ",")
	}
	if v := os.Getenv("ADMIN_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.PageSize = n
		}
	}
	if v := os.Getenv("ADMIN_WAIT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.WaitAttempts = n
		}
	}
	if v := os.Getenv("ADMIN_WAIT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.WaitDelay = d
		}
	}

	return config
}
