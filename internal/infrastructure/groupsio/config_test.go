// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package groupsio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigFromEnv(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		expect func(t *testing.T, config Config)
	}{
		{
			name: "defaults",
			expect: func(t *testing.T, config Config) {
				assert.Equal(t, "https://groups.io/api", config.BaseURL)
				assert.Equal(t, 10*time.Minute, config.TokenTTL)
				assert.Equal(t, time.Minute, config.RefreshMargin)
				assert.Equal(t, 30*time.Second, config.HTTP.Timeout)
				assert.Zero(t, config.HTTP.MaxRetries)
			},
		},
		{
			name: "account and transport overrides",
			env: map[string]string{
				"GROUPSIO_BASE_URL":    "https://groups.example.org/api",
				"GROUPSIO_EMAIL":       "ops@club.org",
				"GROUPSIO_PASSWORD":    "secret",
				"GROUPSIO_TIMEOUT":     "5s",
				"GROUPSIO_MAX_RETRIES": "4",
				"GROUPSIO_RETRY_DELAY": "250ms",
			},
			expect: func(t *testing.T, config Config) {
				assert.Equal(t, "https://groups.example.org/api", config.BaseURL)
				assert.Equal(t, "ops@club.org", config.Email)
				assert.Equal(t, "secret", config.Password)
				assert.Equal(t, 5*time.Second, config.HTTP.Timeout)
				assert.Equal(t, 4, config.HTTP.MaxRetries)
				assert.Equal(t, 250*time.Millisecond, config.HTTP.RetryDelay)
			},
		},
		{
			name: "unparsable values keep the defaults",
			env: map[string]string{
				"GROUPSIO_TIMEOUT":     "soon",
				"GROUPSIO_MAX_RETRIES": "-1",
			},
			expect: func(t *testing.T, config Config) {
				assert.Equal(t, DefaultConfig().HTTP, config.HTTP)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, key := range []string{"GROUPSIO_BASE_URL", "GROUPSIO_EMAIL", "GROUPSIO_PASSWORD",
				"GROUPSIO_TIMEOUT", "GROUPSIO_MAX_RETRIES", "GROUPSIO_RETRY_DELAY"} {
				t.Setenv(key, "")
			}
			for key, value := range tc.env {
				t.Setenv(key, value)
			}
			tc.expect(t, NewConfigFromEnv())
		})
	}
}
