// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package httpclient

import "time"

// Config holds the HTTP client settings
type Config struct {
	// Timeout applies to each attempt
	Timeout time.Duration
	// MaxRetries is the number of attempts after the first one
	MaxRetries int
	// RetryDelay is the first pause between attempts
	RetryDelay time.Duration
	// RetryBackoff doubles the pause on each retry, with jitter, up to MaxDelay
	RetryBackoff bool
	// MaxDelay caps the pause between attempts
	MaxDelay time.Duration
}

// DefaultConfig returns the configuration used by the directory and group clients
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		MaxRetries:   2,
		RetryDelay:   time.Second,
		RetryBackoff: true,
		MaxDelay:     30 * time.Second,
	}
}
