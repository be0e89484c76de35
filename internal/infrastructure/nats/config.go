// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

const (
	defaultURL           = "nats://localhost:4222"
	defaultTimeout       = "10s"
	defaultMaxReconnect  = "3"
	defaultReconnectWait = "2s"
)

// Config holds the NATS connection settings
type Config struct {
	URL string
	// CredentialsFile is an optional NATS user credentials (.creds) file
	CredentialsFile string
	Timeout         time.Duration
	MaxReconnect    int
	ReconnectWait   time.Duration
	// CreateBuckets creates missing key-value buckets instead of failing
	CreateBuckets bool
}

// NewConfigFromEnv reads the connection settings from the environment,
// falling back to a local server.
func NewConfigFromEnv() (Config, error) {
	timeout, err := time.ParseDuration(envOr("NATS_TIMEOUT", defaultTimeout))
	if err != nil {
		return Config{}, errors.NewValidation("invalid NATS timeout duration", err)
	}

	maxReconnect := envOr("NATS_MAX_RECONNECT", defaultMaxReconnect)
	maxReconnectInt, err := strconv.Atoi(maxReconnect)
	if err != nil {
		return Config{}, errors.NewValidation(fmt.Sprintf("invalid NATS max reconnect value %s", maxReconnect), err)
	}

	reconnectWait, err := time.ParseDuration(envOr("NATS_RECONNECT_WAIT", defaultReconnectWait))
	if err != nil {
		return Config{}, errors.NewValidation("invalid NATS reconnect wait duration", err)
	}

	createBuckets := false
	if raw := os.Getenv("NATS_CREATE_BUCKETS"); raw != "" {
		createBuckets, err = strconv.ParseBool(raw)
		if err != nil {
			return Config{}, errors.NewValidation(fmt.Sprintf("invalid NATS_CREATE_BUCKETS value %s", raw), err)
		}
	}

	return Config{
		URL:             envOr(constants.EnvNATSURL, defaultURL),
		CredentialsFile: os.Getenv(constants.EnvNATSCredentials),
		Timeout:         timeout,
		MaxReconnect:    maxReconnectInt,
		ReconnectWait:   reconnectWait,
		CreateBuckets:   createBuckets,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
