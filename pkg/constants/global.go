// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package constants defines global constants used throughout the membership lifecycle service.
package constants

// Service constants
const (
	// ServiceName is the name of this service
	ServiceName = "membership-lifecycle"
)

// HTTP header constants
const (
	// RequestIDHeader is the HTTP header name for request ID
	RequestIDHeader = "X-Request-Id"
)

// Environment variables
const (
	// EnvNATSURL is the environment variable for NATS server URL
	EnvNATSURL = "NATS_URL"
	// EnvNATSCredentials is the environment variable for NATS credentials
	EnvNATSCredentials = "NATS_CREDENTIALS"

	// EnvDirectorySource selects the directory implementation (mock, admin)
	EnvDirectorySource = "DIRECTORY_SOURCE"
	// EnvGroupsSource selects the group backend (mock, groupsio)
	EnvGroupsSource = "GROUPS_SOURCE"
	// EnvPropertySource selects the property store (mock, nats, redis)
	EnvPropertySource = "PROPERTY_SOURCE"
	// EnvTransactionSource selects the transaction store (mock, postgres)
	EnvTransactionSource = "TRANSACTION_SOURCE"
	// EnvEmailSource selects the mail relay (mock, nats, amqp)
	EnvEmailSource = "EMAIL_SOURCE"
	// EnvEventSource selects where lifecycle events are published (mock, nats)
	EnvEventSource = "EVENT_SOURCE"
	// EnvActionSpecFile is the path of the YAML action spec file
	EnvActionSpecFile = "ACTION_SPEC_FILE"

	// EnvClubDomain is the domain primary emails are provisioned under
	EnvClubDomain = "CLUB_DOMAIN"
	// EnvOrgUnitPath is the directory placement for new members
	EnvOrgUnitPath = "MEMBER_ORG_UNIT_PATH"
	// EnvOperatorEmail receives consolidated alerts
	EnvOperatorEmail = "OPERATOR_EMAIL"

	// EnvQueueMaxAttempts overrides DefaultQueueMaxAttempts
	EnvQueueMaxAttempts = "QUEUE_MAX_ATTEMPTS"
	// EnvExpiryCheckInterval is how often due expiry actions are checked (Go duration)
	EnvExpiryCheckInterval = "EXPIRY_CHECK_INTERVAL"
	// EnvTerminationPeriod bounds graceful shutdown (Go duration)
	EnvTerminationPeriod = "TERMINATION_GRACE_PERIOD"
	// EnvHealthPort is the port the health endpoints listen on
	EnvHealthPort = "PORT"
)

// Membership defaults
const (
	// DefaultOrgUnitPath is used when EnvOrgUnitPath is unset
	DefaultOrgUnitPath = "/members"
	// MaxGenerations bounds the primary email disambiguation counter
	MaxGenerations = 20
	// DefaultExpiryCheckInterval is used when EnvExpiryCheckInterval is unset
	DefaultExpiryCheckInterval = "1h"
)
