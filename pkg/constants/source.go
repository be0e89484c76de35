// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"fmt"
	"slices"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

// Source constants name the backend selected for each external collaborator
const (
	SourceMock     = "mock"
	SourceNATS     = "nats"
	SourceRedis    = "redis"
	SourcePostgres = "postgres"
	SourceAMQP     = "amqp"
	SourceAdmin    = "admin"
	SourceGroupsIO = "groupsio"
)

// ValidateSource validates that source is one of allowed
func ValidateSource(source string, allowed ...string) error {
	if source == "" {
		return errors.NewValidation("source is required")
	}
	if slices.Contains(allowed, source) {
		return nil
	}
	return errors.NewValidation(
		fmt.Sprintf("unsupported source: %s (must be one of %v)", source, allowed))
}
