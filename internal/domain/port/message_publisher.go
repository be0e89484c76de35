// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import "context"

// MessagePublisher publishes lifecycle outcome events for downstream consumers
// such as audit trails and dashboards
type MessagePublisher interface {
	// Event publishes message as JSON on subject
	Event(ctx context.Context, subject string, message any) error
}
