// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"
	"time"
)

// Trigger is an installed recurring trigger
type Trigger struct {
	ID       string
	Handler  string
	Interval time.Duration
}

// TriggerScheduler installs recurring time-based triggers bound to a named handler
type TriggerScheduler interface {
	Create(ctx context.Context, handler string, interval time.Duration) (string, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Trigger, error)
}
