// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import "time"

// Lifecycle event kinds
const (
	EventApplied      = "applied"
	EventFired        = "fired"
	EventRetired      = "retired"
	EventRequeued     = "requeued"
	EventDeadLettered = "dead_lettered"
	EventBatchFailed  = "batch_failed"
)

// LifecycleEvent describes one outcome of the membership lifecycle
type LifecycleEvent struct {
	Kind       string     `json:"kind"`
	Action     ActionType `json:"action,omitempty"`
	Member     string     `json:"member,omitempty"`
	Detail     string     `json:"detail,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
