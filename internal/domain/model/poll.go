// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import "time"

// Polling granularities
const (
	PollTier1 = time.Minute
	PollTier2 = 5 * time.Minute
	PollTier3 = 60 * time.Minute
)

// PollState is the persisted state of the payment polling trigger
type PollState struct {
	TriggerID string `json:"trigger_id,omitempty"`
	// StartedAt is the first detection of the pending condition, cleared at the last tier
	StartedAt *time.Time    `json:"started_at,omitempty"`
	Interval  time.Duration `json:"interval"`
	// Watermark is the last-modified time of the watched source seen by the previous check
	Watermark time.Time `json:"watermark"`
}

// IsIdle reports whether no trigger is installed
func (s *PollState) IsIdle() bool {
	return s == nil || (s.TriggerID == "" && s.Interval == 0)
}
