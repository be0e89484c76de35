// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"slices"
	"time"
)

// ExpiryAction is a computed expiry email plus its group side effects
type ExpiryAction struct {
	Email   string     `json:"email"` // member primary email
	Type    ActionType `json:"type"`
	To      string     `json:"to"`
	Subject string     `json:"subject"`
	Body    string     `json:"body"`
	Groups  []string   `json:"groups,omitempty"`
	// Expires is the member expiry the action was computed from
	Expires time.Time `json:"expires"`
}

// QueueItem is a persisted, retryable expiry action
type QueueItem struct {
	ID            string       `json:"id"`
	Action        ExpiryAction `json:"action"`
	Attempts      int          `json:"attempts"`
	LastAttemptAt *time.Time   `json:"last_attempt_at,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
	NextAttemptAt time.Time    `json:"next_attempt_at"`
	MaxAttempts   int          `json:"max_attempts,omitempty"` // overrides the queue default when above zero
	Dead          bool         `json:"dead"`
	EnqueuedAt    time.Time    `json:"enqueued_at"`
	// EmailSent records that the message went out so retries only redo the rest
	EmailSent bool `json:"email_sent"`
}

// Eligible reports whether the item may be attempted at now
func (q *QueueItem) Eligible(now time.Time) bool {
	return !q.Dead && !q.NextAttemptAt.After(now)
}

// Copy returns an independent copy of q
func (q *QueueItem) Copy() *QueueItem {
	out := *q
	out.Action.Groups = slices.Clone(q.Action.Groups)
	if q.LastAttemptAt != nil {
		t := *q.LastAttemptAt
		out.LastAttemptAt = &t
	}
	return &out
}

// DeadLetter is a queue item retired after exhausting its attempts
type DeadLetter struct {
	Item      QueueItem `json:"item"`
	RetiredAt time.Time `json:"retired_at"`
}
