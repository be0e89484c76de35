// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import "time"

// ScheduleEntry is the due date of one expiry action for one member
type ScheduleEntry struct {
	Date  time.Time  `json:"date"`
	Email string     `json:"email"`
	Type  ActionType `json:"type"`
	// Expires is the member expiry the date was computed from
	Expires time.Time `json:"expires"`
}

// IsDue reports whether the entry date is on or before asOf
func (e ScheduleEntry) IsDue(asOf time.Time) bool {
	return !e.Date.After(asOf)
}

// Key identifies the (member, action type) pair
func (e ScheduleEntry) Key() string {
	return NormalizeEmail(e.Email) + "|" + string(e.Type)
}

// Valid reports whether the entry has everything needed to fire
func (e ScheduleEntry) Valid() bool {
	return NormalizeEmail(e.Email) != "" && e.Type.IsExpiry() && !e.Date.IsZero()
}
