// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"fmt"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
)

// ValidateRFC3339 validates that a timestamp string is in RFC3339 format.
// Returns the parsed time.Time and nil error if valid, or zero time and error if invalid.
func ValidateRFC3339(timestamp string) (time.Time, error) {
	if timestamp == "" {
		return time.Time{}, fmt.Errorf(constants.ErrEmptyTimestamp)
	}

	t, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", constants.ErrInvalidTimestampFormat, err)
	}

	return t, nil
}

// ParseDate accepts either a calendar date (2006-01-02) or an RFC3339
// timestamp and returns the start of that day in UTC.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf(constants.ErrEmptyTimestamp)
	}

	if t, err := time.Parse(constants.DateFormat, value); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", constants.ErrInvalidDateFormat, err)
	}
	return StartOfDay(t), nil
}

// FormatDate renders t as a calendar date, empty for the zero time
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(constants.DateFormat)
}

// StartOfDay truncates t to midnight UTC of the same calendar day
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a date by a signed number of days
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// AddYears shifts a date by a number of years
func AddYears(t time.Time, years int) time.Time {
	return t.AddDate(years, 0, 0)
}

// LaterOf returns the later of a and b
func LaterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
