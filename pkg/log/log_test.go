// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestLogOptionalTime(t *testing.T) {
	ts := time.Date(2026, time.March, 1, 12, 30, 0, 0, time.UTC)
	zero := time.Time{}

	tests := []struct {
		name     string
		input    *time.Time
		expected slog.Value
	}{
		{
			name:     "nil pointer returns nil value",
			input:    nil,
			expected: slog.AnyValue(nil),
		},
		{
			name:     "zero time returns nil value",
			input:    &zero,
			expected: slog.AnyValue(nil),
		},
		{
			name:     "timestamp renders as RFC3339 UTC",
			input:    &ts,
			expected: slog.StringValue("2026-03-01T12:30:00Z"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := LogOptionalTime(tt.input)
			if !result.Equal(tt.expected) {
				t.Errorf("LogOptionalTime(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestAppendCtx(t *testing.T) {
	parent := AppendCtx(context.Background(), slog.String("member", "a@example.org"))
	left := AppendCtx(parent, slog.String("action", "Join"))
	right := AppendCtx(parent, slog.String("action", "Renew"))

	leftAttrs, _ := left.Value(slogFields).([]slog.Attr)
	rightAttrs, _ := right.Value(slogFields).([]slog.Attr)

	if len(leftAttrs) != 2 || len(rightAttrs) != 2 {
		t.Fatalf("expected two attributes on each branch, got %d and %d", len(leftAttrs), len(rightAttrs))
	}
	if leftAttrs[1].Value.String() != "Join" {
		t.Errorf("left branch overwritten: got %s", leftAttrs[1].Value.String())
	}
	if rightAttrs[1].Value.String() != "Renew" {
		t.Errorf("right branch overwritten: got %s", rightAttrs[1].Value.String())
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        logLevelDefault,
		"verbose": logLevelDefault,
	}

	for input, expected := range tests {
		if got := levelFromEnv(input); got != expected {
			t.Errorf("levelFromEnv(%q) = %v, want %v", input, got, expected)
		}
	}
}
