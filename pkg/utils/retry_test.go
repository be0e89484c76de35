// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// incompleteErr stands in for a directory "creation is not complete" failure
type incompleteErr struct{ msg string }

func (e incompleteErr) Error() string { return e.msg }

func TestRetryWithExponentialBackoff(t *testing.T) {
	config := NewRetryConfig(3, 5*time.Millisecond, 20*time.Millisecond)

	tests := []struct {
		name          string
		failures      int
		expectedCalls int
		expectError   bool
	}{
		{name: "succeeds first time", failures: 0, expectedCalls: 1},
		{name: "succeeds after retries", failures: 2, expectedCalls: 3},
		{name: "all attempts fail", failures: 10, expectedCalls: 3, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithExponentialBackoff(context.Background(), config, func() error {
				calls++
				if calls <= tt.failures {
					return errors.New("temporary error")
				}
				return nil
			})

			assert.Equal(t, tt.expectedCalls, calls)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed after 3 attempts")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRetryWithExponentialBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := NewRetryConfig(5, 50*time.Millisecond, time.Second)

	calls := 0
	err := RetryWithExponentialBackoff(ctx, config, func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("error requiring retry")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestMatchKind(t *testing.T) {
	match := MatchKind[incompleteErr]()

	assert.True(t, match(incompleteErr{msg: "creation is not complete"}))
	assert.True(t, match(errors.Join(errors.New("outer"), incompleteErr{msg: "inner"})))
	assert.False(t, match(errors.New("resource not found")))
}

func TestRetryOnErrorKind_Loop(t *testing.T) {
	match := MatchKind[incompleteErr]()
	opts := RetryOnErrorOptions{Delay: time.Millisecond, MaxAttempts: 4, Mode: RetryModeLoop}

	t.Run("retries matching failures until success", func(t *testing.T) {
		calls := 0
		err := RetryOnErrorKind(context.Background(), func() error {
			calls++
			if calls < 3 {
				return incompleteErr{msg: "creation is not complete"}
			}
			return nil
		}, match, opts)

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-matching failure returns immediately", func(t *testing.T) {
		calls := 0
		boom := errors.New("backend down")
		err := RetryOnErrorKind(context.Background(), func() error {
			calls++
			return boom
		}, match, opts)

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhaustion returns the last matching failure", func(t *testing.T) {
		calls := 0
		err := RetryOnErrorKind(context.Background(), func() error {
			calls++
			return incompleteErr{msg: "creation is not complete"}
		}, match, opts)

		require.Error(t, err)
		assert.True(t, match(err))
		assert.Equal(t, 4, calls)
	})
}

func TestRetryOnErrorKind_SleepRethrow(t *testing.T) {
	match := MatchKind[incompleteErr]()
	opts := RetryOnErrorOptions{Delay: 20 * time.Millisecond, Mode: RetryModeSleepRethrow}

	calls := 0
	start := time.Now()
	err := RetryOnErrorKind(context.Background(), func() error {
		calls++
		return incompleteErr{msg: "creation is not complete"}
	}, match, opts)

	require.Error(t, err)
	assert.True(t, match(err))
	assert.Equal(t, 1, calls, "sleep-rethrow mode never re-invokes the operation")
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	calls = 0
	start = time.Now()
	err = RetryOnErrorKind(context.Background(), func() error {
		calls++
		return errors.New("other")
	}, match, opts)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 20*time.Millisecond, "non-matching failures do not pause")
}

func TestRetryModeString(t *testing.T) {
	assert.Equal(t, "loop", RetryModeLoop.String())
	assert.Equal(t, "sleep_rethrow", RetryModeSleepRethrow.String())
}

func TestPollUntil(t *testing.T) {
	tests := []struct {
		name          string
		maxAttempts   int
		trueOnCall    int
		expected      bool
		expectedCalls int
	}{
		{name: "true on first evaluation", maxAttempts: 3, trueOnCall: 1, expected: true, expectedCalls: 1},
		{name: "true on last evaluation", maxAttempts: 3, trueOnCall: 3, expected: true, expectedCalls: 3},
		{name: "never true", maxAttempts: 3, trueOnCall: 0, expected: false, expectedCalls: 3},
		{name: "zero attempts evaluates once", maxAttempts: 0, trueOnCall: 0, expected: false, expectedCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got := PollUntil(context.Background(), tt.maxAttempts, time.Millisecond, func() bool {
				calls++
				return calls == tt.trueOnCall
			})

			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.expectedCalls, calls)
		})
	}
}

func TestPollUntil_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	got := PollUntil(ctx, 5, time.Second, func() bool {
		calls++
		return false
	})

	assert.False(t, got)
	assert.Equal(t, 1, calls)
}
