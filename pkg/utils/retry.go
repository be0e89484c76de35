// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package utils provides utility functions for the membership lifecycle service.
package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultRetryDelay is the pause used by RetryOnErrorKind and PollUntil
	// when no delay is configured
	DefaultRetryDelay = 250 * time.Millisecond

	// DefaultRetryAttempts bounds RetryOnErrorKind in loop mode
	DefaultRetryAttempts = 5
)

// RetryConfig holds retry configuration for operations
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// NewRetryConfig creates a RetryConfig with specified parameters
func NewRetryConfig(maxAttempts int, baseDelay, maxDelay time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
	}
}

// RetryWithExponentialBackoff executes a function with exponential backoff retry logic
// The delay between retries follows the formula: baseDelay * 2^(attempt-1)
// The delay is capped at maxDelay to prevent excessively long waits
func RetryWithExponentialBackoff(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * config.BaseDelay
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}

			slog.WarnContext(ctx, "retrying operation",
				"attempt", attempt+1,
				"total_attempts", config.MaxAttempts,
				"retry_delay_ms", delay.Milliseconds(),
			)

			if err := sleepContext(ctx, delay); err != nil {
				return fmt.Errorf("retry cancelled: %w", err)
			}
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				slog.InfoContext(ctx, "retry succeeded",
					"attempt", attempt+1,
					"total_attempts", config.MaxAttempts,
				)
			}
			return nil
		}

		lastErr = err
		slog.ErrorContext(ctx, "operation attempt failed",
			"attempt", attempt+1,
			"total_attempts", config.MaxAttempts,
			"error", err,
		)
	}

	return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// ErrorMatcher decides whether a failure belongs to the kind a retry policy handles
type ErrorMatcher func(err error) bool

// MatchKind returns an ErrorMatcher that matches any error whose chain
// contains a value of type T, e.g. MatchKind[errors.CreationIncomplete]().
func MatchKind[T error]() ErrorMatcher {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

// RetryMode selects how RetryOnErrorKind reacts to a matching failure
type RetryMode int

const (
	// RetryModeLoop re-invokes the operation after each matching failure
	// until it succeeds, fails with another kind, or the attempts run out.
	RetryModeLoop RetryMode = iota

	// RetryModeSleepRethrow waits once after a matching failure and then
	// returns that failure without re-invoking the operation.
	RetryModeSleepRethrow
)

// String returns the mode name used in logs
func (m RetryMode) String() string {
	switch m {
	case RetryModeSleepRethrow:
		return "sleep_rethrow"
	default:
		return "loop"
	}
}

// RetryOnErrorOptions configures RetryOnErrorKind
type RetryOnErrorOptions struct {
	// Delay between attempts, DefaultRetryDelay when zero
	Delay time.Duration
	// MaxAttempts bounds loop mode, DefaultRetryAttempts when zero
	MaxAttempts int
	Mode        RetryMode
}

// RetryOnErrorKind invokes op and handles failures accepted by match
// according to opts.Mode. Failures that do not match are returned at once.
// In loop mode the last matching failure is returned on exhaustion.
func RetryOnErrorKind(ctx context.Context, op func() error, match ErrorMatcher, opts RetryOnErrorOptions) error {
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	if opts.Mode == RetryModeSleepRethrow {
		err := op()
		if err == nil || !match(err) {
			return err
		}
		slog.DebugContext(ctx, "matching failure, pausing before rethrow",
			"delay_ms", delay.Milliseconds(),
			"error", err,
		)
		if errSleep := sleepContext(ctx, delay); errSleep != nil {
			return errors.Join(err, errSleep)
		}
		return err
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultRetryAttempts
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		errOp := op()
		if errOp == nil {
			return struct{}{}, nil
		}
		if !match(errOp) {
			return struct{}{}, backoff.Permanent(errOp)
		}
		return struct{}{}, errOp
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithNotify(func(errRetry error, next time.Duration) {
			slog.WarnContext(ctx, "retrying operation after matching failure",
				"error", errRetry,
				"retry_delay_ms", next.Milliseconds(),
			)
		}),
	)
	return err
}

// PollUntil evaluates predicate up to maxAttempts times, pausing delay
// between evaluations, and reports whether it ever returned true. A
// maxAttempts below one is treated as one; a zero delay uses DefaultRetryDelay.
func PollUntil(ctx context.Context, maxAttempts int, delay time.Duration, predicate func() bool) bool {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, delay); err != nil {
				return false
			}
		}
		if predicate() {
			return true
		}
	}

	slog.DebugContext(ctx, "condition not reached before attempts ran out",
		"attempts", maxAttempts,
	)
	return false
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
