// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akamensky/base58"
	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/log"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
)

const (
	// DefaultQueueMaxAttempts is used when neither the queue nor the item sets a bound
	DefaultQueueMaxAttempts = 5
	defaultQueueBaseDelay   = time.Minute
	defaultQueueMaxDelay    = 6 * time.Hour
)

// BackoffFunc returns the wait before the next attempt after attempts failures
type BackoffFunc func(attempts int) time.Duration

// ExponentialBackoff doubles base for each failed attempt, capped at ceiling
func ExponentialBackoff(base, ceiling time.Duration) BackoffFunc {
	return func(attempts int) time.Duration {
		if attempts < 1 {
			attempts = 1
		}
		delay := base
		for i := 1; i < attempts; i++ {
			delay *= 2
			if delay >= ceiling || delay <= 0 {
				return ceiling
			}
		}
		if delay > ceiling {
			return ceiling
		}
		return delay
	}
}

// AttemptFunc performs one queued action. The item may be updated in place,
// and the changes are kept when the attempt fails.
type AttemptFunc func(ctx context.Context, item *model.QueueItem) error

// PassResult holds the outcomes of one processing pass
type PassResult struct {
	Succeeded    []model.QueueItem
	Requeued     []model.QueueItem
	DeadLettered []model.DeadLetter
}

// RetryableActionQueue is a persisted FIFO of expiry actions with bounded
// retries and a dead-letter list.
type RetryableActionQueue struct {
	store       port.PropertyStore
	key         string
	deadKey     string
	maxAttempts int
	backoff     BackoffFunc
	now         func() time.Time
	metrics     *lifecycleMetrics
}

type retryableActionQueueOption func(*RetryableActionQueue)

// WithQueueMaxAttempts sets the default number of attempts per item
func WithQueueMaxAttempts(n int) retryableActionQueueOption {
	return func(q *RetryableActionQueue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// WithQueueBackoff sets the retry delay policy
func WithQueueBackoff(backoff BackoffFunc) retryableActionQueueOption {
	return func(q *RetryableActionQueue) {
		if backoff != nil {
			q.backoff = backoff
		}
	}
}

// WithQueueClock sets the time source
func WithQueueClock(now func() time.Time) retryableActionQueueOption {
	return func(q *RetryableActionQueue) {
		if now != nil {
			q.now = now
		}
	}
}

// Enqueue appends a new action, eligible immediately
func (q *RetryableActionQueue) Enqueue(ctx context.Context, action model.ExpiryAction) (*model.QueueItem, error) {
	items, err := loadList[model.QueueItem](ctx, q.store, q.key)
	if err != nil {
		return nil, err
	}

	now := q.now()
	id := uuid.New()
	item := model.QueueItem{
		ID:            base58.Encode(id[:]),
		Action:        action,
		NextAttemptAt: now,
		EnqueuedAt:    now,
	}
	items = append(items, item)
	if err := saveList(ctx, q.store, q.key, items); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "expiry action enqueued",
		"item_id", item.ID,
		"type", string(action.Type),
		"member", redaction.RedactEmail(action.Email),
	)
	return &item, nil
}

// Items returns the queued items in FIFO order
func (q *RetryableActionQueue) Items(ctx context.Context) ([]model.QueueItem, error) {
	return loadList[model.QueueItem](ctx, q.store, q.key)
}

// DeadLetters returns every retired item
func (q *RetryableActionQueue) DeadLetters(ctx context.Context) ([]model.DeadLetter, error) {
	return loadList[model.DeadLetter](ctx, q.store, q.deadKey)
}

// Process attempts every eligible item once, in FIFO order. Successful items
// leave the queue; failed ones are rescheduled or, once out of attempts,
// moved to the dead-letter list. Failures and panics of one item never stop
// the pass. The returned error only reports storage problems.
func (q *RetryableActionQueue) Process(ctx context.Context, attempt AttemptFunc) (PassResult, error) {
	var result PassResult

	snapshot, err := loadList[model.QueueItem](ctx, q.store, q.key)
	if err != nil {
		return result, err
	}

	seen := make(map[string]struct{}, len(snapshot))
	remaining := make([]model.QueueItem, 0, len(snapshot))
	for i := range snapshot {
		item := snapshot[i].Copy()
		seen[item.ID] = struct{}{}

		now := q.now()
		if ctx.Err() != nil || !item.Eligible(now) {
			remaining = append(remaining, *item)
			continue
		}

		errAttempt := q.attempt(ctx, attempt, item)
		if errAttempt == nil {
			result.Succeeded = append(result.Succeeded, *item)
			q.metrics.queueItem(ctx, "succeeded")
			slog.DebugContext(ctx, "expiry action completed",
				"item_id", item.ID,
				"type", string(item.Action.Type),
			)
			continue
		}

		item.Attempts++
		item.LastError = errAttempt.Error()
		attemptedAt := now
		item.LastAttemptAt = &attemptedAt
		item.NextAttemptAt = now.Add(q.backoff(item.Attempts))

		if item.Attempts >= q.limitFor(item) {
			item.Dead = true
			result.DeadLettered = append(result.DeadLettered, model.DeadLetter{Item: *item, RetiredAt: now})
			q.metrics.queueItem(ctx, "dead_lettered")
			slog.ErrorContext(ctx, "expiry action dead-lettered",
				"item_id", item.ID,
				"type", string(item.Action.Type),
				"member", redaction.RedactEmail(item.Action.Email),
				"attempts", item.Attempts,
				"error", errAttempt,
				log.PriorityCritical(),
			)
			continue
		}

		result.Requeued = append(result.Requeued, *item)
		q.metrics.queueItem(ctx, "requeued")
		slog.WarnContext(ctx, "expiry action failed, will retry",
			"item_id", item.ID,
			"type", string(item.Action.Type),
			"attempts", item.Attempts,
			"last_attempt_at", log.LogOptionalTime(item.LastAttemptAt),
			"next_attempt_at", item.NextAttemptAt,
			"error", errAttempt,
		)
		remaining = append(remaining, *item)
	}

	// items enqueued by another invocation while this pass ran
	current, err := loadList[model.QueueItem](ctx, q.store, q.key)
	if err != nil {
		return result, err
	}
	for _, item := range current {
		if _, ok := seen[item.ID]; !ok {
			remaining = append(remaining, item)
		}
	}

	if err := saveList(ctx, q.store, q.key, remaining); err != nil {
		return result, err
	}
	if len(result.DeadLettered) > 0 {
		dead, errDead := loadList[model.DeadLetter](ctx, q.store, q.deadKey)
		if errDead != nil {
			return result, errDead
		}
		if errDead = saveList(ctx, q.store, q.deadKey, append(dead, result.DeadLettered...)); errDead != nil {
			return result, errDead
		}
	}
	return result, ctx.Err()
}

func (q *RetryableActionQueue) attempt(ctx context.Context, attempt AttemptFunc, item *model.QueueItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return attempt(ctx, item)
}

func (q *RetryableActionQueue) limitFor(item *model.QueueItem) int {
	if item.MaxAttempts > 0 {
		return item.MaxAttempts
	}
	return q.maxAttempts
}

// NewRetryableActionQueue creates a queue persisted in store
func NewRetryableActionQueue(store port.PropertyStore, opts ...retryableActionQueueOption) *RetryableActionQueue {
	q := &RetryableActionQueue{
		store:       store,
		key:         constants.PropertyExpiryQueue,
		deadKey:     constants.PropertyExpiryDeadLetter,
		maxAttempts: DefaultQueueMaxAttempts,
		backoff:     ExponentialBackoff(defaultQueueBaseDelay, defaultQueueMaxDelay),
		now:         time.Now,
		metrics:     newLifecycleMetrics(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}
