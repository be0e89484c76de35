// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestExponentialBackoff(t *testing.T) {
	backoff := ExponentialBackoff(time.Minute, 10*time.Minute)

	testCases := []struct {
		attempts int
		expected time.Duration
	}{
		{attempts: 0, expected: time.Minute},
		{attempts: 1, expected: time.Minute},
		{attempts: 2, expected: 2 * time.Minute},
		{attempts: 3, expected: 4 * time.Minute},
		{attempts: 4, expected: 8 * time.Minute},
		{attempts: 5, expected: 10 * time.Minute},
		{attempts: 60, expected: 10 * time.Minute},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, backoff(tc.attempts), "attempts=%d", tc.attempts)
	}

	previous := time.Duration(0)
	for attempts := 1; attempts < 100; attempts++ {
		current := backoff(attempts)
		assert.GreaterOrEqual(t, current, previous)
		previous = current
	}
}

func TestRetryableActionQueue_SuccessRemovesItem(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	queue := NewRetryableActionQueue(mock.NewMockPropertyStore(), WithQueueClock(clock.Now))

	item, err := queue.Enqueue(ctx, model.ExpiryAction{Email: "a@club.org", Type: model.ActionExpiry1})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, 0, item.Attempts)
	assert.Equal(t, clock.Now(), item.NextAttemptAt)

	attempted := 0
	result, err := queue.Process(ctx, func(context.Context, *model.QueueItem) error {
		attempted++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempted)
	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, item.ID, result.Succeeded[0].ID)

	items, err := queue.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRetryableActionQueue_DeadAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	queue := NewRetryableActionQueue(mock.NewMockPropertyStore(),
		WithQueueClock(clock.Now),
		WithQueueMaxAttempts(3),
		WithQueueBackoff(func(int) time.Duration { return time.Minute }),
	)

	_, err := queue.Enqueue(ctx, model.ExpiryAction{Email: "a@club.org", Type: model.ActionExpiry4})
	require.NoError(t, err)

	failing := func(context.Context, *model.QueueItem) error {
		return errs.NewBackend("directory unavailable")
	}

	for pass := 1; pass <= 2; pass++ {
		result, errProcess := queue.Process(ctx, failing)
		require.NoError(t, errProcess)
		require.Len(t, result.Requeued, 1, "pass %d", pass)
		assert.Equal(t, pass, result.Requeued[0].Attempts)
		assert.Equal(t, "directory unavailable", result.Requeued[0].LastError)
		require.NotNil(t, result.Requeued[0].LastAttemptAt)
		assert.Equal(t, clock.Now().Add(time.Minute), result.Requeued[0].NextAttemptAt)

		// not eligible until the backoff elapsed
		skipped, errSkip := queue.Process(ctx, failing)
		require.NoError(t, errSkip)
		assert.Empty(t, skipped.Requeued)
		assert.Empty(t, skipped.DeadLettered)

		clock.Advance(time.Minute)
	}

	result, err := queue.Process(ctx, failing)
	require.NoError(t, err)
	require.Len(t, result.DeadLettered, 1)
	assert.Equal(t, 3, result.DeadLettered[0].Item.Attempts)
	assert.True(t, result.DeadLettered[0].Item.Dead)

	items, err := queue.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "dead items leave the live queue")

	dead, err := queue.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "a@club.org", dead[0].Item.Action.Email)

	clock.Advance(time.Hour)
	attempted := false
	_, err = queue.Process(ctx, func(context.Context, *model.QueueItem) error {
		attempted = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, attempted, "dead items are never attempted again")
}

func TestRetryableActionQueue_ItemMaxAttemptsOverride(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := mock.NewMockPropertyStore()
	require.NoError(t, store.Set(ctx, constants.PropertyExpiryQueue,
		`[{"id":"one-shot","action":{"email":"a@club.org","type":"Expiry2"},"max_attempts":1,"next_attempt_at":"2025-03-10T09:00:00Z"}]`))

	queue := NewRetryableActionQueue(store, WithQueueClock(clock.Now))
	result, err := queue.Process(ctx, func(context.Context, *model.QueueItem) error {
		return stderrors.New("smtp down")
	})
	require.NoError(t, err)
	require.Len(t, result.DeadLettered, 1)
	assert.Equal(t, "one-shot", result.DeadLettered[0].Item.ID)
}

func TestRetryableActionQueue_FailuresDoNotStopThePass(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	queue := NewRetryableActionQueue(mock.NewMockPropertyStore(), WithQueueClock(clock.Now))

	for _, email := range []string{"panic@club.org", "fail@club.org", "ok@club.org"} {
		_, err := queue.Enqueue(ctx, model.ExpiryAction{Email: email, Type: model.ActionExpiry1})
		require.NoError(t, err)
	}

	var order []string
	result, err := queue.Process(ctx, func(_ context.Context, item *model.QueueItem) error {
		order = append(order, item.Action.Email)
		switch item.Action.Email {
		case "panic@club.org":
			panic("nil member")
		case "fail@club.org":
			return stderrors.New("rejected")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"panic@club.org", "fail@club.org", "ok@club.org"}, order, "FIFO order")
	assert.Len(t, result.Succeeded, 1)
	require.Len(t, result.Requeued, 2)
	assert.Equal(t, "panic: nil member", result.Requeued[0].LastError)

	items, err := queue.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "panic@club.org", items[0].Action.Email)
	assert.Equal(t, "fail@club.org", items[1].Action.Email)
}

func TestRetryableActionQueue_KeepsAttemptProgress(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	queue := NewRetryableActionQueue(mock.NewMockPropertyStore(), WithQueueClock(clock.Now))

	_, err := queue.Enqueue(ctx, model.ExpiryAction{Email: "a@club.org", Type: model.ActionExpiry3})
	require.NoError(t, err)

	_, err = queue.Process(ctx, func(_ context.Context, item *model.QueueItem) error {
		item.EmailSent = true
		return stderrors.New("group removal failed")
	})
	require.NoError(t, err)

	items, err := queue.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].EmailSent)
}

func TestRetryableActionQueue_MergesConcurrentEnqueue(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := mock.NewMockPropertyStore()
	queue := NewRetryableActionQueue(store, WithQueueClock(clock.Now))
	other := NewRetryableActionQueue(store, WithQueueClock(clock.Now))

	_, err := queue.Enqueue(ctx, model.ExpiryAction{Email: "first@club.org", Type: model.ActionExpiry1})
	require.NoError(t, err)

	result, err := queue.Process(ctx, func(ctx context.Context, item *model.QueueItem) error {
		_, errEnqueue := other.Enqueue(ctx, model.ExpiryAction{Email: "late@club.org", Type: model.ActionExpiry1})
		return errEnqueue
	})
	require.NoError(t, err)
	assert.Len(t, result.Succeeded, 1)

	items, err := queue.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "late@club.org", items[0].Action.Email)
}

func TestRetryableActionQueue_StorageFailure(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockPropertyStore()
	store.SetErrorForOperation(mock.OpPropertyGet, errs.NewServiceUnavailable("kv down"))
	queue := NewRetryableActionQueue(store)

	_, err := queue.Process(ctx, func(context.Context, *model.QueueItem) error { return nil })
	assert.Error(t, err)

	_, err = queue.Enqueue(ctx, model.ExpiryAction{Email: "a@club.org", Type: model.ActionExpiry1})
	assert.Error(t, err)
}
