// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

func TestSchedulerCreateValidation(t *testing.T) {
	s := NewScheduler(context.Background())
	defer s.Stop()
	s.Register(constants.HandlerCheckExpiries, func(context.Context) error { return nil })

	_, err := s.Create(context.Background(), "unknown", time.Minute)
	assert.True(t, errs.IsValidation(err))

	_, err = s.Create(context.Background(), constants.HandlerCheckExpiries, 0)
	assert.True(t, errs.IsValidation(err))

	assert.True(t, errs.IsNotFound(s.Delete(context.Background(), "missing")))
}

func TestSchedulerListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewScheduler(ctx)
	defer s.Stop()
	s.Register(constants.HandlerCheckExpiries, func(context.Context) error { return nil })
	s.Register(constants.HandlerCheckPaymentStatus, func(context.Context) error { return nil })

	pollID, err := s.Create(ctx, constants.HandlerCheckPaymentStatus, time.Hour)
	require.NoError(t, err)
	_, err = s.Create(ctx, constants.HandlerCheckExpiries, time.Hour)
	require.NoError(t, err)

	triggers, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, triggers, 2)
	assert.Equal(t, constants.HandlerCheckExpiries, triggers[0].Handler)
	assert.Equal(t, constants.HandlerCheckPaymentStatus, triggers[1].Handler)
	assert.Equal(t, time.Hour, triggers[1].Interval)

	require.NoError(t, s.Delete(ctx, pollID))
	triggers, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, triggers, 1)
}

func TestSchedulerFiresRepeatedly(t *testing.T) {
	s := NewScheduler(context.Background())
	defer s.Stop()

	var runs atomic.Int32
	var sawTrigger atomic.Bool
	s.Register(constants.HandlerCheckExpiries, func(ctx context.Context) error {
		if id, ok := ctx.Value(constants.TriggerContextKey).(string); ok && id != "" {
			sawTrigger.Store(true)
		}
		runs.Add(1)
		return errors.New("handler errors are logged, not fatal")
	})

	_, err := s.Create(context.Background(), constants.HandlerCheckExpiries, 2*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	assert.True(t, sawTrigger.Load())
}

func TestSchedulerRunsDoNotOverlap(t *testing.T) {
	s := NewScheduler(context.Background())

	var active, maxActive, runs atomic.Int32
	s.Register(constants.HandlerCheckPaymentStatus, func(context.Context) error {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
		runs.Add(1)
		return nil
	})

	for range 3 {
		_, err := s.Create(context.Background(), constants.HandlerCheckPaymentStatus, time.Millisecond)
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return runs.Load() >= 6 }, 2*time.Second, time.Millisecond)
	s.Stop()
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestSchedulerHandlerCanDeleteItsTrigger(t *testing.T) {
	s := NewScheduler(context.Background())
	defer s.Stop()

	var runs atomic.Int32
	s.Register(constants.HandlerCheckPaymentStatus, func(ctx context.Context) error {
		runs.Add(1)
		id, _ := ctx.Value(constants.TriggerContextKey).(string)
		return s.Delete(ctx, id)
	})

	_, err := s.Create(context.Background(), constants.HandlerCheckPaymentStatus, time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	triggers, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, triggers)
}

func TestSchedulerStopRejectsCreate(t *testing.T) {
	s := NewScheduler(context.Background())
	s.Register(constants.HandlerCheckExpiries, func(context.Context) error { return nil })
	s.Stop()

	_, err := s.Create(context.Background(), constants.HandlerCheckExpiries, time.Minute)
	var unavailable errs.ServiceUnavailable
	assert.ErrorAs(t, err, &unavailable)
}
