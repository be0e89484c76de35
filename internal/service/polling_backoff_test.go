// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
)

const testHandler = constants.HandlerCheckPaymentStatus

func installedIntervals(t *testing.T, scheduler *mock.MockTriggerScheduler) []time.Duration {
	t.Helper()
	triggers, err := scheduler.List(context.Background())
	require.NoError(t, err)
	var out []time.Duration
	for _, tr := range triggers {
		if tr.Handler == testHandler {
			out = append(out, tr.Interval)
		}
	}
	return out
}

func TestPollingBackoffController_Escalation(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := mock.NewMockPropertyStore()
	scheduler := mock.NewMockTriggerScheduler()
	pending := true
	controller := NewPollingBackoffController(store, scheduler, testHandler,
		func(context.Context) (bool, error) { return pending, nil },
		WithPollClock(clock.Now),
	)

	require.NoError(t, controller.Start(ctx))
	assert.Equal(t, []time.Duration{model.PollTier1}, installedIntervals(t, scheduler))

	for minute := 1; minute <= 20; minute++ {
		clock.Advance(time.Minute)
		interval, err := controller.Check(ctx)
		require.NoError(t, err)

		var expected time.Duration
		switch {
		case minute <= 5:
			expected = model.PollTier1
		case minute <= 15:
			expected = model.PollTier2
		default:
			expected = model.PollTier3
		}
		assert.Equal(t, expected, interval, "minute %d", minute)
		assert.Equal(t, []time.Duration{expected}, installedIntervals(t, scheduler), "exactly one trigger at minute %d", minute)
	}

	state, err := controller.State(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Nil(t, state.StartedAt, "no further escalation after the last tier")

	pending = false
	clock.Advance(time.Hour)
	interval, err := controller.Check(ctx)
	require.NoError(t, err)
	assert.Zero(t, interval)
	assert.Empty(t, installedIntervals(t, scheduler))

	state, err = controller.State(ctx)
	require.NoError(t, err)
	assert.Nil(t, state, "state is cleared when idle")
}

func TestPollingBackoffController_ClearsAtAnyTier(t *testing.T) {
	testCases := []struct {
		name   string
		checks int
		atTier time.Duration
	}{
		{name: "cleared at 1m", checks: 2, atTier: model.PollTier1},
		{name: "cleared at 5m", checks: 8, atTier: model.PollTier2},
		{name: "cleared at 60m", checks: 17, atTier: model.PollTier3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			scheduler := mock.NewMockTriggerScheduler()
			pending := true
			controller := NewPollingBackoffController(mock.NewMockPropertyStore(), scheduler, testHandler,
				func(context.Context) (bool, error) { return pending, nil },
				WithPollClock(clock.Now),
			)
			require.NoError(t, controller.Start(ctx))

			for i := 0; i < tc.checks; i++ {
				clock.Advance(time.Minute)
				_, err := controller.Check(ctx)
				require.NoError(t, err)
			}
			assert.Equal(t, []time.Duration{tc.atTier}, installedIntervals(t, scheduler))

			pending = false
			interval, err := controller.Check(ctx)
			require.NoError(t, err)
			assert.Zero(t, interval)
			assert.Empty(t, installedIntervals(t, scheduler))
		})
	}
}

func TestPollingBackoffController_StartRestarts(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	scheduler := mock.NewMockTriggerScheduler()
	controller := NewPollingBackoffController(mock.NewMockPropertyStore(), scheduler, testHandler,
		func(context.Context) (bool, error) { return true, nil },
		WithPollClock(clock.Now),
	)

	require.NoError(t, controller.Start(ctx))
	for i := 0; i < 7; i++ {
		clock.Advance(time.Minute)
		_, err := controller.Check(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, []time.Duration{model.PollTier2}, installedIntervals(t, scheduler))

	// a new submission brings the fine granularity back
	require.NoError(t, controller.Start(ctx))
	assert.Equal(t, []time.Duration{model.PollTier1}, installedIntervals(t, scheduler))

	state, err := controller.State(ctx)
	require.NoError(t, err)
	require.NotNil(t, state.StartedAt)
	assert.Equal(t, clock.Now(), *state.StartedAt)
}

func TestPollingBackoffController_WatermarkShortCircuit(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	scans := 0
	watermark := clock.Now()
	controller := NewPollingBackoffController(mock.NewMockPropertyStore(), mock.NewMockTriggerScheduler(), testHandler,
		func(context.Context) (bool, error) {
			scans++
			return true, nil
		},
		WithPollClock(clock.Now),
		WithPollWatermark(func(context.Context) (time.Time, error) { return watermark, nil }),
	)
	require.NoError(t, controller.Start(ctx))

	for i := 0; i < 3; i++ {
		clock.Advance(time.Minute)
		_, err := controller.Check(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, scans, "unchanged source is scanned once")

	watermark = watermark.Add(30 * time.Second)
	clock.Advance(time.Minute)
	_, err := controller.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, scans)
}

func TestPollingBackoffController_CheckWhenIdleRemovesStrayTriggers(t *testing.T) {
	ctx := context.Background()
	scheduler := mock.NewMockTriggerScheduler()
	_, err := scheduler.Create(ctx, testHandler, model.PollTier2)
	require.NoError(t, err)
	_, err = scheduler.Create(ctx, constants.HandlerCheckExpiries, time.Hour)
	require.NoError(t, err)

	controller := NewPollingBackoffController(mock.NewMockPropertyStore(), scheduler, testHandler,
		func(context.Context) (bool, error) { return true, nil })

	interval, err := controller.Check(ctx)
	require.NoError(t, err)
	assert.Zero(t, interval)
	assert.Empty(t, installedIntervals(t, scheduler))

	triggers, err := scheduler.List(ctx)
	require.NoError(t, err)
	assert.Len(t, triggers, 1, "other handlers keep their triggers")
}
