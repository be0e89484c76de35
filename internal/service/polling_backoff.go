// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/log"
)

const (
	// escalateToTier2After is the pending time before the 1m trigger becomes 5m
	escalateToTier2After = 5 * time.Minute
	// escalateToTier3After is the pending time before the 5m trigger becomes 60m
	escalateToTier3After = 15 * time.Minute
)

// PendingFunc reports whether the watched condition still holds
type PendingFunc func(ctx context.Context) (bool, error)

// WatermarkFunc returns the last-modified time of the watched source
type WatermarkFunc func(ctx context.Context) (time.Time, error)

// PollingBackoffController installs a recurring trigger while a condition
// is pending, slows it down the longer the condition persists and removes
// it once the condition clears.
type PollingBackoffController struct {
	store     port.PropertyStore
	scheduler port.TriggerScheduler
	handler   string
	key       string
	pending   PendingFunc
	watermark WatermarkFunc
	now       func() time.Time
	metrics   *lifecycleMetrics
}

type pollingBackoffControllerOption func(*PollingBackoffController)

// WithPollWatermark skips the pending scan while the source is unchanged
func WithPollWatermark(watermark WatermarkFunc) pollingBackoffControllerOption {
	return func(c *PollingBackoffController) {
		c.watermark = watermark
	}
}

// WithPollClock sets the time source
func WithPollClock(now func() time.Time) pollingBackoffControllerOption {
	return func(c *PollingBackoffController) {
		if now != nil {
			c.now = now
		}
	}
}

// State returns the persisted state, nil when idle
func (c *PollingBackoffController) State(ctx context.Context) (*model.PollState, error) {
	state, found, err := loadValue[model.PollState](ctx, c.store, c.key)
	if err != nil || !found || state.IsIdle() {
		return nil, err
	}
	return &state, nil
}

// Start (re)installs the trigger at the finest granularity and restarts the
// escalation clock.
func (c *PollingBackoffController) Start(ctx context.Context) error {
	if err := c.removeTriggers(ctx); err != nil {
		return err
	}

	id, err := c.scheduler.Create(ctx, c.handler, model.PollTier1)
	if err != nil {
		return err
	}

	now := c.now()
	state := model.PollState{
		TriggerID: id,
		StartedAt: &now,
		Interval:  model.PollTier1,
	}
	if err := saveValue(ctx, c.store, c.key, state); err != nil {
		return err
	}

	slog.InfoContext(ctx, "payment polling started",
		"handler", c.handler,
		"trigger_id", id,
		"interval", model.PollTier1.String(),
	)
	return nil
}

// Check runs on each trigger firing and returns the interval now installed,
// zero once the controller is idle.
func (c *PollingBackoffController) Check(ctx context.Context) (time.Duration, error) {
	state, err := c.State(ctx)
	if err != nil {
		return 0, err
	}
	if state == nil {
		// a firing without state is a leftover trigger
		return 0, c.removeTriggers(ctx)
	}

	pending, err := c.isPending(ctx, state)
	if err != nil {
		return state.Interval, err
	}

	if !pending {
		if err := c.removeTriggers(ctx); err != nil {
			return state.Interval, err
		}
		if err := c.store.Delete(ctx, c.key); err != nil {
			return 0, err
		}
		c.metrics.pollCheck(ctx, "idle")
		slog.InfoContext(ctx, "payment polling stopped, nothing pending", "handler", c.handler)
		return 0, nil
	}

	if err := c.escalate(ctx, state); err != nil {
		return state.Interval, err
	}
	if err := saveValue(ctx, c.store, c.key, *state); err != nil {
		return state.Interval, err
	}
	c.metrics.pollCheck(ctx, state.Interval.String())
	return state.Interval, nil
}

func (c *PollingBackoffController) isPending(ctx context.Context, state *model.PollState) (bool, error) {
	var mark time.Time
	if c.watermark != nil {
		current, err := c.watermark(ctx)
		if err != nil {
			slog.WarnContext(ctx, "failed to read watermark, scanning", "error", err)
		} else {
			if !state.Watermark.IsZero() && !current.After(state.Watermark) {
				slog.DebugContext(ctx, "watched source unchanged, still pending",
					"watermark", state.Watermark,
				)
				return true, nil
			}
			mark = current
		}
	}

	pending, err := c.pending(ctx)
	if err != nil {
		return false, err
	}
	state.Watermark = mark
	return pending, nil
}

func (c *PollingBackoffController) escalate(ctx context.Context, state *model.PollState) error {
	if state.StartedAt == nil {
		return nil
	}
	now := c.now()
	elapsed := now.Sub(*state.StartedAt)

	var next time.Duration
	switch {
	case state.Interval == model.PollTier1 && elapsed > escalateToTier2After:
		next = model.PollTier2
	case state.Interval == model.PollTier2 && elapsed > escalateToTier3After:
		next = model.PollTier3
	default:
		return nil
	}

	if err := c.deleteTrigger(ctx, state.TriggerID); err != nil {
		return err
	}
	id, err := c.scheduler.Create(ctx, c.handler, next)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "payment polling slowed down",
		"handler", c.handler,
		"from", state.Interval.String(),
		"to", next.String(),
		"pending_for", elapsed.String(),
		"started_at", log.LogOptionalTime(state.StartedAt),
	)

	state.TriggerID = id
	state.Interval = next
	if next == model.PollTier3 {
		state.StartedAt = nil
	}
	return nil
}

// removeTriggers deletes every trigger bound to the handler
func (c *PollingBackoffController) removeTriggers(ctx context.Context) error {
	triggers, err := c.scheduler.List(ctx)
	if err != nil {
		return err
	}
	for _, t := range triggers {
		if t.Handler != c.handler {
			continue
		}
		if err := c.deleteTrigger(ctx, t.ID); err != nil {
			return err
		}
	}
	return nil
}

func (c *PollingBackoffController) deleteTrigger(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	err := c.scheduler.Delete(ctx, id)
	if err != nil && !errs.IsNotFound(err) {
		return err
	}
	return nil
}

// NewPollingBackoffController creates a controller for the handler name
func NewPollingBackoffController(
	store port.PropertyStore,
	scheduler port.TriggerScheduler,
	handler string,
	pending PendingFunc,
	opts ...pollingBackoffControllerOption,
) *PollingBackoffController {
	c := &PollingBackoffController{
		store:     store,
		scheduler: scheduler,
		handler:   handler,
		key:       constants.PropertyPollState,
		pending:   pending,
		now:       time.Now,
		metrics:   newLifecycleMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
