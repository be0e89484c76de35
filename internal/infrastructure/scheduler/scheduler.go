// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package scheduler runs recurring triggers inside the service process.
package scheduler

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/log"
)

// HandlerFunc is the work bound to a handler name
type HandlerFunc func(ctx context.Context) error

type trigger struct {
	port.Trigger
	cancel context.CancelFunc
}

// Scheduler implements port.TriggerScheduler with one ticker goroutine per
// trigger. Handler runs never overlap, whichever trigger starts them.
type Scheduler struct {
	base context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	handlers map[string]HandlerFunc
	triggers map[string]*trigger

	run sync.Mutex
	wg  sync.WaitGroup
}

// Register binds name to fn. Triggers can only be created for registered names.
func (s *Scheduler) Register(name string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = fn
}

// Create implements port.TriggerScheduler
func (s *Scheduler) Create(ctx context.Context, handler string, interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", errs.NewValidation("trigger interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fn, ok := s.handlers[handler]
	if !ok {
		return "", errs.NewValidation(fmt.Sprintf("unknown trigger handler %s", handler))
	}
	if s.base.Err() != nil {
		return "", errs.NewServiceUnavailable("scheduler is stopped")
	}

	t := &trigger{Trigger: port.Trigger{ID: uuid.NewString(), Handler: handler, Interval: interval}}
	var runCtx context.Context
	runCtx, t.cancel = context.WithCancel(s.base)
	s.triggers[t.ID] = t

	s.wg.Add(1)
	go s.loop(runCtx, t.Trigger, fn)

	slog.InfoContext(ctx, "trigger created",
		"trigger_id", t.ID,
		"handler", handler,
		"interval", interval.String(),
	)
	return t.ID, nil
}

// Delete implements port.TriggerScheduler. A run already in progress finishes.
func (s *Scheduler) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.triggers[id]
	if !ok {
		return errs.NewNotFound(fmt.Sprintf("trigger %s not found", id))
	}
	t.cancel()
	delete(s.triggers, id)

	slog.InfoContext(ctx, "trigger deleted", "trigger_id", id, "handler", t.Handler)
	return nil
}

// List implements port.TriggerScheduler, ordered by handler then interval
func (s *Scheduler) List(ctx context.Context) ([]port.Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]port.Trigger, 0, len(s.triggers))
	for _, t := range s.triggers {
		out = append(out, t.Trigger)
	}
	slices.SortFunc(out, func(a, b port.Trigger) int {
		return cmp.Or(cmp.Compare(a.Handler, b.Handler), cmp.Compare(a.Interval, b.Interval), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// Stop cancels every trigger and waits for running handlers to return
func (s *Scheduler) Stop() {
	s.stop()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, t port.Trigger, fn HandlerFunc) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, t, fn)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, t port.Trigger, fn HandlerFunc) {
	s.run.Lock()
	defer s.run.Unlock()

	// deleted while waiting for another run
	if ctx.Err() != nil {
		return
	}

	ctx = context.WithValue(ctx, constants.TriggerContextKey, t.ID)
	ctx = log.AppendCtx(ctx, slog.String("trigger_id", t.ID))
	ctx = log.AppendCtx(ctx, slog.String("handler", t.Handler))

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "trigger handler panicked", "panic", fmt.Sprint(r), log.PriorityCritical())
		}
	}()

	start := time.Now()
	if err := fn(ctx); err != nil {
		slog.ErrorContext(ctx, "trigger handler failed", "error", err, "duration", time.Since(start).String())
		return
	}
	slog.DebugContext(ctx, "trigger handler completed", "duration", time.Since(start).String())
}

// NewScheduler creates a scheduler whose triggers run until ctx is done or Stop is called
func NewScheduler(ctx context.Context) *Scheduler {
	base, stop := context.WithCancel(ctx)
	return &Scheduler{
		base:     base,
		stop:     stop,
		handlers: make(map[string]HandlerFunc),
		triggers: make(map[string]*trigger),
	}
}

var _ port.TriggerScheduler = (*Scheduler)(nil)
