// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/cmd/membership-lifecycle/service"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/scheduler"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
)

// handleTriggers registers the recurring handlers and installs their triggers
func handleTriggers(ctx context.Context, wg *sync.WaitGroup, l *lifecycle) error {
	slog.InfoContext(ctx, "starting recurring triggers")

	l.scheduler.Register(constants.HandlerCheckPaymentStatus, checkPaymentStatus(l))
	l.scheduler.Register(constants.HandlerCheckExpiries, checkExpiries(l))

	interval := service.DurationFromEnv(constants.EnvExpiryCheckInterval, constants.DefaultExpiryCheckInterval)
	id, err := l.scheduler.Create(ctx, constants.HandlerCheckExpiries, interval)
	if err != nil {
		return fmt.Errorf("failed to install expiry trigger: %w", err)
	}
	slog.InfoContext(ctx, "expiry trigger installed", "trigger_id", id, "interval", interval.String())

	// triggers live in this process, so polling left running by a previous
	// instance is picked up again here
	if err := resumePolling(ctx, l); err != nil {
		return err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down recurring triggers")
		l.scheduler.Stop()
	}()

	return nil
}

// checkPaymentStatus processes pending transactions, then lets the poller
// escalate or clear whether or not processing succeeded
func checkPaymentStatus(l *lifecycle) scheduler.HandlerFunc {
	return func(ctx context.Context) error {
		result, errProcess := l.membership.ProcessPending(ctx)
		if result != nil && (len(result.Applied) > 0 || len(result.Errors) > 0) {
			slog.InfoContext(ctx, "pending transactions processed",
				"joins", len(result.Joins()),
				"renewals", len(result.Renewals()),
				"errors", len(result.Errors),
			)
		}
		_, errCheck := l.poller.Check(ctx)
		return errors.Join(errProcess, errCheck)
	}
}

func checkExpiries(l *lifecycle) scheduler.HandlerFunc {
	return func(ctx context.Context) error {
		report, err := l.expiries.CheckExpiries(ctx, time.Now())
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "expiry check completed",
			"enqueued", report.Enqueued,
			"fired", len(report.Fired),
			"requeued", len(report.Requeued),
			"retired", len(report.Retired),
			"dead_lettered", len(report.DeadLettered),
		)
		return nil
	}
}

func resumePolling(ctx context.Context, l *lifecycle) error {
	state, err := l.poller.State(ctx)
	if err != nil {
		return fmt.Errorf("failed to read polling state: %w", err)
	}
	pending, err := l.membership.HasPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to check pending transactions: %w", err)
	}
	if state == nil && !pending {
		return nil
	}

	slog.InfoContext(ctx, "resuming payment polling",
		"had_state", state != nil,
		"pending", pending,
	)
	return l.poller.Start(ctx)
}
