// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/cmd/membership-lifecycle/service"
	natsinfra "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/nats"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/nats-io/nats.go"
)

// handleTransactionIntake subscribes to submitted payment forms
func handleTransactionIntake(ctx context.Context, wg *sync.WaitGroup, l *lifecycle) error {
	slog.InfoContext(ctx, "starting transaction intake")

	natsClient := service.GetNATSClient(ctx)

	subject := constants.TransactionSubmittedSubject
	_, subErr := natsClient.QueueSubscribe(
		subject,
		constants.MembershipLifecycleQueue,
		func(msg *nats.Msg) {
			select {
			case <-ctx.Done():
				slog.InfoContext(ctx, "rejecting message - service shutting down",
					"subject", msg.Subject)
				if msg.Reply != "" {
					if nakErr := msg.Nak(); nakErr != nil {
						slog.ErrorContext(ctx, "failed to nak message during shutdown", "error", nakErr)
					}
				}
				return
			default:
			}

			// not derived from the shutdown context so an accepted message completes
			msgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			msgCtx = natsinfra.ContextFromMsg(msgCtx, msg)

			handleErr := l.intake.HandleMessage(msgCtx, msg)
			switch {
			case handleErr == nil:
				if msg.Reply != "" {
					if ackErr := msg.Ack(); ackErr != nil {
						slog.ErrorContext(msgCtx, "failed to ack message", "error", ackErr)
					}
				}
			case errs.IsValidation(handleErr):
				slog.WarnContext(msgCtx, "dropping invalid transaction record",
					"error", handleErr,
					"subject", msg.Subject)
				if msg.Reply != "" {
					if termErr := msg.Term(); termErr != nil {
						slog.ErrorContext(msgCtx, "failed to term message", "error", termErr)
					}
				}
			default:
				slog.ErrorContext(msgCtx, "failed to record transaction, will retry",
					"error", handleErr,
					"subject", msg.Subject)
				if msg.Reply != "" {
					if nakErr := msg.Nak(); nakErr != nil {
						slog.ErrorContext(msgCtx, "failed to nak message", "error", nakErr)
					}
				}
			}
		},
	)
	if subErr != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, subErr)
	}
	slog.InfoContext(ctx, "subscribed to transaction submissions",
		"subject", subject,
		"queue", constants.MembershipLifecycleQueue)

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down transaction intake")
		// NATS client cleanup handled by CloseBackends in main shutdown
	}()

	return nil
}
