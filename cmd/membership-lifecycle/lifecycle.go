// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"os"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/cmd/membership-lifecycle/service"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/scheduler"
	internalService "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
)

// lifecycle holds the processors shared by the subscriptions, triggers and endpoints
type lifecycle struct {
	membership internalService.MembershipProcessor
	expiries   internalService.ExpiryProcessor
	poller     *internalService.PollingBackoffController
	scheduler  *scheduler.Scheduler
	intake     *internalService.TransactionIntake
}

func newLifecycle(ctx context.Context) *lifecycle {
	properties := service.PropertyStore(ctx)
	transactions := service.TransactionStore(ctx)
	sender := service.EmailSender(ctx)
	notifier := internalService.NewNotifier(service.MessagePublisher(ctx), sender, os.Getenv(constants.EnvOperatorEmail))

	opts := []internalService.LifecycleOption{
		internalService.WithDirectory(service.Directory(ctx)),
		internalService.WithGroupMembership(service.GroupMembership(ctx)),
		internalService.WithEmailSender(sender),
		internalService.WithActionSpecs(internalService.NewActionSpecProvider(service.ActionSpecReader(ctx), notifier)),
		internalService.WithScheduleBook(internalService.NewScheduleBook(properties)),
		internalService.WithExpiryQueue(internalService.NewRetryableActionQueue(properties,
			internalService.WithQueueMaxAttempts(service.QueueMaxAttempts(ctx)),
		)),
		internalService.WithTransactionStore(transactions),
		internalService.WithNotifier(notifier),
		internalService.WithLifecycleConfig(service.LifecycleConfig(ctx)),
	}

	l := &lifecycle{
		membership: internalService.NewMembershipProcessor(opts...),
		expiries:   internalService.NewExpiryProcessor(opts...),
		scheduler:  service.Scheduler(ctx),
	}
	l.poller = internalService.NewPollingBackoffController(
		properties,
		l.scheduler,
		constants.HandlerCheckPaymentStatus,
		l.membership.HasPending,
		internalService.WithPollWatermark(transactions.LastModified),
	)
	l.intake = internalService.NewTransactionIntake(transactions, l.poller)
	return l
}
