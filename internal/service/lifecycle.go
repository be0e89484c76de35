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
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

// LifecycleConfig holds the settings shared by the processors
type LifecycleConfig struct {
	// ClubDomain is the domain of the primary emails created on join.
	// When empty the transaction email is used as the primary email.
	ClubDomain     string
	OrgUnitPath    string
	MaxGenerations int
	// Retry applies to directory writes failing with CreationIncomplete
	Retry utils.RetryOnErrorOptions
	// PollAttempts and PollDelay bound the wait for a new member to be visible
	PollAttempts int
	PollDelay    time.Duration
}

// DefaultLifecycleConfig returns the settings used when none are given
func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		OrgUnitPath:    constants.DefaultOrgUnitPath,
		MaxGenerations: constants.MaxGenerations,
		Retry: utils.RetryOnErrorOptions{
			Delay:       utils.DefaultRetryDelay,
			MaxAttempts: utils.DefaultRetryAttempts,
			Mode:        utils.RetryModeLoop,
		},
		PollAttempts: utils.DefaultRetryAttempts,
		PollDelay:    utils.DefaultRetryDelay,
	}
}

// lifecycleDependencies are the collaborators of the processors
type lifecycleDependencies struct {
	directory    port.Directory
	groups       *GroupMembershipBatch
	sender       port.EmailSender
	specs        *ActionSpecProvider
	schedule     *ScheduleBook
	queue        *RetryableActionQueue
	transactions port.TransactionStore
	notifier     *Notifier
	config       LifecycleConfig
	now          func() time.Time
	metrics      *lifecycleMetrics
}

// LifecycleOption configures a processor
type LifecycleOption func(*lifecycleDependencies)

// WithDirectory sets the member directory
func WithDirectory(directory port.Directory) LifecycleOption {
	return func(d *lifecycleDependencies) {
		d.directory = directory
	}
}

// WithGroupMembership sets the group backend
func WithGroupMembership(writer port.GroupMembershipWriter) LifecycleOption {
	return func(d *lifecycleDependencies) {
		d.groups = NewGroupMembershipBatch(writer)
	}
}

// WithEmailSender sets the mail sender for member emails
func WithEmailSender(sender port.EmailSender) LifecycleOption {
	return func(d *lifecycleDependencies) {
		d.sender = sender
	}
}

// WithActionSpecs sets the action spec provider
func WithActionSpecs(specs *ActionSpecProvider) LifecycleOption {
	return func(d *lifecycleDependencies) {
		d.specs = specs
	}
}

// WithScheduleBook sets the expiry schedule
func WithScheduleBook(schedule *ScheduleBook) LifecycleOption {
	return func(d *lifecycleDependencies) {
		d.schedule = schedule
	}
}

// WithExpiryQueue sets the retryable queue of expiry actions
func WithExpiryQueue(queue *RetryableActionQueue) LifecycleOption {
	return func(d *lifecycleDependencies) {
		d.queue = queue
	}
}

// WithTransactionStore sets the transaction source
func WithTransactionStore(store port.TransactionStore) LifecycleOption {
	return func(d *lifecycleDependencies) {
		d.transactions = store
	}
}

// WithNotifier sets the outcome notifier
func WithNotifier(notifier *Notifier) LifecycleOption {
	return func(d *lifecycleDependencies) {
		d.notifier = notifier
	}
}

// WithLifecycleConfig sets the processor settings
func WithLifecycleConfig(config LifecycleConfig) LifecycleOption {
	return func(d *lifecycleDependencies) {
		d.config = config
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) LifecycleOption {
	return func(d *lifecycleDependencies) {
		if now != nil {
			d.now = now
		}
	}
}

func newLifecycleDependencies(opts []LifecycleOption) lifecycleDependencies {
	d := lifecycleDependencies{
		config:  DefaultLifecycleConfig(),
		now:     time.Now,
		metrics: newLifecycleMetrics(),
	}
	for _, opt := range opts {
		opt(&d)
	}
	if d.notifier == nil {
		d.notifier = NewNotifier(nil, nil, "")
	}
	return d
}

func (d *lifecycleDependencies) today() time.Time {
	return utils.StartOfDay(d.now())
}

func (d *lifecycleDependencies) loadSpecs(ctx context.Context) ([]model.ActionSpec, error) {
	if d.specs == nil {
		return nil, errs.NewUnexpected("action spec provider is not configured")
	}
	return d.specs.Load(ctx)
}

// retryCreationIncomplete runs op under the configured retry policy for
// the transient window after a directory creation.
func (d *lifecycleDependencies) retryCreationIncomplete(ctx context.Context, op func() error) error {
	return utils.RetryOnErrorKind(ctx, op, utils.MatchKind[errs.CreationIncomplete](), d.config.Retry)
}

// sendEmail renders spec for member and sends it
func (d *lifecycleDependencies) sendEmail(ctx context.Context, spec model.ActionSpec, member *model.Member) error {
	if d.sender == nil {
		return errs.NewUnexpected("email sender is not configured")
	}
	msg := spec.Render(member)
	if err := d.sender.Send(ctx, msg); err != nil {
		return err
	}
	slog.DebugContext(ctx, "lifecycle email sent",
		"action", string(spec.Type),
		"member", redaction.RedactEmail(member.PrimaryEmail),
	)
	return nil
}
