// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

// ExpiryReport is the outcome of one expiry check
type ExpiryReport struct {
	// Enqueued counts due schedule entries turned into queued actions
	Enqueued int                  `json:"enqueued"`
	Fired    []model.ExpiryAction `json:"fired"`
	Requeued []model.ExpiryAction `json:"requeued,omitempty"`
	// Retired holds actions dropped without firing because the member is
	// gone or was renewed since they were computed
	Retired      []model.ExpiryAction `json:"retired,omitempty"`
	DeadLettered []model.DeadLetter   `json:"dead_lettered,omitempty"`
}

// ExpiryProcessor fires the expiry actions that are due
type ExpiryProcessor interface {
	CheckExpiries(ctx context.Context, asOf time.Time) (*ExpiryReport, error)
}

type expiryProcessor struct {
	lifecycleDependencies
}

// CheckExpiries enqueues the schedule entries due at asOf, then attempts
// every eligible queued action.
func (p *expiryProcessor) CheckExpiries(ctx context.Context, asOf time.Time) (*ExpiryReport, error) {
	ctx, span := tracer.Start(ctx, "membership.check_expiries",
		trace.WithAttributes(attribute.String("as_of", utils.FormatDate(asOf))))
	defer span.End()

	if p.schedule == nil || p.queue == nil || p.directory == nil {
		return nil, errs.NewUnexpected("expiry processor is missing its schedule, queue or directory")
	}

	specs, err := p.loadSpecs(ctx)
	if err != nil {
		return nil, err
	}

	report := &ExpiryReport{}
	enqueued, err := p.enqueueDue(ctx, asOf, specs, report)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}
	report.Enqueued = enqueued

	retired := make(map[string]bool)
	pass, err := p.queue.Process(ctx, func(ctx context.Context, item *model.QueueItem) error {
		fired, errFire := p.fire(ctx, item)
		if errFire == nil && !fired {
			retired[item.ID] = true
		}
		return errFire
	})

	for _, item := range pass.Succeeded {
		if retired[item.ID] {
			report.Retired = append(report.Retired, item.Action)
			p.event(ctx, model.EventRetired, item.Action, "member gone or renewed")
			continue
		}
		report.Fired = append(report.Fired, item.Action)
		p.event(ctx, model.EventFired, item.Action, "")
	}
	for _, item := range pass.Requeued {
		report.Requeued = append(report.Requeued, item.Action)
		p.event(ctx, model.EventRequeued, item.Action, item.LastError)
	}
	report.DeadLettered = pass.DeadLettered
	for _, dead := range pass.DeadLettered {
		p.event(ctx, model.EventDeadLettered, dead.Item.Action, dead.Item.LastError)
	}
	if len(pass.DeadLettered) > 0 {
		problems := make([]string, 0, len(pass.DeadLettered))
		for _, dead := range pass.DeadLettered {
			problems = append(problems, fmt.Sprintf("%s for %s after %d attempts: %s",
				dead.Item.Action.Type, dead.Item.Action.Email, dead.Item.Attempts, dead.Item.LastError))
		}
		if errAlert := p.notifier.Alert(ctx, "Membership lifecycle: expiry actions dead-lettered", problems); errAlert != nil {
			slog.WarnContext(ctx, "dead letter alert not delivered", "error", errAlert)
		}
	}

	slog.InfoContext(ctx, "expiry check finished",
		"as_of", utils.FormatDate(asOf),
		"enqueued", report.Enqueued,
		"fired", len(report.Fired),
		"retired", len(report.Retired),
		"requeued", len(report.Requeued),
		"dead_lettered", len(report.DeadLettered),
	)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}
	return report, nil
}

// enqueueDue moves due schedule entries into the queue. An entry is removed
// from the schedule only after it was enqueued or found stale, so a crash in
// between fires it twice rather than never.
func (p *expiryProcessor) enqueueDue(ctx context.Context, asOf time.Time, specs []model.ActionSpec, report *ExpiryReport) (int, error) {
	due, err := p.schedule.Due(ctx, asOf)
	if err != nil {
		return 0, err
	}

	var (
		handled  []model.ScheduleEntry
		enqueued int
	)
	for _, entry := range due {
		member, errGet := p.directory.GetMember(ctx, entry.Email)
		if errGet != nil && !errs.IsNotFound(errGet) {
			slog.WarnContext(ctx, "cannot check member of due entry, keeping it",
				"member", redaction.RedactEmail(entry.Email),
				"type", string(entry.Type),
				"error", errGet,
			)
			continue
		}

		stale := model.ExpiryAction{Email: entry.Email, Type: entry.Type, Expires: entry.Expires}
		if errGet != nil || !member.Expires.Equal(entry.Expires) {
			handled = append(handled, entry)
			report.Retired = append(report.Retired, stale)
			p.event(ctx, model.EventRetired, stale, "member gone or renewed")
			continue
		}

		spec, ok := model.FindActionSpec(specs, entry.Type)
		if !ok {
			slog.WarnContext(ctx, "no action spec for due entry, dropping it", "type", string(entry.Type))
			handled = append(handled, entry)
			report.Retired = append(report.Retired, stale)
			continue
		}

		msg := spec.Render(member)
		_, errEnqueue := p.queue.Enqueue(ctx, model.ExpiryAction{
			Email:   member.PrimaryEmail,
			Type:    entry.Type,
			To:      msg.To,
			Subject: msg.Subject,
			Body:    msg.HTMLBody,
			Groups:  spec.Groups,
			Expires: entry.Expires,
		})
		if errEnqueue != nil {
			return enqueued, errEnqueue
		}
		handled = append(handled, entry)
		enqueued++
	}

	if err := p.schedule.RemoveEntries(ctx, handled); err != nil {
		return enqueued, err
	}
	return enqueued, nil
}

// fire performs one queued action. It reports false when the action was
// retired instead: the member is gone or its expiry moved since.
func (p *expiryProcessor) fire(ctx context.Context, item *model.QueueItem) (bool, error) {
	action := item.Action
	member, err := p.directory.GetMember(ctx, action.Email)
	if errs.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !member.Expires.Equal(action.Expires) {
		return false, nil
	}

	if !item.EmailSent {
		if p.sender == nil {
			return false, errs.NewUnexpected("email sender is not configured")
		}
		errSend := p.sender.Send(ctx, model.EmailMessage{
			To:       action.To,
			Subject:  action.Subject,
			HTMLBody: action.Body,
		})
		if errSend != nil {
			return false, errSend
		}
		item.EmailSent = true
	}

	if len(action.Groups) > 0 && p.groups != nil {
		if errGroups := p.groups.RemoveMembersFromGroups(ctx, []string{member.PrimaryEmail}, action.Groups); errGroups != nil {
			return false, errGroups
		}
	}

	if action.Type.IsRemoval() {
		outcome, errDelete := p.directory.DeleteMember(ctx, member, port.DeleteOptions{Wait: true})
		if errDelete != nil {
			return false, errDelete
		}
		if errRemove := p.schedule.Remove(ctx, member.PrimaryEmail); errRemove != nil {
			slog.WarnContext(ctx, "failed to clear schedule of removed member", "error", errRemove)
		}
		slog.InfoContext(ctx, "member removed after expiry",
			"member", redaction.RedactEmail(member.PrimaryEmail),
			"outcome", outcome.String(),
		)
	}
	return true, nil
}

func (p *expiryProcessor) event(ctx context.Context, kind string, action model.ExpiryAction, detail string) {
	p.metrics.memberAction(ctx, string(action.Type), kind)
	p.notifier.Event(ctx, model.LifecycleEvent{
		Kind:   kind,
		Action: action.Type,
		Member: action.Email,
		Detail: detail,
	})
}

// NewExpiryProcessor creates an expiry processor
func NewExpiryProcessor(opts ...LifecycleOption) ExpiryProcessor {
	return &expiryProcessor{lifecycleDependencies: newLifecycleDependencies(opts)}
}
