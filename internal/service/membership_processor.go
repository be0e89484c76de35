// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/concurrent"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

// AppliedAction is one membership change made for a paid transaction or a
// migration entry.
type AppliedAction struct {
	Type          model.ActionType `json:"type"`
	TransactionID string           `json:"transaction_id,omitempty"`
	Email         string           `json:"email"`
	PrimaryEmail  string           `json:"primary_email"`
	Period        int              `json:"period,omitempty"`
	Expires       time.Time        `json:"expires"`
}

// ProcessResult is the outcome of a processing run
type ProcessResult struct {
	Applied []AppliedAction `json:"applied"`
	// Updated holds the member records after the changes
	Updated []*model.Member `json:"updated,omitempty"`
	// Errors lists failures of single actions; the run itself continued
	Errors []string `json:"errors,omitempty"`
}

// Joins returns the applied Join actions
func (r *ProcessResult) Joins() []AppliedAction {
	return r.byType(model.ActionJoin)
}

// Renewals returns the applied Renew actions
func (r *ProcessResult) Renewals() []AppliedAction {
	return r.byType(model.ActionRenew)
}

func (r *ProcessResult) byType(t model.ActionType) []AppliedAction {
	var out []AppliedAction
	for _, a := range r.Applied {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// MembershipProcessor turns payments and bootstrap rows into memberships
type MembershipProcessor interface {
	// ProcessTransactions applies the paid transactions among raw records
	ProcessTransactions(ctx context.Context, raw []map[string]string) (*ProcessResult, error)
	// ProcessPending applies the unprocessed transactions of the store and
	// marks each applied one processed
	ProcessPending(ctx context.Context) (*ProcessResult, error)
	// HasPending reports whether unprocessed transactions remain
	HasPending(ctx context.Context) (bool, error)
	// MigrateMembers creates members from bootstrap entries
	MigrateMembers(ctx context.Context, entries []model.MigrationEntry) (*ProcessResult, error)
	// AddMembersToGroups adds every member email to every group
	AddMembersToGroups(ctx context.Context, members, groups []string) error
	// RemoveMembersFromGroups removes every member email from every group
	RemoveMembersFromGroups(ctx context.Context, members, groups []string) error
}

// membershipProcessor orchestrates joins, renewals and migrations
type membershipProcessor struct {
	lifecycleDependencies
	pool *concurrent.WorkerPool
}

func (p *membershipProcessor) ProcessTransactions(ctx context.Context, raw []map[string]string) (*ProcessResult, error) {
	transactions := make([]model.Transaction, 0, len(raw))
	for _, record := range raw {
		transactions = append(transactions, model.TransactionFromRecord(record))
	}
	return p.process(ctx, transactions, false)
}

func (p *membershipProcessor) ProcessPending(ctx context.Context) (*ProcessResult, error) {
	if p.transactions == nil {
		return nil, errs.NewUnexpected("transaction store is not configured")
	}
	transactions, err := p.transactions.ListUnprocessed(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list unprocessed transactions", "error", err)
		return nil, err
	}
	return p.process(ctx, transactions, true)
}

func (p *membershipProcessor) HasPending(ctx context.Context) (bool, error) {
	if p.transactions == nil {
		return false, nil
	}
	transactions, err := p.transactions.ListUnprocessed(ctx)
	if err != nil {
		return false, err
	}
	return len(transactions) > 0, nil
}

func (p *membershipProcessor) process(ctx context.Context, transactions []model.Transaction, markProcessed bool) (*ProcessResult, error) {
	ctx, span := tracer.Start(ctx, "membership.process_transactions",
		trace.WithAttributes(attribute.Int("transactions", len(transactions))))
	defer span.End()

	result := &ProcessResult{}
	actions := DerivePaidMemberActions(transactions)
	if len(actions) == 0 {
		slog.DebugContext(ctx, "no paid transactions to process", "transactions", len(transactions))
		return result, nil
	}

	var (
		specs   []model.ActionSpec
		members []*model.Member
	)
	errLoad := p.pool.RunContext(ctx,
		func(ctx context.Context) error {
			var err error
			specs, err = p.loadSpecs(ctx)
			return err
		},
		func(ctx context.Context) error {
			var err error
			members, err = p.directory.ListMembers(ctx, model.MemberFilter{OrgUnitPath: p.config.OrgUnitPath})
			return err
		},
	)
	if errLoad != nil {
		span.SetStatus(codes.Error, errLoad.Error())
		slog.ErrorContext(ctx, "failed to load members or action specs", "error", errLoad)
		return nil, errLoad
	}

	for _, action := range actions {
		// classified one at a time so a member created earlier in the run renews
		joins, renewals := ClassifyMemberActions([]model.PaidMemberAction{action}, members)

		var (
			member   *model.Member
			applied  AppliedAction
			problems []string
			err      error
		)
		switch {
		case len(joins) == 1:
			member, problems, err = p.join(ctx, action, specs)
			applied.Type = model.ActionJoin
			if err == nil {
				members = append(members, member)
			}
		default:
			renewal := renewals[0]
			member, problems, err = p.renew(ctx, renewal, specs)
			applied.Type = model.ActionRenew
			if err == nil {
				replaceMember(members, renewal.Member, member)
			}
		}

		label := action.TransactionID
		if label == "" {
			label = redaction.RedactEmail(action.Email)
		}
		if err != nil {
			p.metrics.memberAction(ctx, string(applied.Type), "failed")
			slog.ErrorContext(ctx, "membership action failed",
				"action", string(applied.Type),
				"transaction_id", action.TransactionID,
				"email", redaction.RedactEmail(action.Email),
				"error", err,
			)
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %s", applied.Type, label, err.Error()))
			continue
		}
		for _, problem := range problems {
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %s", applied.Type, label, problem))
		}

		applied.TransactionID = action.TransactionID
		applied.Email = action.Email
		applied.PrimaryEmail = member.PrimaryEmail
		applied.Period = action.Period
		applied.Expires = member.Expires
		result.Applied = append(result.Applied, applied)
		result.Updated = append(result.Updated, member)
		p.metrics.memberAction(ctx, string(applied.Type), "applied")
		p.notifier.Event(ctx, model.LifecycleEvent{
			Kind:   model.EventApplied,
			Action: applied.Type,
			Member: member.PrimaryEmail,
			Detail: "expires " + utils.FormatDate(member.Expires),
		})

		if markProcessed && action.TransactionID != "" {
			if errMark := p.transactions.MarkProcessed(ctx, action.TransactionID, p.now()); errMark != nil {
				slog.ErrorContext(ctx, "failed to mark transaction processed",
					"transaction_id", action.TransactionID,
					"error", errMark,
				)
				result.Errors = append(result.Errors, fmt.Sprintf("mark %s processed: %s", action.TransactionID, errMark.Error()))
			}
		}
	}

	slog.InfoContext(ctx, "transactions processed",
		"paid", len(actions),
		"joins", len(result.Joins()),
		"renewals", len(result.Renewals()),
		"errors", len(result.Errors),
	)

	if len(result.Errors) > 0 {
		span.SetStatus(codes.Error, "membership actions failed")
		if errAlert := p.notifier.Alert(ctx, "Membership lifecycle: transaction processing problems", result.Errors); errAlert != nil {
			slog.WarnContext(ctx, "transaction alert not delivered", "error", errAlert)
		}
		return result, errs.NewAggregate("transaction processing failed", result.Errors)
	}
	return result, nil
}

// join creates the member of a paid transaction with no matching member
func (p *membershipProcessor) join(ctx context.Context, action model.PaidMemberAction, specs []model.ActionSpec) (*model.Member, []string, error) {
	given, family := action.First, action.Last
	if given == "" && family == "" {
		given, _, _ = strings.Cut(action.Email, "@")
	}

	today := p.today()
	candidate := model.NewMember(model.Member{
		PrimaryEmail:  action.Email,
		GivenName:     given,
		FamilyName:    family,
		ContactEmails: []string{action.Email},
		OrgUnitPath:   p.config.OrgUnitPath,
		JoinDate:      today,
		Expires:       utils.AddYears(today, action.Period),
	})

	created, err := p.createMember(ctx, candidate)
	if err != nil {
		return nil, nil, err
	}
	return created, p.afterMembershipChange(ctx, model.ActionJoin, created, specs), nil
}

// renew extends the expiry of an existing member by the paid period,
// counted from today when the membership already lapsed
func (p *membershipProcessor) renew(ctx context.Context, renewal model.Renewal, specs []model.ActionSpec) (*model.Member, []string, error) {
	current := renewal.Member
	expires := utils.AddYears(utils.LaterOf(utils.StartOfDay(current.Expires), p.today()), renewal.Action.Period)
	patch := model.MemberPatch{Expires: &expires}

	err := p.retryCreationIncomplete(ctx, func() error {
		return p.directory.UpdateMember(ctx, current, patch)
	})
	if err != nil {
		return nil, nil, err
	}

	updated := current.Apply(patch)
	slog.DebugContext(ctx, "membership renewed",
		"member", redaction.RedactEmail(updated.PrimaryEmail),
		"previous_expires", utils.FormatDate(current.Expires),
		"expires", utils.FormatDate(updated.Expires),
	)
	return updated, p.afterMembershipChange(ctx, model.ActionRenew, updated, specs), nil
}

// createMember adds candidate, bumping the generation of the primary email
// while it is taken, then waits until the directory shows the new member.
func (p *membershipProcessor) createMember(ctx context.Context, candidate *model.Member) (*model.Member, error) {
	var (
		created *model.Member
		err     error
	)

	for generation := candidate.Generation; generation <= p.config.MaxGenerations; generation++ {
		attempt := candidate.Copy()
		attempt.Generation = generation
		if p.config.ClubDomain != "" {
			var fallback string
			if len(candidate.ContactEmails) > 0 {
				fallback = candidate.ContactEmails[0]
			}
			attempt.PrimaryEmail = model.PrimaryEmailFor(candidate.GivenName, candidate.FamilyName, fallback, generation, p.config.ClubDomain)
		}
		if errValidate := attempt.Validate(); errValidate != nil {
			return nil, errValidate
		}

		err = p.retryCreationIncomplete(ctx, func() error {
			var errAdd error
			created, errAdd = p.directory.AddMember(ctx, attempt)
			return errAdd
		})
		if err == nil {
			break
		}
		if !errs.IsAlreadyExists(err) || p.config.ClubDomain == "" {
			return nil, err
		}
		slog.DebugContext(ctx, "primary email taken, bumping generation",
			"primary_email", redaction.RedactEmail(attempt.PrimaryEmail),
			"generation", generation,
		)
	}
	if err != nil || created == nil {
		return nil, errs.NewAlreadyExists(
			fmt.Sprintf("no free primary email up to generation %d", p.config.MaxGenerations), err)
	}

	visible := utils.PollUntil(ctx, p.config.PollAttempts, p.config.PollDelay, func() bool {
		_, errGet := p.directory.GetMember(ctx, created.PrimaryEmail)
		return errGet == nil
	})
	if !visible {
		slog.WarnContext(ctx, "new member not visible in the directory yet",
			"primary_email", redaction.RedactEmail(created.PrimaryEmail),
		)
	}

	slog.InfoContext(ctx, "member created",
		"primary_email", redaction.RedactEmail(created.PrimaryEmail),
		"generation", created.Generation,
		"expires", utils.FormatDate(created.Expires),
	)
	return created, nil
}

// afterMembershipChange sends the email of the action, adds the member to
// its groups and recomputes the expiry schedule. Failures are returned as
// problems; the membership change itself stands.
func (p *membershipProcessor) afterMembershipChange(ctx context.Context, t model.ActionType, member *model.Member, specs []model.ActionSpec) []string {
	var problems []string

	spec, ok := model.FindActionSpec(specs, t)
	if !ok {
		slog.WarnContext(ctx, "no action spec, skipping email and groups", "action", string(t))
	} else {
		if err := p.sendEmail(ctx, spec, member); err != nil {
			problems = append(problems, "email: "+err.Error())
		}
		if len(spec.Groups) > 0 && p.groups != nil {
			if err := p.groups.AddMembersToGroups(ctx, []string{member.PrimaryEmail}, spec.Groups); err != nil {
				problems = append(problems, groupProblems(err)...)
			}
		}
	}

	if p.schedule != nil {
		if err := p.schedule.Replace(ctx, member.PrimaryEmail, ScheduleFor(member, specs)); err != nil {
			problems = append(problems, "schedule: "+err.Error())
		}
	}
	return problems
}

func (p *membershipProcessor) MigrateMembers(ctx context.Context, entries []model.MigrationEntry) (*ProcessResult, error) {
	ctx, span := tracer.Start(ctx, "membership.migrate_members",
		trace.WithAttributes(attribute.Int("entries", len(entries))))
	defer span.End()

	specs, err := p.loadSpecs(ctx)
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{}
	var invalid []string
	for i, entry := range entries {
		row := i + 1
		primary := entry.Email
		if p.config.ClubDomain != "" {
			primary = model.PrimaryEmailFor(entry.GivenName, entry.FamilyName, entry.Email, 0, p.config.ClubDomain)
		}
		candidate, errEntry := entry.ToMember(primary, p.config.OrgUnitPath)
		if errEntry != nil {
			invalid = append(invalid, fmt.Sprintf("row %d: %s", row, errEntry.Error()))
			continue
		}

		created, errCreate := p.createMember(ctx, candidate)
		if errCreate != nil {
			p.metrics.memberAction(ctx, string(model.ActionMigrate), "failed")
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", row, errCreate.Error()))
			continue
		}
		for _, problem := range p.afterMembershipChange(ctx, model.ActionMigrate, created, specs) {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", row, problem))
		}

		result.Applied = append(result.Applied, AppliedAction{
			Type:         model.ActionMigrate,
			Email:        model.NormalizeEmail(entry.Email),
			PrimaryEmail: created.PrimaryEmail,
			Expires:      created.Expires,
		})
		result.Updated = append(result.Updated, created)
		p.metrics.memberAction(ctx, string(model.ActionMigrate), "applied")
	}

	if len(invalid) > 0 {
		if errAlert := p.notifier.Alert(ctx, "Membership migration: invalid entries", invalid); errAlert != nil {
			slog.WarnContext(ctx, "migration alert not delivered", "error", errAlert)
		}
	}

	slog.InfoContext(ctx, "migration finished",
		"entries", len(entries),
		"migrated", len(result.Applied),
		"invalid", len(invalid),
		"errors", len(result.Errors),
	)

	all := append(append([]string(nil), invalid...), result.Errors...)
	if len(all) > 0 {
		span.SetStatus(codes.Error, "migration incomplete")
		return result, errs.NewAggregate("migration incomplete", all)
	}
	return result, nil
}

func (p *membershipProcessor) AddMembersToGroups(ctx context.Context, members, groups []string) error {
	if p.groups == nil {
		return errs.NewUnexpected("group backend is not configured")
	}
	return p.reportBatch(ctx, p.groups.AddMembersToGroups(ctx, members, groups))
}

func (p *membershipProcessor) RemoveMembersFromGroups(ctx context.Context, members, groups []string) error {
	if p.groups == nil {
		return errs.NewUnexpected("group backend is not configured")
	}
	return p.reportBatch(ctx, p.groups.RemoveMembersFromGroups(ctx, members, groups))
}

func (p *membershipProcessor) reportBatch(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	p.notifier.Event(ctx, model.LifecycleEvent{
		Kind:   model.EventBatchFailed,
		Detail: err.Error(),
	})
	return err
}

// groupProblems flattens a batch failure into problem lines
func groupProblems(err error) []string {
	var aggregate errs.Aggregate
	if stderrors.As(err, &aggregate) {
		out := make([]string, 0, len(aggregate.Errors))
		for _, e := range aggregate.Errors {
			out = append(out, "groups: "+e)
		}
		return out
	}
	return []string{"groups: " + err.Error()}
}

func replaceMember(members []*model.Member, old, updated *model.Member) {
	for i, m := range members {
		if m == old {
			members[i] = updated
			return
		}
	}
}

// NewMembershipProcessor creates a membership processor
func NewMembershipProcessor(opts ...LifecycleOption) MembershipProcessor {
	return &membershipProcessor{
		lifecycleDependencies: newLifecycleDependencies(opts),
		pool:                  concurrent.NewWorkerPool(2),
	}
}
