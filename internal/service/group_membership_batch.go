// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
)

// GroupAction changes the membership of one member email in one group
type GroupAction func(ctx context.Context, member, group string) error

// ApplyToGroups invokes action for every (member, group) pair. Members are
// taken from the end of the list and every group is visited for a member
// before the next one, so [M1,M2]x[G1,G2] runs (G1,M2),(G2,M2),(G1,M1),(G2,M1).
//
// A failing pair does not stop the batch. When any pair failed, one
// errors.Aggregate carrying every failure message is returned at the end.
// Neither input slice is modified.
func ApplyToGroups(ctx context.Context, members, groups []string, action GroupAction) error {
	remaining := len(members)
	var failures []string

	for remaining > 0 {
		remaining--
		member := members[remaining]
		for _, group := range groups {
			if err := applyPair(ctx, member, group, action); err != nil {
				slog.WarnContext(ctx, "group membership change failed",
					"group", group,
					"member", redaction.RedactEmail(member),
					"error", err,
				)
				failures = append(failures, err.Error())
			}
		}
	}

	if len(failures) > 0 {
		return errs.NewAggregate("group membership update failed", failures)
	}
	return nil
}

// applyPair turns a panic in action into an error for that pair
func applyPair(ctx context.Context, member, group string, action GroupAction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("group %s: %v", group, r)
		}
	}()
	return action(ctx, member, group)
}

// GroupMembershipBatch applies add and remove batches through a group backend
type GroupMembershipBatch struct {
	writer port.GroupMembershipWriter
}

// AddMembersToGroups adds every member to every group
func (b *GroupMembershipBatch) AddMembersToGroups(ctx context.Context, members, groups []string) error {
	return ApplyToGroups(ctx, members, groups, func(ctx context.Context, member, group string) error {
		outcome, err := b.writer.AddMember(ctx, group, member)
		if err != nil {
			return err
		}
		logGroupOutcome(ctx, "add", group, member, outcome)
		return nil
	})
}

// RemoveMembersFromGroups removes every member from every group
func (b *GroupMembershipBatch) RemoveMembersFromGroups(ctx context.Context, members, groups []string) error {
	return ApplyToGroups(ctx, members, groups, func(ctx context.Context, member, group string) error {
		outcome, err := b.writer.RemoveMember(ctx, group, member)
		if err != nil {
			return err
		}
		logGroupOutcome(ctx, "remove", group, member, outcome)
		return nil
	})
}

func logGroupOutcome(ctx context.Context, op, group, member string, outcome model.Outcome) {
	slog.DebugContext(ctx, "group membership changed",
		"op", op,
		"group", group,
		"member", redaction.RedactEmail(member),
		"outcome", outcome.String(),
	)
}

// NewGroupMembershipBatch creates a batch bound to writer
func NewGroupMembershipBatch(writer port.GroupMembershipWriter) *GroupMembershipBatch {
	return &GroupMembershipBatch{writer: writer}
}
