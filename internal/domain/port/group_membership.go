// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
)

// GroupMembershipWriter adds and removes member emails in mailing-list groups.
// "already a member" and "not a member" are reported as OutcomeAlreadySatisfied.
type GroupMembershipWriter interface {
	AddMember(ctx context.Context, group, email string) (model.Outcome, error)
	RemoveMember(ctx context.Context, group, email string) (model.Outcome, error)
}
