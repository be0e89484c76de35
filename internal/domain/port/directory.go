// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package port defines the interfaces between the lifecycle services and their backends.
package port

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
)

// DeleteOptions tunes DeleteMember
type DeleteOptions struct {
	// Wait polls until reads no longer observe the member
	Wait bool
}

// Directory creates, reads, updates and deletes member identity records.
//
// Failures are reported with the pkg/errors taxonomy: NotFound, AlreadyExists,
// CreationIncomplete (transient, retry the operation) and Backend.
type Directory interface {
	// GetMember returns the member whose primary email is email, or NotFound
	GetMember(ctx context.Context, email string) (*model.Member, error)

	// AddMember creates the candidate and returns the stored record
	AddMember(ctx context.Context, candidate *model.Member) (*model.Member, error)

	// UpdateMember applies patch to an existing member
	UpdateMember(ctx context.Context, member *model.Member, patch model.MemberPatch) error

	// DeleteMember removes the member. An absent member yields OutcomeAlreadySatisfied.
	DeleteMember(ctx context.Context, member *model.Member, opts DeleteOptions) (model.Outcome, error)

	// ListMembers returns every member matching filter
	ListMembers(ctx context.Context, filter model.MemberFilter) ([]*model.Member, error)
}
