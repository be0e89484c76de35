// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"sync"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
)

// GroupCall records one call made to MockGroups
type GroupCall struct {
	Op    string
	Group string
	Email string
}

// MockGroups is an in-memory group backend that records every call
type MockGroups struct {
	mu          sync.Mutex
	memberships map[string]map[string]bool // group -> email set
	failures    map[GroupCall]error
	calls       []GroupCall
}

// NewMockGroups creates an empty group backend
func NewMockGroups() *MockGroups {
	return &MockGroups{
		memberships: make(map[string]map[string]bool),
		failures:    make(map[GroupCall]error),
	}
}

// FailPair makes op ("add" or "remove") fail for the (group, email) pair
func (g *MockGroups) FailPair(op, group, email string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[GroupCall{Op: op, Group: group, Email: model.NormalizeEmail(email)}] = err
}

// Calls returns the calls made so far, in order
func (g *MockGroups) Calls() []GroupCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]GroupCall, len(g.calls))
	copy(out, g.calls)
	return out
}

// IsMember reports whether email belongs to group
func (g *MockGroups) IsMember(group, email string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.memberships[group][model.NormalizeEmail(email)]
}

// AddMember implements port.GroupMembershipWriter
func (g *MockGroups) AddMember(ctx context.Context, group, email string) (model.Outcome, error) {
	return g.apply("add", group, email)
}

// RemoveMember implements port.GroupMembershipWriter
func (g *MockGroups) RemoveMember(ctx context.Context, group, email string) (model.Outcome, error) {
	return g.apply("remove", group, email)
}

func (g *MockGroups) apply(op, group, email string) (model.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	call := GroupCall{Op: op, Group: group, Email: model.NormalizeEmail(email)}
	g.calls = append(g.calls, call)
	if err := g.failures[call]; err != nil {
		return model.OutcomeApplied, err
	}

	set := g.memberships[group]
	if set == nil {
		set = make(map[string]bool)
		g.memberships[group] = set
	}

	if op == "add" {
		if set[call.Email] {
			return model.OutcomeAlreadySatisfied, nil
		}
		set[call.Email] = true
		return model.OutcomeApplied, nil
	}

	if !set[call.Email] {
		return model.OutcomeAlreadySatisfied, nil
	}
	delete(set, call.Email)
	return model.OutcomeApplied, nil
}
