// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
)

// Directory operation names for error simulation
const (
	OpGetMember    = "GetMember"
	OpAddMember    = "AddMember"
	OpUpdateMember = "UpdateMember"
	OpDeleteMember = "DeleteMember"
	OpListMembers  = "ListMembers"
)

// MockDirectory is an in-memory Directory. Every mutation is visible to the
// next read and records are copied on the way in and out.
type MockDirectory struct {
	errorSimulator

	mu       sync.RWMutex
	members  map[string]*model.Member // primary email -> member
	creation int                      // updates that fail with CreationIncomplete after each add
	pending  map[string]int           // primary email -> remaining incomplete updates
}

// NewMockDirectory creates an empty directory seeded with members
func NewMockDirectory(members ...*model.Member) *MockDirectory {
	d := &MockDirectory{
		members: make(map[string]*model.Member),
		pending: make(map[string]int),
	}
	d.Seed(members...)
	return d
}

// Seed stores members without going through AddMember
func (d *MockDirectory) Seed(members ...*model.Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, m := range members {
		c := m.Copy()
		d.members[c.PrimaryEmail] = c
	}
}

// SimulateCreationLag makes the first n updates of every newly added member
// fail with CreationIncomplete
func (d *MockDirectory) SimulateCreationLag(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.creation = n
}

// Count returns the number of stored members
func (d *MockDirectory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.members)
}

// GetMember implements port.Directory
func (d *MockDirectory) GetMember(ctx context.Context, email string) (*model.Member, error) {
	if err := d.errorFor(OpGetMember); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	m, ok := d.members[model.NormalizeEmail(email)]
	if !ok {
		return nil, errors.NewNotFound(fmt.Sprintf("member %s not found", redaction.RedactEmail(email)))
	}
	return m.Copy(), nil
}

// AddMember implements port.Directory
func (d *MockDirectory) AddMember(ctx context.Context, candidate *model.Member) (*model.Member, error) {
	slog.DebugContext(ctx, "mock directory: adding member", "email", redaction.RedactEmail(candidate.PrimaryEmail))

	if err := d.errorFor(OpAddMember); err != nil {
		return nil, err
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.members[candidate.PrimaryEmail]; exists {
		return nil, errors.NewAlreadyExists(fmt.Sprintf("member %s already exists", redaction.RedactEmail(candidate.PrimaryEmail)))
	}
	stored := candidate.Copy()
	d.members[stored.PrimaryEmail] = stored
	if d.creation > 0 {
		d.pending[stored.PrimaryEmail] = d.creation
	}
	return stored.Copy(), nil
}

// UpdateMember implements port.Directory
func (d *MockDirectory) UpdateMember(ctx context.Context, member *model.Member, patch model.MemberPatch) error {
	if err := d.errorFor(OpUpdateMember); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	existing, ok := d.members[member.PrimaryEmail]
	if !ok {
		return errors.NewNotFound(fmt.Sprintf("member %s not found", redaction.RedactEmail(member.PrimaryEmail)))
	}
	if n := d.pending[member.PrimaryEmail]; n > 0 {
		d.pending[member.PrimaryEmail] = n - 1
		return errors.NewCreationIncomplete("creation is not complete")
	}

	updated := existing.Apply(patch)
	if err := updated.Validate(); err != nil {
		return err
	}
	d.members[member.PrimaryEmail] = updated
	return nil
}

// DeleteMember implements port.Directory. The store is synchronous so Wait has nothing to wait for.
func (d *MockDirectory) DeleteMember(ctx context.Context, member *model.Member, _ port.DeleteOptions) (model.Outcome, error) {
	if err := d.errorFor(OpDeleteMember); err != nil {
		if errors.IsNotFound(err) {
			return model.OutcomeAlreadySatisfied, nil
		}
		return model.OutcomeApplied, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.members[member.PrimaryEmail]; !ok {
		return model.OutcomeAlreadySatisfied, nil
	}
	delete(d.members, member.PrimaryEmail)
	delete(d.pending, member.PrimaryEmail)
	return model.OutcomeApplied, nil
}

// ListMembers implements port.Directory, ordered by primary email
func (d *MockDirectory) ListMembers(ctx context.Context, filter model.MemberFilter) ([]*model.Member, error) {
	if err := d.errorFor(OpListMembers); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*model.Member, 0, len(d.members))
	for _, m := range d.members {
		if filter.Matches(m) {
			out = append(out, m.Copy())
		}
	}
	slices.SortFunc(out, func(a, b *model.Member) int {
		return cmp.Compare(a.PrimaryEmail, b.PrimaryEmail)
	})
	return out, nil
}
