// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

// MockTriggerScheduler keeps triggers in memory without firing them
type MockTriggerScheduler struct {
	mu       sync.Mutex
	nextID   int
	triggers []port.Trigger
	history  []port.Trigger // every created trigger, in order
}

// NewMockTriggerScheduler creates a scheduler with no triggers
func NewMockTriggerScheduler() *MockTriggerScheduler {
	return &MockTriggerScheduler{}
}

// Create implements port.TriggerScheduler
func (s *MockTriggerScheduler) Create(ctx context.Context, handler string, interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", errors.NewValidation("trigger interval must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := port.Trigger{ID: fmt.Sprintf("trigger-%d", s.nextID), Handler: handler, Interval: interval}
	s.triggers = append(s.triggers, t)
	s.history = append(s.history, t)
	return t.ID, nil
}

// Delete implements port.TriggerScheduler
func (s *MockTriggerScheduler) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.triggers, func(t port.Trigger) bool { return t.ID == id })
	if i < 0 {
		return errors.NewNotFound(fmt.Sprintf("trigger %s not found", id))
	}
	s.triggers = slices.Delete(s.triggers, i, i+1)
	return nil
}

// List implements port.TriggerScheduler
func (s *MockTriggerScheduler) List(ctx context.Context) ([]port.Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.triggers), nil
}

// History returns every trigger ever created
func (s *MockTriggerScheduler) History() []port.Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}
