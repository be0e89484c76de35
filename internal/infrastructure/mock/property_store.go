// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"sync"
)

// Property store operation names for error simulation
const (
	OpPropertyGet    = "Get"
	OpPropertySet    = "Set"
	OpPropertyDelete = "Delete"
)

// MockPropertyStore is an in-memory port.PropertyStore
type MockPropertyStore struct {
	errorSimulator

	mu     sync.RWMutex
	values map[string]string
	writes int
}

// NewMockPropertyStore creates an empty store
func NewMockPropertyStore() *MockPropertyStore {
	return &MockPropertyStore{values: make(map[string]string)}
}

// Get implements port.PropertyStore
func (s *MockPropertyStore) Get(ctx context.Context, key string) (string, error) {
	if err := s.errorFor(OpPropertyGet); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

// Set implements port.PropertyStore
func (s *MockPropertyStore) Set(ctx context.Context, key, value string) error {
	if err := s.errorFor(OpPropertySet); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.writes++
	return nil
}

// Delete implements port.PropertyStore
func (s *MockPropertyStore) Delete(ctx context.Context, key string) error {
	if err := s.errorFor(OpPropertyDelete); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.writes++
	return nil
}

// Writes counts Set and Delete calls
func (s *MockPropertyStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
