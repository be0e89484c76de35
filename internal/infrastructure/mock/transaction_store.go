// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

// Transaction store operation names for error simulation
const (
	OpListUnprocessed = "ListUnprocessed"
	OpMarkProcessed   = "MarkProcessed"
)

// MockTransactionStore keeps transactions in insertion order
type MockTransactionStore struct {
	errorSimulator

	mu           sync.RWMutex
	transactions []model.Transaction
	lastModified time.Time
	now          func() time.Time
}

// NewMockTransactionStore creates a store; now stamps modifications and defaults to time.Now
func NewMockTransactionStore(now func() time.Time) *MockTransactionStore {
	if now == nil {
		now = time.Now
	}
	return &MockTransactionStore{now: now}
}

// ListUnprocessed implements port.TransactionReader
func (s *MockTransactionStore) ListUnprocessed(ctx context.Context) ([]model.Transaction, error) {
	if err := s.errorFor(OpListUnprocessed); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Transaction
	for _, tx := range s.transactions {
		if !tx.IsProcessed() {
			out = append(out, tx)
		}
	}
	return out, nil
}

// LastModified implements port.TransactionReader
func (s *MockTransactionStore) LastModified(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastModified, nil
}

// Append implements port.TransactionWriter, assigning an ID when missing
func (s *MockTransactionStore) Append(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = fmt.Sprintf("tx-%d", len(s.transactions)+1)
	}
	for _, existing := range s.transactions {
		if existing.ID == tx.ID {
			return model.Transaction{}, errors.NewAlreadyExists(fmt.Sprintf("transaction %s already exists", tx.ID))
		}
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = s.now()
	}
	s.transactions = append(s.transactions, tx)
	s.lastModified = s.now()
	return tx, nil
}

// MarkProcessed implements port.TransactionWriter
func (s *MockTransactionStore) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	if err := s.errorFor(OpMarkProcessed); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			processed := at
			s.transactions[i].ProcessedAt = &processed
			s.lastModified = s.now()
			return nil
		}
	}
	return errors.NewNotFound(fmt.Sprintf("transaction %s not found", id))
}

// All returns every stored transaction
func (s *MockTransactionStore) All() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}
