// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package mock provides in-memory implementations of the ports for tests and local runs.
package mock

import "sync"

// errorSimulator lets tests inject failures per operation
type errorSimulator struct {
	mu   sync.Mutex
	byOp map[string]error   // returned on every call
	next map[string][]error // consumed one per call
}

// SetErrorForOperation makes every call of op fail with err until cleared
func (s *errorSimulator) SetErrorForOperation(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byOp == nil {
		s.byOp = make(map[string]error)
	}
	s.byOp[op] = err
}

// FailNext makes the next len(errs) calls of op fail, in order
func (s *errorSimulator) FailNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == nil {
		s.next = make(map[string][]error)
	}
	s.next[op] = append(s.next[op], errs...)
}

// ClearErrors removes every configured failure
func (s *errorSimulator) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byOp = nil
	s.next = nil
}

func (s *errorSimulator) errorFor(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if queued := s.next[op]; len(queued) > 0 {
		s.next[op] = queued[1:]
		return queued[0]
	}
	return s.byOp[op]
}
