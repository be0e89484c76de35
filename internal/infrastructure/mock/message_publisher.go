// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"log/slog"
	"sync"
)

// PublishedMessage is one event captured by MockMessagePublisher
type PublishedMessage struct {
	Subject string
	Message any
}

// MockMessagePublisher captures published events
type MockMessagePublisher struct {
	mu        sync.Mutex
	published []PublishedMessage
}

// NewMockMessagePublisher creates a publisher with nothing captured
func NewMockMessagePublisher() *MockMessagePublisher {
	return &MockMessagePublisher{}
}

// Event implements port.MessagePublisher
func (p *MockMessagePublisher) Event(ctx context.Context, subject string, message any) error {
	slog.DebugContext(ctx, "mock publisher: event captured", "subject", subject)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, PublishedMessage{Subject: subject, Message: message})
	return nil
}

// Published returns the captured events in publish order
func (p *MockMessagePublisher) Published() []PublishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedMessage, len(p.published))
	copy(out, p.published)
	return out
}
