// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
)

// OpSendEmail is the email sender operation name for error simulation
const OpSendEmail = "Send"

// MockEmailSender records messages instead of sending them
type MockEmailSender struct {
	errorSimulator

	mu   sync.Mutex
	sent []model.EmailMessage
}

// NewMockEmailSender creates a sender with an empty outbox
func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{}
}

// Send implements port.EmailSender
func (s *MockEmailSender) Send(ctx context.Context, message model.EmailMessage) error {
	if err := s.errorFor(OpSendEmail); err != nil {
		return err
	}

	slog.DebugContext(ctx, "mock email: message recorded",
		"to", redaction.RedactRecipients(message.To),
		"subject", message.Subject,
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, message)
	return nil
}

// Sent returns the recorded messages in send order
func (s *MockEmailSender) Sent() []model.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EmailMessage, len(s.sent))
	copy(out, s.sent)
	return out
}
