// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
)

// emailSender hands lifecycle emails to the mail relay subscribed on EmailSendSubject
type emailSender struct {
	client  *NATSClient
	subject string
}

// Send implements port.EmailSender
func (e *emailSender) Send(ctx context.Context, message model.EmailMessage) error {
	if err := e.client.publish(ctx, e.subject, message, "email"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "email handed to relay",
		"to", redaction.RedactRecipients(message.To),
		"subject", message.Subject,
	)
	return nil
}

// NewEmailSender creates a port.EmailSender publishing to the NATS mail relay
func NewEmailSender(client *NATSClient) port.EmailSender {
	return &emailSender{
		client:  client,
		subject: constants.EmailSendSubject,
	}
}
