// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

// messagingPublisher publishes lifecycle events for audit and dashboard consumers
type messagingPublisher struct {
	client *NATSClient
}

// Event implements port.MessagePublisher
func (m *messagingPublisher) Event(ctx context.Context, subject string, message any) error {
	return m.client.publish(ctx, subject, message, "event")
}

// newMsg encodes message as JSON and carries the trace context and request id as headers
func newMsg(ctx context.Context, subject string, message any) (*nats.Msg, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, errors.NewUnexpected("failed to marshal message", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")
	if requestID, ok := ctx.Value(constants.RequestIDContextKey).(string); ok && requestID != "" {
		msg.Header.Set(constants.RequestIDHeader, requestID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))
	return msg, nil
}

// ContextFromMsg returns ctx carrying the trace context and request id found in msg headers
func ContextFromMsg(ctx context.Context, msg *nats.Msg) context.Context {
	if msg.Header == nil {
		return ctx
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))
	if requestID := msg.Header.Get(constants.RequestIDHeader); requestID != "" {
		ctx = context.WithValue(ctx, constants.RequestIDContextKey, requestID)
	}
	return ctx
}

func (c *NATSClient) publish(ctx context.Context, subject string, message any, messageType string) error {
	if err := c.IsReady(ctx); err != nil {
		return errors.NewServiceUnavailable("NATS client is not ready", err)
	}

	msg, err := newMsg(ctx, subject, message)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode message",
			"error", err,
			"subject", subject,
			"message_type", messageType,
		)
		return err
	}

	if err := c.conn.PublishMsg(msg); err != nil {
		slog.ErrorContext(ctx, "failed to publish message to NATS",
			"error", err,
			"subject", subject,
			"message_type", messageType,
		)
		return errors.NewServiceUnavailable("failed to publish message", err)
	}

	slog.DebugContext(ctx, "message published",
		"subject", subject,
		"message_type", messageType,
		"message_size", len(msg.Data),
	)
	return nil
}

// NewMessagePublisher creates a port.MessagePublisher over client
func NewMessagePublisher(client *NATSClient) port.MessagePublisher {
	return &messagingPublisher{client: client}
}
