// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
)

func TestNewMsgAndContextFromMsg(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})

	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = context.WithValue(ctx, constants.RequestIDContextKey, "req-42")

	event := model.LifecycleEvent{Kind: model.EventFired, Member: "ada@club.org"}
	msg, err := newMsg(ctx, constants.LifecycleEventSubject, event)
	require.NoError(t, err)

	assert.Equal(t, constants.LifecycleEventSubject, msg.Subject)
	assert.Equal(t, "application/json", msg.Header.Get("Content-Type"))
	assert.Equal(t, "req-42", msg.Header.Get(constants.RequestIDHeader))
	assert.NotEmpty(t, msg.Header.Get("traceparent"))

	var decoded model.LifecycleEvent
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, event.Member, decoded.Member)

	received := ContextFromMsg(context.Background(), msg)
	assert.Equal(t, traceID, trace.SpanContextFromContext(received).TraceID())
	assert.Equal(t, "req-42", received.Value(constants.RequestIDContextKey))
}

func TestNewMsg_Unencodable(t *testing.T) {
	_, err := newMsg(context.Background(), "subject", make(chan int))
	require.Error(t, err)
}
