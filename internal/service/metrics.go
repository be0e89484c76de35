// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/service"

var tracer = otel.Tracer(instrumentationName)

// lifecycleMetrics counts what the processors and the queue do
type lifecycleMetrics struct {
	memberActions metric.Int64Counter
	queueItems    metric.Int64Counter
	pollChecks    metric.Int64Counter
}

func newLifecycleMetrics() *lifecycleMetrics {
	meter := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description))
		if err != nil {
			c, _ = fallback.Int64Counter(name)
		}
		return c
	}

	return &lifecycleMetrics{
		memberActions: counter("membership.actions", "Membership actions applied, by type and result"),
		queueItems:    counter("membership.queue.items", "Expiry queue item outcomes"),
		pollChecks:    counter("membership.poll.checks", "Polling controller checks, by resulting interval"),
	}
}

func (m *lifecycleMetrics) memberAction(ctx context.Context, action, result string) {
	m.memberActions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("result", result),
	))
}

func (m *lifecycleMetrics) queueItem(ctx context.Context, result string) {
	m.queueItems.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *lifecycleMetrics) pollCheck(ctx context.Context, interval string) {
	m.pollChecks.Add(ctx, 1, metric.WithAttributes(attribute.String("interval", interval)))
}
