// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/log"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
)

// Notifier reports lifecycle outcomes: every event is logged and published,
// problems that need a person go to the operator by email.
type Notifier struct {
	publisher port.MessagePublisher
	sender    port.EmailSender
	operator  string
	now       func() time.Time
}

// Event logs and publishes one lifecycle outcome. Publishing is best effort.
func (n *Notifier) Event(ctx context.Context, event model.LifecycleEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = n.now()
	}

	level := slog.LevelInfo
	switch event.Kind {
	case model.EventRequeued, model.EventBatchFailed:
		level = slog.LevelWarn
	case model.EventDeadLettered:
		level = slog.LevelError
	}
	slog.Log(ctx, level, "membership lifecycle event",
		"kind", event.Kind,
		"action", string(event.Action),
		"member", redaction.RedactEmail(event.Member),
		"detail", event.Detail,
	)

	if n.publisher == nil {
		return
	}
	if err := n.publisher.Event(ctx, constants.LifecycleEventSubject, event); err != nil {
		slog.WarnContext(ctx, "failed to publish lifecycle event",
			"kind", event.Kind,
			"error", err,
		)
	}
}

// Alert sends one consolidated email listing every problem. Nothing is sent
// for an empty list.
func (n *Notifier) Alert(ctx context.Context, subject string, problems []string) error {
	if len(problems) == 0 {
		return nil
	}

	if n.sender == nil || n.operator == "" {
		slog.ErrorContext(ctx, "operator alert has no recipient",
			"subject", subject,
			"problems", problems,
			log.PriorityCritical(),
		)
		return nil
	}

	var body strings.Builder
	body.WriteString("<p>")
	body.WriteString(html.EscapeString(subject))
	body.WriteString("</p>\n<ul>\n")
	for _, p := range problems {
		body.WriteString("<li>")
		body.WriteString(html.EscapeString(p))
		body.WriteString("</li>\n")
	}
	body.WriteString("</ul>\n")

	err := n.sender.Send(ctx, model.EmailMessage{
		To:       n.operator,
		Subject:  subject,
		HTMLBody: body.String(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to send operator alert",
			"subject", subject,
			"problems", problems,
			"error", err,
			log.PriorityCritical(),
		)
		return err
	}

	slog.InfoContext(ctx, "operator alert sent",
		"subject", subject,
		"count", len(problems),
	)
	return nil
}

// NewNotifier creates a notifier. publisher and sender may be nil.
func NewNotifier(publisher port.MessagePublisher, sender port.EmailSender, operator string) *Notifier {
	return &Notifier{
		publisher: publisher,
		sender:    sender,
		operator:  strings.TrimSpace(operator),
		now:       time.Now,
	}
}
