// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// NATS subject constants
const (
	// TransactionSubmittedSubject carries form submissions recorded as transactions
	TransactionSubmittedSubject = "lfx.membership-lifecycle.transaction_submitted"

	// EmailSendSubject is where outbound lifecycle emails are published for the mail relay
	EmailSendSubject = "lfx.membership-lifecycle.email_send"

	// LifecycleEventSubject carries fired, requeued and dead-lettered action outcomes
	LifecycleEventSubject = "lfx.membership-lifecycle.event"
)

// AMQP names used by the alternative mail relay
const (
	EmailExchange   = "membership-lifecycle"
	EmailRoutingKey = "email.send"
)
