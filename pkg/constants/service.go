// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// Handler names bound to recurring triggers
const (
	HandlerCheckPaymentStatus = "checkPaymentStatus"
	HandlerCheckExpiries      = "checkExpiries"
)

// MembershipLifecycleQueue is the NATS queue group for membership lifecycle subscriptions
const MembershipLifecycleQueue = "lfx-v2-membership-lifecycle"
