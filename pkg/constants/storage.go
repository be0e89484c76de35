// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

const (
	// KVBucketNameMembershipState is the name of the KV bucket holding process-wide properties.
	KVBucketNameMembershipState = "membership-lifecycle-state"

	// PropertyExpiryQueue holds the pending expiry actions
	PropertyExpiryQueue = "expiry_queue"
	// PropertyExpiryDeadLetter holds retired expiry actions
	PropertyExpiryDeadLetter = "expiry_dead_letter"
	// PropertyExpirySchedule holds the materialised schedule entries
	PropertyExpirySchedule = "expiry_schedule"
	// PropertyPollState holds the payment polling controller state
	PropertyPollState = "poll_state"

	// RedisKeyPrefix namespaces properties stored in redis
	RedisKeyPrefix = "membership-lifecycle:"
)
