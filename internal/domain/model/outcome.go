// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

// Outcome is the result of a mutation whose target state may already hold
type Outcome int

const (
	// OutcomeApplied means the backend changed
	OutcomeApplied Outcome = iota
	// OutcomeAlreadySatisfied means the desired state was already in place,
	// e.g. deleting an absent member or adding an existing group member
	OutcomeAlreadySatisfied
)

func (o Outcome) String() string {
	if o == OutcomeAlreadySatisfied {
		return "already_satisfied"
	}
	return "applied"
}
