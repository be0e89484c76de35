// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"strings"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
)

// DerivePaidMemberActions keeps the paid transactions, in input order, and
// turns each into a membership intent. The period is the leading integer of
// the payment text, defaulting to 1.
func DerivePaidMemberActions(transactions []model.Transaction) []model.PaidMemberAction {
	var actions []model.PaidMemberAction
	for _, tx := range transactions {
		if !tx.IsPaid() {
			continue
		}
		actions = append(actions, model.PaidMemberAction{
			TransactionID: tx.ID,
			Email:         model.NormalizeEmail(tx.Email),
			Period:        tx.Period(),
			First:         strings.TrimSpace(tx.FirstName),
			Last:          strings.TrimSpace(tx.LastName),
		})
	}
	return actions
}

// ClassifyMemberActions splits actions into joins, whose email matches no
// existing member, and renewals of the member whose primary or contact email
// matches exactly.
func ClassifyMemberActions(actions []model.PaidMemberAction, existing []*model.Member) ([]model.PaidMemberAction, []model.Renewal) {
	var (
		joins    []model.PaidMemberAction
		renewals []model.Renewal
	)
	for _, a := range actions {
		if m := findMember(existing, a.Email); m != nil {
			renewals = append(renewals, model.Renewal{Action: a, Member: m})
			continue
		}
		joins = append(joins, a)
	}
	return joins, renewals
}

func findMember(members []*model.Member, email string) *model.Member {
	for _, m := range members {
		if m.HasEmail(email) {
			return m
		}
	}
	return nil
}
