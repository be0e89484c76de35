// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"strings"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

// MigrationEntry is one bootstrap row for a member that predates the service
type MigrationEntry struct {
	Email      string `json:"email" yaml:"email"`
	GivenName  string `json:"given_name" yaml:"given_name"`
	FamilyName string `json:"family_name" yaml:"family_name"`
	Phone      string `json:"phone,omitempty" yaml:"phone,omitempty"`
	JoinDate   string `json:"join_date" yaml:"join_date"`
	Expires    string `json:"expires" yaml:"expires"`
}

// ToMember validates the row and builds the member it describes.
// primaryEmail is the club address chosen for it.
func (e MigrationEntry) ToMember(primaryEmail, orgUnitPath string) (*Member, error) {
	contact := NormalizeEmail(e.Email)
	if contact == "" {
		return nil, errors.NewValidation("email is required")
	}
	if !IsWellFormedEmail(contact) {
		return nil, errors.NewValidation(fmt.Sprintf("email %q is not a valid address", e.Email))
	}
	if strings.TrimSpace(e.GivenName) == "" && strings.TrimSpace(e.FamilyName) == "" {
		return nil, errors.NewValidation(fmt.Sprintf("%s: a given or family name is required", contact))
	}

	joined, err := utils.ParseDate(e.JoinDate)
	if err != nil {
		return nil, errors.NewValidation(fmt.Sprintf("%s: join date %q", contact, e.JoinDate), err)
	}
	expires, err := utils.ParseDate(e.Expires)
	if err != nil {
		return nil, errors.NewValidation(fmt.Sprintf("%s: expiry %q", contact, e.Expires), err)
	}

	m := NewMember(Member{
		PrimaryEmail:  primaryEmail,
		GivenName:     e.GivenName,
		FamilyName:    e.FamilyName,
		ContactEmails: []string{contact},
		OrgUnitPath:   orgUnitPath,
		JoinDate:      joined,
		Expires:       expires,
	})
	if strings.TrimSpace(e.Phone) != "" {
		m.Phones = []string{strings.TrimSpace(e.Phone)}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
