// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

// ActionType identifies a lifecycle email/action
type ActionType string

// Lifecycle action types
const (
	ActionMigrate ActionType = "Migrate"
	ActionJoin    ActionType = "Join"
	ActionRenew   ActionType = "Renew"
	ActionExpiry1 ActionType = "Expiry1"
	ActionExpiry2 ActionType = "Expiry2"
	ActionExpiry3 ActionType = "Expiry3"
	ActionExpiry4 ActionType = "Expiry4"
)

// ActionTypes lists every action type in firing order
var ActionTypes = []ActionType{
	ActionMigrate, ActionJoin, ActionRenew,
	ActionExpiry1, ActionExpiry2, ActionExpiry3, ActionExpiry4,
}

// IsExpiry reports whether t is scheduled relative to the expiry date
func (t ActionType) IsExpiry() bool {
	switch t {
	case ActionExpiry1, ActionExpiry2, ActionExpiry3, ActionExpiry4:
		return true
	}
	return false
}

// IsRemoval reports whether firing t removes the member from the directory
func (t ActionType) IsRemoval() bool {
	return t == ActionExpiry4
}

// ParseActionType matches s against the known types ignoring case
func ParseActionType(s string) (ActionType, error) {
	s = strings.TrimSpace(s)
	for _, t := range ActionTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", errors.NewValidation(fmt.Sprintf("unknown action type %q", s))
}

// ActionSpec is the template and timing rule for one action type
type ActionSpec struct {
	Type    ActionType
	Subject string
	Body    string
	// OffsetDays is relative to the expiry date, set only for expiry types
	OffsetDays *int
	Groups     []string
}

// Offset returns OffsetDays or zero
func (s ActionSpec) Offset() int {
	if s.OffsetDays == nil {
		return 0
	}
	return *s.OffsetDays
}

// Render fills the templates with member values
func (s ActionSpec) Render(m *Member) EmailMessage {
	values := m.PlaceholderValues()
	return EmailMessage{
		To:       m.Recipients(),
		Subject:  ExpandPlaceholders(s.Subject, values),
		HTMLBody: ExpandPlaceholders(s.Body, values),
	}
}

// FindActionSpec returns the spec for t
func FindActionSpec(specs []ActionSpec, t ActionType) (ActionSpec, bool) {
	for _, s := range specs {
		if s.Type == t {
			return s, true
		}
	}
	return ActionSpec{}, false
}

// ActionSpecRecord is an action spec row as stored, before validation
type ActionSpecRecord struct {
	Type    string `yaml:"type" json:"type"`
	Subject string `yaml:"subject" json:"subject"`
	Body    string `yaml:"body" json:"body"`
	Offset  string `yaml:"offset,omitempty" json:"offset,omitempty"`
	Groups  string `yaml:"groups,omitempty" json:"groups,omitempty"`
}

var signedInteger = regexp.MustCompile(`^[+-]?\d+$`)

// Parse validates the record and converts it to an ActionSpec
func (r ActionSpecRecord) Parse() (ActionSpec, error) {
	t, err := ParseActionType(r.Type)
	if err != nil {
		return ActionSpec{}, err
	}

	spec := ActionSpec{
		Type:    t,
		Subject: r.Subject,
		Body:    r.Body,
		Groups:  ParseGroups(r.Groups),
	}

	if strings.TrimSpace(r.Subject) == "" {
		return ActionSpec{}, errors.NewValidation(fmt.Sprintf("%s: subject is required", t))
	}

	offset := strings.TrimSpace(r.Offset)
	switch {
	case t.IsExpiry() && offset == "":
		return ActionSpec{}, errors.NewValidation(fmt.Sprintf("%s: offset is required", t))
	case t.IsExpiry() && !signedInteger.MatchString(offset):
		return ActionSpec{}, errors.NewValidation(fmt.Sprintf("%s: offset %q is not a whole number of days", t, r.Offset))
	case !t.IsExpiry() && offset != "":
		return ActionSpec{}, errors.NewValidation(fmt.Sprintf("%s: offset is only allowed for expiry actions", t))
	}
	if offset != "" {
		days, errAtoi := strconv.Atoi(offset)
		if errAtoi != nil {
			return ActionSpec{}, errors.NewValidation(fmt.Sprintf("%s: offset %q is out of range", t, r.Offset), errAtoi)
		}
		spec.OffsetDays = &days
	}

	return spec, nil
}

// ParseGroups splits a comma separated group list, dropping blanks
func ParseGroups(csv string) []string {
	var groups []string
	for _, g := range strings.Split(csv, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}
