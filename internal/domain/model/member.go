// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package model defines the domain models and entities for the membership lifecycle service.
package model

import (
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

// Member is a club identity record kept in the directory
type Member struct {
	PrimaryEmail  string   `json:"primary_email"` // lowercase, unique key
	GivenName     string   `json:"given_name,omitempty"`
	FamilyName    string   `json:"family_name,omitempty"`
	ContactEmails []string `json:"contact_emails,omitempty"`
	Phones        []string `json:"phones,omitempty"`
	OrgUnitPath   string   `json:"org_unit_path,omitempty"`

	JoinDate   time.Time `json:"join_date"`
	Expires    time.Time `json:"expires"`
	Generation int       `json:"generation"` // bumped when the primary email needs disambiguation
}

// NewMember copies src field by field, normalising the primary email
func NewMember(src Member) *Member {
	return &Member{
		PrimaryEmail:  NormalizeEmail(src.PrimaryEmail),
		GivenName:     strings.TrimSpace(src.GivenName),
		FamilyName:    strings.TrimSpace(src.FamilyName),
		ContactEmails: slices.Clone(src.ContactEmails),
		Phones:        slices.Clone(src.Phones),
		OrgUnitPath:   src.OrgUnitPath,
		JoinDate:      src.JoinDate,
		Expires:       src.Expires,
		Generation:    src.Generation,
	}
}

// Copy returns an independent copy of m
func (m *Member) Copy() *Member {
	if m == nil {
		return nil
	}
	return NewMember(*m)
}

// Validate checks the identity invariants
func (m *Member) Validate() error {
	if m == nil {
		return errors.NewValidation("member is required")
	}
	if m.PrimaryEmail == "" {
		return errors.NewValidation("primary email is required")
	}
	if m.PrimaryEmail != strings.ToLower(m.PrimaryEmail) {
		return errors.NewValidation(fmt.Sprintf("primary email %q must be lowercase", m.PrimaryEmail))
	}
	if !IsWellFormedEmail(m.PrimaryEmail) {
		return errors.NewValidation(fmt.Sprintf("primary email %q is not a valid address", m.PrimaryEmail))
	}
	if !m.JoinDate.IsZero() && !m.Expires.IsZero() && m.Expires.Before(m.JoinDate) {
		return errors.NewValidation(fmt.Sprintf("expiry %s is before join date %s",
			utils.FormatDate(m.Expires), utils.FormatDate(m.JoinDate)))
	}
	if m.Generation < 0 {
		return errors.NewValidation("generation cannot be negative")
	}
	return nil
}

// HasEmail reports whether email is the primary or one of the contact emails
func (m *Member) HasEmail(email string) bool {
	email = NormalizeEmail(email)
	if email == "" {
		return false
	}
	if m.PrimaryEmail == email {
		return true
	}
	for _, c := range m.ContactEmails {
		if NormalizeEmail(c) == email {
			return true
		}
	}
	return false
}

// FullName joins the given and family names
func (m *Member) FullName() string {
	return strings.TrimSpace(m.GivenName + " " + m.FamilyName)
}

// Recipients is the comma separated address list lifecycle emails are sent to
func (m *Member) Recipients() string {
	to := []string{m.PrimaryEmail}
	for _, c := range m.ContactEmails {
		c = NormalizeEmail(c)
		if c != "" && !slices.Contains(to, c) {
			to = append(to, c)
		}
	}
	return strings.Join(to, ",")
}

// PlaceholderValues exposes member fields to email templates
func (m *Member) PlaceholderValues() map[string]string {
	contact := ""
	if len(m.ContactEmails) > 0 {
		contact = m.ContactEmails[0]
	}
	return map[string]string{
		"PrimaryEmail": m.PrimaryEmail,
		"Email":        contact,
		"GivenName":    m.GivenName,
		"FamilyName":   m.FamilyName,
		"FullName":     m.FullName(),
		"JoinDate":     utils.FormatDate(m.JoinDate),
		"Expires":      utils.FormatDate(m.Expires),
		"Generation":   strconv.Itoa(m.Generation),
	}
}

// MemberPatch lists the fields an update changes; nil fields are left alone
type MemberPatch struct {
	GivenName     *string
	FamilyName    *string
	ContactEmails []string
	Phones        []string
	OrgUnitPath   *string
	Expires       *time.Time
	Generation    *int
}

// IsEmpty reports whether the patch changes nothing
func (p MemberPatch) IsEmpty() bool {
	return p.GivenName == nil && p.FamilyName == nil && p.ContactEmails == nil &&
		p.Phones == nil && p.OrgUnitPath == nil && p.Expires == nil && p.Generation == nil
}

// Apply returns a copy of m with the patch applied
func (m *Member) Apply(p MemberPatch) *Member {
	out := m.Copy()
	if p.GivenName != nil {
		out.GivenName = *p.GivenName
	}
	if p.FamilyName != nil {
		out.FamilyName = *p.FamilyName
	}
	if p.ContactEmails != nil {
		out.ContactEmails = slices.Clone(p.ContactEmails)
	}
	if p.Phones != nil {
		out.Phones = slices.Clone(p.Phones)
	}
	if p.OrgUnitPath != nil {
		out.OrgUnitPath = *p.OrgUnitPath
	}
	if p.Expires != nil {
		out.Expires = *p.Expires
	}
	if p.Generation != nil {
		out.Generation = *p.Generation
	}
	return out
}

// MemberFilter narrows ListMembers; zero fields match everything
type MemberFilter struct {
	OrgUnitPath   string
	ExpiresBefore time.Time
}

// Matches reports whether m passes the filter
func (f MemberFilter) Matches(m *Member) bool {
	if f.OrgUnitPath != "" && m.OrgUnitPath != f.OrgUnitPath {
		return false
	}
	if !f.ExpiresBefore.IsZero() && !m.Expires.Before(f.ExpiresBefore) {
		return false
	}
	return true
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsWellFormedEmail reports whether email is a bare RFC 5322 address
func IsWellFormedEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && addr.Name == ""
}

// PrimaryEmailFor derives the club address for a member: given.family,
// followed by the generation when it is above zero. Accents are folded;
// when no ASCII letter survives, the local part of fallback is used.
func PrimaryEmailFor(givenName, familyName, fallback string, generation int, domain string) string {
	local := sanitizeLocalPart(givenName)
	if family := sanitizeLocalPart(familyName); family != "" {
		if local != "" {
			local += "."
		}
		local += family
	}
	if local == "" {
		if at := strings.LastIndex(fallback, "@"); at >= 0 {
			fallback = fallback[:at]
		}
		local = sanitizeLocalPart(fallback)
	}
	if local == "" {
		local = "member"
	}
	if generation > 0 {
		local += strconv.Itoa(generation)
	}
	return local + "@" + NormalizeEmail(domain)
}

// letters that do not decompose into a base letter plus marks
var foldedLetters = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "œ", "oe", "ø", "o", "ł", "l", "đ", "d", "ð", "d", "þ", "th", "ı", "i",
)

func sanitizeLocalPart(name string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.ToLower(name),
	)
	if err != nil {
		folded = strings.ToLower(name)
	}
	folded = foldedLetters.Replace(folded)

	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
