// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewMember_CopiesFields(t *testing.T) {
	src := Member{
		PrimaryEmail:  "  Ada.Lovelace@Club.org ",
		GivenName:     "Ada",
		FamilyName:    "Lovelace",
		ContactEmails: []string{"ada@example.com"},
		Phones:        []string{"555-0100"},
		JoinDate:      date(2024, time.January, 1),
		Expires:       date(2025, time.January, 1),
	}

	m := NewMember(src)
	src.ContactEmails[0] = "changed@example.com"
	src.Phones[0] = "000"

	assert.Equal(t, "ada.lovelace@club.org", m.PrimaryEmail)
	assert.Equal(t, []string{"ada@example.com"}, m.ContactEmails, "slices must not be shared with the source")
	assert.Equal(t, []string{"555-0100"}, m.Phones)
	assert.True(t, m.Expires.Equal(date(2025, time.January, 1)))

	cp := m.Copy()
	cp.ContactEmails = append(cp.ContactEmails, "other@example.com")
	assert.Len(t, m.ContactEmails, 1)
}

func TestMember_Validate(t *testing.T) {
	valid := Member{
		PrimaryEmail: "ada.lovelace@club.org",
		JoinDate:     date(2024, time.January, 1),
		Expires:      date(2025, time.January, 1),
	}

	tests := []struct {
		name    string
		mutate  func(m *Member)
		wantErr bool
	}{
		{name: "valid member", mutate: func(*Member) {}},
		{name: "missing email", mutate: func(m *Member) { m.PrimaryEmail = "" }, wantErr: true},
		{name: "uppercase email", mutate: func(m *Member) { m.PrimaryEmail = "Ada@club.org" }, wantErr: true},
		{name: "malformed email", mutate: func(m *Member) { m.PrimaryEmail = "ada.club.org" }, wantErr: true},
		{name: "expiry before join", mutate: func(m *Member) { m.Expires = date(2023, time.June, 1) }, wantErr: true},
		{name: "expiry equal to join", mutate: func(m *Member) { m.Expires = m.JoinDate }},
		{name: "negative generation", mutate: func(m *Member) { m.Generation = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantErr {
				assert.True(t, errs.IsValidation(err), "expected validation error, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMember_HasEmailAndRecipients(t *testing.T) {
	m := NewMember(Member{
		PrimaryEmail:  "ada.lovelace@club.org",
		ContactEmails: []string{"Ada@Example.com", "ada.lovelace@club.org"},
	})

	assert.True(t, m.HasEmail("ADA.LOVELACE@club.org"))
	assert.True(t, m.HasEmail("ada@example.com"))
	assert.False(t, m.HasEmail("someone@example.com"))
	assert.False(t, m.HasEmail(""))
	assert.Equal(t, "ada.lovelace@club.org,ada@example.com", m.Recipients())
}

func TestMember_Apply(t *testing.T) {
	m := NewMember(Member{PrimaryEmail: "a@club.org", Expires: date(2025, time.March, 1)})
	expires := date(2026, time.March, 1)
	generation := 2

	patch := MemberPatch{Expires: &expires, Generation: &generation}
	assert.False(t, patch.IsEmpty())
	assert.True(t, MemberPatch{}.IsEmpty())

	updated := m.Apply(patch)

	assert.True(t, updated.Expires.Equal(expires))
	assert.Equal(t, 2, updated.Generation)
	assert.True(t, m.Expires.Equal(date(2025, time.March, 1)), "Apply must not modify the receiver")
}

func TestMemberFilter_Matches(t *testing.T) {
	m := &Member{OrgUnitPath: "/members", Expires: date(2025, time.March, 1)}

	assert.True(t, MemberFilter{}.Matches(m))
	assert.True(t, MemberFilter{OrgUnitPath: "/members"}.Matches(m))
	assert.False(t, MemberFilter{OrgUnitPath: "/staff"}.Matches(m))
	assert.True(t, MemberFilter{ExpiresBefore: date(2025, time.April, 1)}.Matches(m))
	assert.False(t, MemberFilter{ExpiresBefore: date(2025, time.March, 1)}.Matches(m))
}

func TestPrimaryEmailFor(t *testing.T) {
	tests := []struct {
		given, family string
		fallback      string
		generation    int
		expected      string
	}{
		{"Ada", "Lovelace", "", 0, "ada.lovelace@club.org"},
		{"Ada", "Lovelace", "", 2, "ada.lovelace2@club.org"},
		{"Jean-Luc", "O'Neil", "", 0, "jeanluc.oneil@club.org"},
		{"", "Solo", "", 0, "solo@club.org"},
		{"Cher", "", "", 1, "cher1@club.org"},
		{"José", "Müller", "jm@x.com", 0, "jose.muller@club.org"},
		{"Søren", "Groß", "", 0, "soren.gross@club.org"},
		{"李", "王", "Li.Wang@home.net", 0, "liwang@club.org"},
		{"李", "王", "Li.Wang@home.net", 1, "liwang1@club.org"},
		{"李", "王", "", 0, "member@club.org"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := PrimaryEmailFor(tt.given, tt.family, tt.fallback, tt.generation, "Club.org")
			assert.Equal(t, tt.expected, got)
			require.True(t, IsWellFormedEmail(got))
		})
	}
}

func TestMember_PlaceholderValues(t *testing.T) {
	m := NewMember(Member{
		PrimaryEmail:  "ada.lovelace@club.org",
		GivenName:     "Ada",
		FamilyName:    "Lovelace",
		ContactEmails: []string{"ada@example.com"},
		Expires:       date(2025, time.March, 1),
	})

	values := m.PlaceholderValues()

	assert.Equal(t, "Ada Lovelace", values["FullName"])
	assert.Equal(t, "ada@example.com", values["Email"])
	assert.Equal(t, "2025-03-01", values["Expires"])
	assert.Equal(t, "", values["JoinDate"])
}
