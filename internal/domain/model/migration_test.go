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

func TestMigrationEntry_ToMember(t *testing.T) {
	entry := MigrationEntry{
		Email:      "Ada@Example.com",
		GivenName:  "Ada",
		FamilyName: "Lovelace",
		Phone:      " 555-0100 ",
		JoinDate:   "2020-01-15",
		Expires:    "2025-01-15",
	}

	m, err := entry.ToMember("ada.lovelace@club.org", "/members")

	require.NoError(t, err)
	assert.Equal(t, "ada.lovelace@club.org", m.PrimaryEmail)
	assert.Equal(t, []string{"ada@example.com"}, m.ContactEmails)
	assert.Equal(t, []string{"555-0100"}, m.Phones)
	assert.True(t, m.JoinDate.Equal(time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)))
}

func TestMigrationEntry_ToMember_Invalid(t *testing.T) {
	base := MigrationEntry{Email: "a@x.com", GivenName: "A", JoinDate: "2020-01-01", Expires: "2021-01-01"}

	tests := []struct {
		name   string
		mutate func(e *MigrationEntry)
	}{
		{name: "missing email", mutate: func(e *MigrationEntry) { e.Email = "" }},
		{name: "malformed email", mutate: func(e *MigrationEntry) { e.Email = "not an email" }},
		{name: "no names", mutate: func(e *MigrationEntry) { e.GivenName = "" }},
		{name: "bad join date", mutate: func(e *MigrationEntry) { e.JoinDate = "soon" }},
		{name: "bad expiry", mutate: func(e *MigrationEntry) { e.Expires = "" }},
		{name: "expiry before join", mutate: func(e *MigrationEntry) { e.Expires = "2019-01-01" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := base
			tt.mutate(&e)
			_, err := e.ToMember("a@club.org", "/members")
			assert.True(t, errs.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}
