// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package specfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "file.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestActionSpecRecords(t *testing.T) {
	path := writeFile(t, `
actions:
  - type: Join
    subject: "Welcome, {GivenName}"
    body: "<p>Hi</p>"
    groups: members@club.org, announce@club.org
  - type: Expiry1
    subject: Expiring soon
    body: "<p>Renew before {Expires}</p>"
    offset: -7
`)

	records, err := NewActionSpecReader(path).ActionSpecRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Join", records[0].Type)
	assert.Equal(t, "members@club.org, announce@club.org", records[0].Groups)
	assert.Equal(t, "-7", records[1].Offset, "numeric offsets decode as text")

	spec, err := records[1].Parse()
	require.NoError(t, err)
	assert.Equal(t, model.ActionExpiry1, spec.Type)
	assert.Equal(t, -7, spec.Offset())
}

func TestActionSpecRecordsErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewActionSpecReader(filepath.Join(t.TempDir(), "missing.yaml")).ActionSpecRecords(ctx)
	assert.True(t, errs.IsNotFound(err))

	_, err = NewActionSpecReader(writeFile(t, "actions: [unclosed")).ActionSpecRecords(ctx)
	assert.True(t, errs.IsValidation(err))

	_, err = NewActionSpecReader("").ActionSpecRecords(ctx)
	assert.True(t, errs.IsValidation(err))
}

func TestReadMigrationEntries(t *testing.T) {
	path := writeFile(t, `
members:
  - email: Ann@X.com
    given_name: Ann
    family_name: Lee
    join_date: 2023-05-01
    expires: 2026-05-01
`)

	entries, err := ReadMigrationEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ann@X.com", entries[0].Email)
	assert.Equal(t, "2023-05-01", entries[0].JoinDate)
}
