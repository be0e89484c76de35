// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name:  "unique violation",
			err:   &pq.Error{Code: uniqueViolation, Message: "duplicate key value"},
			check: errs.IsAlreadyExists,
		},
		{
			name:  "no rows",
			err:   sql.ErrNoRows,
			check: errs.IsNotFound,
		},
		{
			name: "connection failure",
			err:  errors.New("dial tcp: connection refused"),
			check: func(err error) bool {
				var unavailable errs.ServiceUnavailable
				return errors.As(err, &unavailable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("failed", tt.err)
			assert.True(t, tt.check(err), "got %T: %v", err, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := NewConfigFromEnv()
	assert.True(t, errs.IsValidation(err))

	t.Setenv("DATABASE_URL", "postgres://lifecycle@localhost/lifecycle?sslmode=disable")
	config, err := NewConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://lifecycle@localhost/lifecycle?sslmode=disable", config.DSN)
	assert.Equal(t, 10, config.MaxOpenConns)
}
