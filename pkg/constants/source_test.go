// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"

	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

func TestValidateSource(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		allowed []string
		wantErr bool
	}{
		{name: "allowed source", source: SourceNATS, allowed: []string{SourceMock, SourceNATS}},
		{name: "empty source", source: "", allowed: []string{SourceMock}, wantErr: true},
		{name: "unsupported source", source: "sheets", allowed: []string{SourceMock, SourceRedis}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSource(tt.source, tt.allowed...)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errs.IsValidation(err))
		})
	}
}
