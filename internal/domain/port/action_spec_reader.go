// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
)

// ActionSpecReader returns the raw action spec rows
type ActionSpecReader interface {
	ActionSpecRecords(ctx context.Context) ([]model.ActionSpecRecord, error)
}
