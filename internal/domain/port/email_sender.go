// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
)

// EmailSender hands one message to the mail relay. There is no delivery callback.
type EmailSender interface {
	Send(ctx context.Context, message model.EmailMessage) error
}
