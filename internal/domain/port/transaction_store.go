// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
)

// TransactionReader reads recorded transactions
type TransactionReader interface {
	// ListUnprocessed returns the transactions not yet marked processed, oldest first
	ListUnprocessed(ctx context.Context) ([]model.Transaction, error)
	// LastModified is the watermark of the most recent change to the store
	LastModified(ctx context.Context) (time.Time, error)
}

// TransactionWriter records transactions and marks them processed
type TransactionWriter interface {
	Append(ctx context.Context, tx model.Transaction) (model.Transaction, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) error
}

// TransactionStore combines reads and writes
type TransactionStore interface {
	TransactionReader
	TransactionWriter
}
