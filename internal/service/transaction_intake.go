// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/redaction"
	"github.com/nats-io/nats.go"
)

// TransactionIntake records submitted payment forms and wakes the payment poller
type TransactionIntake struct {
	store  port.TransactionWriter
	poller *PollingBackoffController
}

// NewTransactionIntake creates a new transaction intake
func NewTransactionIntake(store port.TransactionWriter, poller *PollingBackoffController) *TransactionIntake {
	return &TransactionIntake{
		store:  store,
		poller: poller,
	}
}

// HandleMessage decodes a header-addressed form row from msg and appends it.
// A malformed message yields a Validation error and must not be redelivered.
func (i *TransactionIntake) HandleMessage(ctx context.Context, msg *nats.Msg) error {
	var record map[string]string
	if err := json.Unmarshal(msg.Data, &record); err != nil {
		slog.ErrorContext(ctx, "failed to unmarshal transaction record", "error", err, "subject", msg.Subject)
		return errs.NewValidation("malformed transaction record", err)
	}

	tx := model.TransactionFromRecord(record)
	if tx.Email == "" {
		return errs.NewValidation("transaction record has no email")
	}
	if tx.ID == "" {
		tx.ID = model.RecordID(record)
	}

	stored, err := i.store.Append(ctx, tx)
	switch {
	case errs.IsAlreadyExists(err):
		slog.InfoContext(ctx, "transaction already recorded", "transaction_id", tx.ID)
		return nil
	case err != nil:
		return err
	}

	slog.InfoContext(ctx, "transaction recorded",
		"transaction_id", stored.ID,
		"email", redaction.RedactEmail(stored.Email),
		"paid", stored.IsPaid(),
	)

	// polling restarts at the finest interval on every new submission
	return i.poller.Start(ctx)
}
