// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
)

// ValidateActionSpecs parses every record. Valid specs are returned in
// record order; each invalid row, including a repeated action type,
// produces one problem line and is left out.
func ValidateActionSpecs(records []model.ActionSpecRecord) ([]model.ActionSpec, []string) {
	var (
		specs    []model.ActionSpec
		problems []string
	)
	firstRow := make(map[model.ActionType]int)

	for i, record := range records {
		row := i + 1
		spec, err := record.Parse()
		if err != nil {
			problems = append(problems, fmt.Sprintf("row %d: %s", row, err.Error()))
			continue
		}
		if prev, ok := firstRow[spec.Type]; ok {
			problems = append(problems, fmt.Sprintf("row %d: %s is already defined at row %d", row, spec.Type, prev))
			continue
		}
		firstRow[spec.Type] = row
		specs = append(specs, spec)
	}
	return specs, problems
}

// ActionSpecProvider loads and validates the action specs on every call,
// so edits to the source apply to the next run.
type ActionSpecProvider struct {
	reader   port.ActionSpecReader
	notifier *Notifier
}

// Load returns the valid specs and alerts the operator about the rest
func (p *ActionSpecProvider) Load(ctx context.Context) ([]model.ActionSpec, error) {
	records, err := p.reader.ActionSpecRecords(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read action specs", "error", err)
		return nil, err
	}

	specs, problems := ValidateActionSpecs(records)
	if len(problems) > 0 {
		slog.WarnContext(ctx, "invalid action specs ignored",
			"invalid", len(problems),
			"valid", len(specs),
		)
		if p.notifier != nil {
			if errAlert := p.notifier.Alert(ctx, "Membership lifecycle: invalid action specs", problems); errAlert != nil {
				slog.WarnContext(ctx, "action spec alert not delivered", "error", errAlert)
			}
		}
	}
	return specs, nil
}

// NewActionSpecProvider creates a provider over reader; notifier may be nil
func NewActionSpecProvider(reader port.ActionSpecReader, notifier *Notifier) *ActionSpecProvider {
	return &ActionSpecProvider{reader: reader, notifier: notifier}
}
