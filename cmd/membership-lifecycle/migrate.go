// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/specfile"
)

// runMigration provisions the existing members listed in path and returns
func runMigration(ctx context.Context, l *lifecycle, path string) error {
	entries, err := specfile.ReadMigrationEntries(path)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", path, err)
	}
	slog.InfoContext(ctx, "migrating members", "path", path, "entries", len(entries))

	result, err := l.membership.MigrateMembers(ctx, entries)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.InfoContext(ctx, "migration completed",
		"migrated", len(result.Applied),
		"errors", len(result.Errors),
	)
	for _, problem := range result.Errors {
		slog.WarnContext(ctx, "migration entry not applied", "problem", problem)
	}
	return nil
}
