// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package specfile reads action specs and migration rows from YAML files.
package specfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

type actionSpecFile struct {
	Actions []model.ActionSpecRecord `yaml:"actions"`
}

type migrationFile struct {
	Members []model.MigrationEntry `yaml:"members"`
}

// ActionSpecReader re-reads the file on every call so edits apply to the next run
type ActionSpecReader struct {
	path string
}

// ActionSpecRecords implements port.ActionSpecReader
func (r *ActionSpecReader) ActionSpecRecords(ctx context.Context) ([]model.ActionSpecRecord, error) {
	var file actionSpecFile
	if err := decode(r.path, &file); err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "action specs read", "path", r.path, "rows", len(file.Actions))
	return file.Actions, nil
}

// NewActionSpecReader creates a reader for the YAML file at path
func NewActionSpecReader(path string) port.ActionSpecReader {
	return &ActionSpecReader{path: path}
}

// ReadMigrationEntries loads the bootstrap rows of a migration file
func ReadMigrationEntries(path string) ([]model.MigrationEntry, error) {
	var file migrationFile
	if err := decode(path, &file); err != nil {
		return nil, err
	}
	return file.Members, nil
}

func decode(path string, out any) error {
	if path == "" {
		return errs.NewValidation("file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errs.NewNotFound(fmt.Sprintf("file %s not found", path), err)
		}
		return errs.NewServiceUnavailable(fmt.Sprintf("failed to read %s", path), err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errs.NewValidation(fmt.Sprintf("%s is not valid YAML", path), err)
	}
	return nil
}
