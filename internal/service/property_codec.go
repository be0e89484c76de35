// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

// loadList reads a JSON array stored under key. Elements that fail to
// decode are dropped one by one so a single bad row never blocks the rest.
func loadList[T any](ctx context.Context, store port.PropertyStore, key string) ([]T, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var stored []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		slog.WarnContext(ctx, "stored list is unreadable, treating it as empty",
			"key", key,
			"error", err,
		)
		return nil, nil
	}

	items := make([]T, 0, len(stored))
	for _, element := range stored {
		var item T
		if err := json.Unmarshal(element, &item); err != nil {
			slog.WarnContext(ctx, "dropping malformed stored element",
				"key", key,
				"error", err,
			)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// saveList stores items as a JSON array, deleting the key when empty
func saveList[T any](ctx context.Context, store port.PropertyStore, key string, items []T) error {
	if len(items) == 0 {
		return store.Delete(ctx, key)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return errs.NewUnexpected("failed to encode "+key, err)
	}
	return store.Set(ctx, key, string(data))
}

// loadValue reads a JSON object stored under key; found is false when the
// key is missing or unreadable.
func loadValue[T any](ctx context.Context, store port.PropertyStore, key string) (value T, found bool, err error) {
	raw, err := store.Get(ctx, key)
	if err != nil || raw == "" {
		return value, false, err
	}
	if errUnmarshal := json.Unmarshal([]byte(raw), &value); errUnmarshal != nil {
		slog.WarnContext(ctx, "stored value is unreadable, ignoring it",
			"key", key,
			"error", errUnmarshal,
		)
		var zero T
		return zero, false, nil
	}
	return value, true, nil
}

func saveValue[T any](ctx context.Context, store port.PropertyStore, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errs.NewUnexpected("failed to encode "+key, err)
	}
	return store.Set(ctx, key, string(data))
}
