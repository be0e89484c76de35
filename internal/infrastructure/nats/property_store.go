// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"errors"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"

	"github.com/nats-io/nats.go/jetstream"
)

// propertyStore keeps lifecycle properties in a JetStream key-value bucket
type propertyStore struct {
	client *NATSClient
	bucket string
}

// Get returns the stored value, or an empty string when the key was never written or was deleted
func (s *propertyStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errs.NewValidation("key cannot be empty")
	}

	kv, err := s.client.keyValue(s.bucket)
	if err != nil {
		return "", err
	}

	entry, errGet := kv.Get(ctx, key)
	if errGet != nil {
		if errors.Is(errGet, jetstream.ErrKeyNotFound) {
			slog.DebugContext(ctx, "nats property store: key not found", "key", key)
			return "", nil
		}
		slog.ErrorContext(ctx, "failed to get property", "error", errGet, "key", key)
		return "", errs.NewServiceUnavailable("failed to get property", errGet)
	}

	slog.DebugContext(ctx, "nats property store: property retrieved",
		"key", key,
		"revision", entry.Revision(),
		"size", len(entry.Value()),
	)
	return string(entry.Value()), nil
}

// Set overwrites the value of key
func (s *propertyStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errs.NewValidation("key cannot be empty")
	}

	kv, err := s.client.keyValue(s.bucket)
	if err != nil {
		return err
	}

	rev, errPut := kv.PutString(ctx, key, value)
	if errPut != nil {
		slog.ErrorContext(ctx, "failed to set property", "error", errPut, "key", key)
		return errs.NewServiceUnavailable("failed to set property", errPut)
	}

	slog.DebugContext(ctx, "nats property store: property set",
		"key", key,
		"revision", rev,
	)
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *propertyStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errs.NewValidation("key cannot be empty")
	}

	kv, err := s.client.keyValue(s.bucket)
	if err != nil {
		return err
	}

	if errDelete := kv.Delete(ctx, key); errDelete != nil && !errors.Is(errDelete, jetstream.ErrKeyNotFound) {
		slog.ErrorContext(ctx, "failed to delete property", "error", errDelete, "key", key)
		return errs.NewServiceUnavailable("failed to delete property", errDelete)
	}

	slog.DebugContext(ctx, "nats property store: property deleted", "key", key)
	return nil
}

// NewPropertyStore creates a port.PropertyStore backed by the membership state bucket
func NewPropertyStore(client *NATSClient) port.PropertyStore {
	return &propertyStore{
		client: client,
		bucket: constants.KVBucketNameMembershipState,
	}
}
