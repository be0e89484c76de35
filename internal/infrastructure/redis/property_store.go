// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package redis provides a redis backed property store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"
)

// Config holds the redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key
	Prefix string
}

// NewConfigFromEnv reads REDIS_ADDR, REDIS_PASSWORD and REDIS_DB
func NewConfigFromEnv() (Config, error) {
	config := Config{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		Prefix:   constants.RedisKeyPrefix,
	}
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return Config{}, errs.NewValidation(fmt.Sprintf("invalid REDIS_DB value %s", db), err)
		}
		config.DB = n
	}
	return config, nil
}

// PropertyStore implements port.PropertyStore with plain redis strings
type PropertyStore struct {
	rdb    *goredis.Client
	prefix string
}

func (s *PropertyStore) key(key string) string {
	return s.prefix + key
}

// Get returns an empty string for a missing key
func (s *PropertyStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get property from redis", "error", err, "key", key)
		return "", errs.NewServiceUnavailable("failed to get property", err)
	}
	return value, nil
}

// Set stores value without expiry
func (s *PropertyStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to set property in redis", "error", err, "key", key)
		return errs.NewServiceUnavailable("failed to set property", err)
	}
	return nil
}

// Delete removes key; a missing key is not an error
func (s *PropertyStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to delete property from redis", "error", err, "key", key)
		return errs.NewServiceUnavailable("failed to delete property", err)
	}
	return nil
}

// IsReady pings the server
func (s *PropertyStore) IsReady(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return errs.NewServiceUnavailable("redis is not reachable", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PropertyStore) Close() error {
	return s.rdb.Close()
}

// NewPropertyStore connects lazily; the first command dials the server
func NewPropertyStore(config Config) *PropertyStore {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &PropertyStore{rdb: rdb, prefix: config.Prefix}
}
