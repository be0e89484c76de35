// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package nats provides NATS messaging client implementation and related utilities.
package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/errors"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSClient wraps the NATS connection and the key-value buckets used by the service
type NATSClient struct {
	conn    *nats.Conn
	config  Config
	kvStore map[string]jetstream.KeyValue
}

// Close drains subscriptions and closes the connection
func (c *NATSClient) Close() error {
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
		return err
	}
	return nil
}

// IsReady reports ServiceUnavailable unless the connection is up and not draining
func (c *NATSClient) IsReady(ctx context.Context) error {
	if c.conn == nil {
		return errors.NewServiceUnavailable("NATS connection not initialized")
	}
	if status := c.conn.Status(); status != nats.CONNECTED {
		slog.WarnContext(ctx, "NATS client not ready", "status", status.String())
		return errors.NewServiceUnavailable(fmt.Sprintf("NATS connection is %s", status.String()))
	}
	return nil
}

// QueueSubscribe joins queue so submissions are spread across replicas
func (c *NATSClient) QueueSubscribe(subject, queue string, handler nats.MsgHandler) (*nats.Subscription, error) {
	if err := c.IsReady(context.Background()); err != nil {
		return nil, err
	}
	return c.conn.QueueSubscribe(subject, queue, handler)
}

// KeyValueStore binds the named key-value bucket, creating it first when
// the client is configured to create missing buckets.
func (c *NATSClient) KeyValueStore(ctx context.Context, bucketName string) error {
	js, err := jetstream.New(c.conn)
	if err != nil {
		slog.ErrorContext(ctx, "error creating NATS JetStream client",
			"error", err,
			"nats_url", c.conn.ConnectedUrl(),
		)
		return err
	}

	var kv jetstream.KeyValue
	if c.config.CreateBuckets {
		kv, err = js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucketName,
			Description: "membership lifecycle process state",
			History:     5,
		})
	} else {
		kv, err = js.KeyValue(ctx, bucketName)
	}
	if err != nil {
		slog.ErrorContext(ctx, "error binding NATS JetStream key-value store",
			"error", err,
			"nats_url", c.conn.ConnectedUrl(),
			"bucket", bucketName,
			"create", c.config.CreateBuckets,
		)
		return err
	}

	if c.kvStore == nil {
		c.kvStore = make(map[string]jetstream.KeyValue)
	}
	c.kvStore[bucketName] = kv
	return nil
}

// keyValue returns a bound bucket
func (c *NATSClient) keyValue(bucket string) (jetstream.KeyValue, error) {
	kv, exists := c.kvStore[bucket]
	if !exists || kv == nil {
		return nil, errors.NewServiceUnavailable(fmt.Sprintf("KV bucket %s not available", bucket))
	}
	return kv, nil
}

// connectOptions logs connection state changes against the service logger
func connectOptions(ctx context.Context, config Config) []nats.Option {
	logger := slog.With("component", "nats")
	opts := []nats.Option{
		nats.Name(constants.ServiceName),
		nats.Timeout(config.Timeout),
		nats.MaxReconnects(config.MaxReconnect),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WarnContext(ctx, "lost NATS connection", "error", err, "status", nc.Status().String())
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.InfoContext(ctx, "restored NATS connection", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.InfoContext(ctx, "NATS connection closed", "last_error", nc.LastError())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			if sub == nil {
				logger.ErrorContext(ctx, "NATS async error", "error", err)
				return
			}
			logger.ErrorContext(ctx, "NATS subscription error",
				"error", err,
				"subject", sub.Subject,
				"queue", sub.Queue,
			)
		}),
	}
	if config.CredentialsFile != "" {
		opts = append(opts, nats.UserCredentials(config.CredentialsFile))
	}
	return opts
}

// NewClient connects to NATS and binds the membership state bucket
func NewClient(ctx context.Context, config Config) (*NATSClient, error) {
	if config.URL == "" {
		return nil, errors.NewValidation("NATS URL is required")
	}

	conn, err := nats.Connect(config.URL, connectOptions(ctx, config)...)
	if err != nil {
		return nil, errors.NewServiceUnavailable("failed to connect to NATS", err)
	}

	client := &NATSClient{conn: conn, config: config}
	if err := client.KeyValueStore(ctx, constants.KVBucketNameMembershipState); err != nil {
		conn.Close()
		return nil, errors.NewServiceUnavailable("failed to bind membership state bucket", err)
	}

	slog.InfoContext(ctx, "connected to NATS",
		"url", conn.ConnectedUrl(),
		"bucket", constants.KVBucketNameMembershipState,
		"create_buckets", config.CreateBuckets,
	)
	return client, nil
}
