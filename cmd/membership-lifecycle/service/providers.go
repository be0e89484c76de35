// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package service wires the membership lifecycle backends selected by the environment.
package service

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/admin"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/groupsio"
	infrastructure "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/nats"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/postgres"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/rabbitmq"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/redis"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/scheduler"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/infrastructure/specfile"
	internalService "github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

var (
	natsClient *nats.NATSClient
	natsDoOnce sync.Once

	propertyStore     port.PropertyStore
	propertyStoreOnce sync.Once

	transactionStore     port.TransactionStore
	transactionStoreOnce sync.Once

	triggerScheduler     *scheduler.Scheduler
	triggerSchedulerOnce sync.Once

	registry = &backendRegistry{}
)

// connectRetry bounds the startup connection attempts to external backends
var connectRetry = utils.NewRetryConfig(5, 500*time.Millisecond, 8*time.Second)

func natsInit(ctx context.Context) {
	natsDoOnce.Do(func() {
		config, err := nats.NewConfigFromEnv()
		if err != nil {
			log.Fatalf("invalid NATS configuration: %v", err)
		}

		errConnect := utils.RetryWithExponentialBackoff(ctx, connectRetry, func() error {
			client, errNewClient := nats.NewClient(ctx, config)
			if errNewClient != nil {
				return errNewClient
			}
			natsClient = client
			return nil
		})
		if errConnect != nil {
			log.Fatalf("failed to create NATS client: %v", errConnect)
		}
		registry.add("nats", natsClient, natsClient)
	})
}

// GetNATSClient returns the shared NATS client, connecting on first use
func GetNATSClient(ctx context.Context) *nats.NATSClient {
	natsInit(ctx)
	return natsClient
}

func sourceFromEnv(ctx context.Context, env, fallback string, allowed ...string) string {
	source := os.Getenv(env)
	if source == "" {
		source = fallback
	}
	if err := constants.ValidateSource(source, allowed...); err != nil {
		log.Fatalf("invalid %s: %v", env, err)
	}
	slog.DebugContext(ctx, "backend source selected", "env", env, "source", source)
	return source
}

// Directory initializes the member directory implementation
func Directory(ctx context.Context) port.Directory {
	var directory port.Directory

	switch sourceFromEnv(ctx, constants.EnvDirectorySource, constants.SourceAdmin, constants.SourceMock, constants.SourceAdmin) {
	case constants.SourceMock:
		slog.InfoContext(ctx, "initializing mock directory")
		directory = infrastructure.NewMockDirectory()
	case constants.SourceAdmin:
		slog.InfoContext(ctx, "initializing admin directory")
		adminDirectory, err := admin.NewDirectory(ctx, admin.NewConfigFromEnv())
		if err != nil {
			log.Fatalf("failed to initialize admin directory: %v", err)
		}
		directory = adminDirectory
	}

	return directory
}

// GroupMembership initializes the group backend implementation
func GroupMembership(ctx context.Context) port.GroupMembershipWriter {
	var groups port.GroupMembershipWriter

	switch sourceFromEnv(ctx, constants.EnvGroupsSource, constants.SourceGroupsIO, constants.SourceMock, constants.SourceGroupsIO) {
	case constants.SourceMock:
		slog.InfoContext(ctx, "initializing mock group backend")
		groups = infrastructure.NewMockGroups()
	case constants.SourceGroupsIO:
		slog.InfoContext(ctx, "initializing groups.io group backend")
		client, err := groupsio.NewClient(groupsio.NewConfigFromEnv())
		if err != nil {
			log.Fatalf("failed to initialize groups.io client: %v", err)
		}
		registry.add("groupsio", client, nil)
		groups = client
	}

	return groups
}

// PropertyStore returns the shared process-wide property store
func PropertyStore(ctx context.Context) port.PropertyStore {
	propertyStoreOnce.Do(func() {
		switch sourceFromEnv(ctx, constants.EnvPropertySource, constants.SourceNATS,
			constants.SourceMock, constants.SourceNATS, constants.SourceRedis) {
		case constants.SourceMock:
			slog.InfoContext(ctx, "initializing mock property store")
			propertyStore = infrastructure.NewMockPropertyStore()
		case constants.SourceNATS:
			slog.InfoContext(ctx, "initializing NATS property store")
			propertyStore = nats.NewPropertyStore(GetNATSClient(ctx))
		case constants.SourceRedis:
			slog.InfoContext(ctx, "initializing redis property store")
			config, err := redis.NewConfigFromEnv()
			if err != nil {
				log.Fatalf("invalid redis configuration: %v", err)
			}
			store := redis.NewPropertyStore(config)
			if errReady := utils.RetryWithExponentialBackoff(ctx, connectRetry, func() error {
				return store.IsReady(ctx)
			}); errReady != nil {
				log.Fatalf("redis property store not reachable: %v", errReady)
			}
			registry.add("redis", store, store)
			propertyStore = store
		}
	})
	return propertyStore
}

// TransactionStore returns the shared transaction store
func TransactionStore(ctx context.Context) port.TransactionStore {
	transactionStoreOnce.Do(func() {
		switch sourceFromEnv(ctx, constants.EnvTransactionSource, constants.SourcePostgres,
			constants.SourceMock, constants.SourcePostgres) {
		case constants.SourceMock:
			slog.InfoContext(ctx, "initializing mock transaction store")
			transactionStore = infrastructure.NewMockTransactionStore(nil)
		case constants.SourcePostgres:
			slog.InfoContext(ctx, "initializing postgres transaction store")
			config, err := postgres.NewConfigFromEnv()
			if err != nil {
				log.Fatalf("invalid postgres configuration: %v", err)
			}
			var store *postgres.TransactionStore
			errConnect := utils.RetryWithExponentialBackoff(ctx, connectRetry, func() error {
				var errNew error
				store, errNew = postgres.NewTransactionStore(ctx, config)
				return errNew
			})
			if errConnect != nil {
				log.Fatalf("failed to connect to postgres: %v", errConnect)
			}
			if errMigrate := store.Migrate(ctx); errMigrate != nil {
				log.Fatalf("failed to migrate transaction schema: %v", errMigrate)
			}
			registry.add("postgres", store, store)
			transactionStore = store
		}
	})
	return transactionStore
}

// EmailSender initializes the mail relay implementation
func EmailSender(ctx context.Context) port.EmailSender {
	var sender port.EmailSender

	switch sourceFromEnv(ctx, constants.EnvEmailSource, constants.SourceNATS,
		constants.SourceMock, constants.SourceNATS, constants.SourceAMQP) {
	case constants.SourceMock:
		slog.InfoContext(ctx, "initializing mock email sender")
		sender = infrastructure.NewMockEmailSender()
	case constants.SourceNATS:
		slog.InfoContext(ctx, "initializing NATS email sender")
		sender = nats.NewEmailSender(GetNATSClient(ctx))
	case constants.SourceAMQP:
		slog.InfoContext(ctx, "initializing AMQP email sender")
		var amqpSender *rabbitmq.EmailSender
		errConnect := utils.RetryWithExponentialBackoff(ctx, connectRetry, func() error {
			var errNew error
			amqpSender, errNew = rabbitmq.NewEmailSender(ctx, rabbitmq.NewConfigFromEnv())
			return errNew
		})
		if errConnect != nil {
			log.Fatalf("failed to connect to AMQP broker: %v", errConnect)
		}
		registry.add("amqp", amqpSender, amqpSender)
		sender = amqpSender
	}

	return sender
}

// MessagePublisher initializes the lifecycle event publisher
func MessagePublisher(ctx context.Context) port.MessagePublisher {
	var publisher port.MessagePublisher

	switch sourceFromEnv(ctx, constants.EnvEventSource, constants.SourceNATS, constants.SourceMock, constants.SourceNATS) {
	case constants.SourceMock:
		slog.InfoContext(ctx, "initializing mock event publisher")
		publisher = infrastructure.NewMockMessagePublisher()
	case constants.SourceNATS:
		slog.InfoContext(ctx, "initializing NATS event publisher")
		publisher = nats.NewMessagePublisher(GetNATSClient(ctx))
	}

	return publisher
}

// ActionSpecReader reads the action specs from EnvActionSpecFile, falling
// back to the built-in templates when no file is configured
func ActionSpecReader(ctx context.Context) port.ActionSpecReader {
	path := os.Getenv(constants.EnvActionSpecFile)
	if path == "" {
		slog.WarnContext(ctx, "no action spec file configured, using built-in templates",
			"env", constants.EnvActionSpecFile)
		return &infrastructure.MockActionSpecReader{Records: infrastructure.DefaultActionSpecRecords()}
	}
	slog.InfoContext(ctx, "reading action specs from file", "path", path)
	return specfile.NewActionSpecReader(path)
}

// Scheduler returns the shared in-process trigger scheduler
func Scheduler(ctx context.Context) *scheduler.Scheduler {
	triggerSchedulerOnce.Do(func() {
		triggerScheduler = scheduler.NewScheduler(ctx)
	})
	return triggerScheduler
}

// LifecycleConfig reads the processor settings from the environment
func LifecycleConfig(ctx context.Context) internalService.LifecycleConfig {
	config := internalService.DefaultLifecycleConfig()
	config.ClubDomain = os.Getenv(constants.EnvClubDomain)
	if orgUnit := os.Getenv(constants.EnvOrgUnitPath); orgUnit != "" {
		config.OrgUnitPath = orgUnit
	}
	if config.ClubDomain == "" {
		slog.WarnContext(ctx, "club domain not set, transaction emails become primary emails",
			"env", constants.EnvClubDomain)
	}
	return config
}

// QueueMaxAttempts is the default attempt bound of the expiry queue
func QueueMaxAttempts(ctx context.Context) int {
	raw := os.Getenv(constants.EnvQueueMaxAttempts)
	if raw == "" {
		return internalService.DefaultQueueMaxAttempts
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		log.Fatalf("invalid %s value %q", constants.EnvQueueMaxAttempts, raw)
	}
	return n
}

// DurationFromEnv parses a Go duration from env, using fallback when unset
func DurationFromEnv(env, fallback string) time.Duration {
	raw := os.Getenv(env)
	if raw == "" {
		raw = fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s duration %q: %v", env, raw, err)
	}
	return d
}

// ReadinessCheckers returns the readiness probes of the connected backends
func ReadinessCheckers() map[string]ReadinessChecker {
	return registry.checkers()
}

// CloseBackends closes every connected backend
func CloseBackends(ctx context.Context) {
	registry.closeAll(ctx)
}

// ReadinessChecker is implemented by backends that can report their health
type ReadinessChecker interface {
	IsReady(ctx context.Context) error
}

type backend struct {
	name   string
	ready  ReadinessChecker
	closer io.Closer
}

type backendRegistry struct {
	mu       sync.Mutex
	backends []backend
}

func (r *backendRegistry) add(name string, ready ReadinessChecker, closer io.Closer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends = append(r.backends, backend{name: name, ready: ready, closer: closer})
}

func (r *backendRegistry) checkers() map[string]ReadinessChecker {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]ReadinessChecker, len(r.backends))
	for _, b := range r.backends {
		if b.ready != nil {
			out[b.name] = b.ready
		}
	}
	return out
}

func (r *backendRegistry) closeAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// close in reverse order of connection
	for i := len(r.backends) - 1; i >= 0; i-- {
		b := r.backends[i]
		if b.closer == nil {
			continue
		}
		if err := b.closer.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close backend", "backend", b.name, "error", err)
		}
	}
	r.backends = nil
}
