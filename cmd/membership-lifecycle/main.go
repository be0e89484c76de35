// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// The membership-lifecycle command turns recorded payments into directory
// memberships and fires the expiry actions that follow them.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/cmd/membership-lifecycle/service"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/log"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/utils"
)

const (
	defaultPort = "8080"
	// gracefulShutdownSeconds is used when TERMINATION_GRACE_PERIOD is unset
	gracefulShutdownSeconds = "25s"
)

func main() {
	var (
		port    = flag.String("p", "", "listen port, overrides PORT")
		bind    = flag.String("bind", "*", "interface to bind on")
		migrate = flag.String("migrate", "", "YAML file of existing members to provision, then exit")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	log.InitStructureLogConfig()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "error setting up OpenTelemetry SDK", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if errShutdown := otelShutdown(shutdownCtx); errShutdown != nil {
			slog.ErrorContext(shutdownCtx, "error shutting down OpenTelemetry SDK", "error", errShutdown)
		}
	}()

	l := newLifecycle(ctx)

	if *migrate != "" {
		errMigrate := runMigration(ctx, l, *migrate)
		service.CloseBackends(ctx)
		if errMigrate != nil {
			slog.ErrorContext(ctx, "migration failed", "error", errMigrate)
			os.Exit(1)
		}
		return
	}

	if *port == "" {
		*port = os.Getenv(constants.EnvHealthPort)
	}
	if *port == "" {
		*port = defaultPort
	}
	host := ""
	if *bind != "*" {
		host = *bind
	}

	var wg sync.WaitGroup
	errc := make(chan error, 1)

	if err := handleTriggers(ctx, &wg, l); err != nil {
		slog.ErrorContext(ctx, "failed to start recurring triggers", "error", err)
		os.Exit(1)
	}
	if err := handleTransactionIntake(ctx, &wg, l); err != nil {
		slog.ErrorContext(ctx, "failed to start transaction intake", "error", err)
		os.Exit(1)
	}
	handleHTTPServer(ctx, &wg, l, host, *port, errc)

	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutdown signal received")
	case err := <-errc:
		slog.ErrorContext(ctx, "HTTP server failed", "error", err)
		cancel()
	}

	gracePeriod := service.DurationFromEnv(constants.EnvTerminationPeriod, gracefulShutdownSeconds)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("graceful shutdown completed")
	case <-time.After(gracePeriod):
		slog.Warn("graceful shutdown timed out", "grace_period", gracePeriod.String())
	}

	service.CloseBackends(context.Background())
	slog.Info("exited")
}
