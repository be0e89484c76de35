// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/cmd/membership-lifecycle/service"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-membership-lifecycle-service/pkg/constants"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// handleHTTPServer serves the health probes and operator endpoints
func handleHTTPServer(ctx context.Context, wg *sync.WaitGroup, l *lifecycle, host, port string, errc chan<- error) {
	api := service.NewLifecycleAPI(l.membership, l.expiries, service.ReadinessCheckers())

	handler := middleware.RequestIDMiddleware()(middleware.BodyLimitMiddleware(middleware.DefaultMaxBodyBytes)(api))
	handler = otelhttp.NewHandler(handler, constants.ServiceName,
		otelhttp.WithFilter(func(r *http.Request) bool {
			// probes are too frequent to trace
			return r.URL.Path != "/livez" && r.URL.Path != "/readyz"
		}),
	)

	srv := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.InfoContext(ctx, "HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down HTTP server", "addr", srv.Addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "failed to shutdown HTTP server", "error", err)
		}
	}()
}
