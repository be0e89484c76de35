// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package concurrent provides bounded fan-out helpers.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs functions with at most size of them in flight
type WorkerPool struct {
	size int
}

// Run executes every fn and waits for all of them. The first error is
// returned and cancels the context handed to the remaining functions
// through RunContext.
func (p *WorkerPool) Run(ctx context.Context, fns ...func() error) error {
	wrapped := make([]func(context.Context) error, len(fns))
	for i, fn := range fns {
		wrapped[i] = func(context.Context) error { return fn() }
	}
	return p.RunContext(ctx, wrapped...)
}

// RunContext is Run for functions that observe cancellation
func (p *WorkerPool) RunContext(ctx context.Context, fns ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)
	for _, fn := range fns {
		g.Go(func() error {
			return fn(gctx)
		})
	}
	return g.Wait()
}

// NewWorkerPool creates a pool of the given size, at least one
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{size: size}
}
