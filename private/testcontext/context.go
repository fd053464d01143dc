// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package testcontext implements a context for testing that also tracks
// goroutines started during the test.
package testcontext

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 3 * time.Minute

// Context is a context that tracks test goroutines.
type Context struct {
	context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	test   testing.TB

	once sync.Once
}

// New creates a new test context with a default timeout.
func New(test testing.TB) *Context {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	group, ctx := errgroup.WithContext(ctx)
	return &Context{
		Context: ctx,
		cancel:  cancel,
		group:   group,
		test:    test,
	}
}

// Go runs fn in a goroutine. Call Cleanup to check the result.
func (ctx *Context) Go(fn func() error) {
	ctx.test.Helper()
	ctx.group.Go(fn)
}

// Check calls fn and fails the test on error.
func (ctx *Context) Check(fn func() error) {
	ctx.test.Helper()
	if err := fn(); err != nil {
		ctx.test.Fatal(err)
	}
}

// Cleanup waits for everything to complete and checks errors.
func (ctx *Context) Cleanup() {
	ctx.test.Helper()
	ctx.once.Do(func() {
		defer ctx.cancel()
		if err := ctx.group.Wait(); err != nil {
			ctx.test.Fatal(err)
		}
	})
}
