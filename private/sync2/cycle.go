// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package sync2 provides synchronization primitives for long-running loops.
package sync2

import (
	"context"
	"sync"
	"time"
)

// Cycle implements a controllable recurring event.
type Cycle struct {
	interval time.Duration

	ticker  *time.Ticker
	control chan interface{}
	quit    chan struct{}

	init sync.Once
}

type (
	cycleStop    struct{}
	cycleTrigger struct {
		done chan struct{}
	}
)

// NewCycle creates a new cycle with the specified interval.
func NewCycle(interval time.Duration) *Cycle {
	cycle := &Cycle{}
	cycle.SetInterval(interval)
	return cycle
}

// SetInterval allows changing the interval before starting.
func (cycle *Cycle) SetInterval(interval time.Duration) {
	cycle.interval = interval
}

// initialize sets up the channels so that control messages can be sent
// before Run has started.
func (cycle *Cycle) initialize() {
	cycle.init.Do(func() {
		cycle.control = make(chan interface{})
		cycle.quit = make(chan struct{})
	})
}

func (cycle *Cycle) sendControl(message interface{}) {
	cycle.initialize()
	select {
	case cycle.control <- message:
	case <-cycle.quit:
	}
}

// Run runs fn immediately and afterwards on every tick, until the context is
// cancelled, fn fails or Stop is called.
func (cycle *Cycle) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	cycle.initialize()
	defer close(cycle.quit)

	cycle.ticker = time.NewTicker(cycle.interval)
	defer cycle.ticker.Stop()

	if err := fn(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-cycle.ticker.C:
			if err := fn(ctx); err != nil {
				return err
			}

		case message := <-cycle.control:
			switch message := message.(type) {
			case cycleStop:
				return nil
			case cycleTrigger:
				if err := fn(ctx); err != nil {
					return err
				}
				if message.done != nil {
					message.done <- struct{}{}
				}
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop stops the cycle permanently.
func (cycle *Cycle) Stop() {
	cycle.sendControl(cycleStop{})
}

// TriggerWait ensures that the loop is done at least once and waits for completion.
func (cycle *Cycle) TriggerWait() {
	done := make(chan struct{})
	cycle.sendControl(cycleTrigger{done})
	select {
	case <-done:
	case <-cycle.quit:
	}
}
