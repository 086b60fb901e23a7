// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package lifecycle starts and stops long running processes through ordered hooks.
//
// Start hooks run either blocking or in the background, with either the application
// context (hard shutdown) or a background context (graceful shutdown via a stop hook).
// A failing start hook or a closed application context triggers graceful shutdown.
// Stop hooks run in order with a shared shutdown timeout.
package lifecycle

import (
	"context"
	"slices"
	"sync"
)

// Manager runs registered start and stop hooks.
type Manager struct {
	mu         sync.Mutex
	started    bool
	startHooks []hook
	stopHooks  []hook
}

// RegisterStart registers a start hook of the given type at the given order.
func (m *Manager) RegisterStart(typ HookStartType, order OrderStart, fn IHookFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		panic("lifecycle already started")
	}

	m.startHooks = append(m.startHooks, hook{
		Label:     order.String(),
		Order:     int(order),
		StartType: typ,
		Func:      fn,
	})
}

// RegisterStop registers a blocking stop hook called with the shutdown context.
func (m *Manager) RegisterStop(order OrderStop, fn IHookFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		panic("lifecycle already started")
	}

	m.stopHooks = append(m.stopHooks, hook{
		Label: order.String(),
		Order: int(order),
		Func:  fn,
	})
}

// Run starts all hooks, blocks until shutdown, then stops all hooks.
// It returns the first hook error.
func (m *Manager) Run(appCtx context.Context) error {
	m.mu.Lock()
	m.started = true
	startHooks := slices.Clone(m.startHooks)
	stopHooks := slices.Clone(m.stopHooks)
	m.mu.Unlock()

	byOrder := func(a, b hook) int { return a.Order - b.Order }
	slices.SortStableFunc(startHooks, byOrder)
	slices.SortStableFunc(stopHooks, byOrder)

	return runHooks(appCtx, startHooks, stopHooks)
}
