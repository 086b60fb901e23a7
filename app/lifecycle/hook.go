// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package lifecycle

import (
	"context"
	"time"

	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/app/log"
	"github.com/obolnetwork/picarlo/app/z"
)

// shutdownTimeout bounds the total duration of all stop hooks.
const shutdownTimeout = 10 * time.Second

// IHookFunc is the life cycle hook function interface.
type IHookFunc interface {
	Call(context.Context) error
}

// HookFunc wraps a standard hook function as a IHookFunc.
type HookFunc func(ctx context.Context) error

func (fn HookFunc) Call(ctx context.Context) error {
	return fn(ctx)
}

// HookFuncErr wraps a hook function without context as a IHookFunc.
type HookFuncErr func() error

func (fn HookFuncErr) Call(context.Context) error {
	return fn()
}

// HookStartType defines how a start hook is called.
type HookStartType int

const (
	// AsyncAppCtx hooks are called in the background with the application context.
	AsyncAppCtx HookStartType = iota + 1

	// SyncBackground hooks are called blocking with a background context and
	// are expected to be stopped by a stop hook.
	SyncBackground

	// AsyncBackground hooks are called in the background with a background context
	// and are expected to be stopped by a stop hook.
	AsyncBackground
)

type hook struct {
	Order     int
	Label     string
	StartType HookStartType
	Func      IHookFunc
}

func runHooks(appCtx context.Context, startHooks []hook, stopHooks []hook) error {
	firstErr := make(chan error, 1)
	cacheErr := func(err error) {
		select {
		case firstErr <- err:
		default:
		}
	}

	// startCtx is cancelled on shutdown or when a start hook fails.
	startCtx, cancel := context.WithCancel(appCtx)
	defer cancel()

	backgroundCtx := log.WithTopic(context.Background(), "app-start")

	for _, h := range startHooks {
		if startCtx.Err() != nil {
			break
		}

		switch h.StartType {
		case AsyncAppCtx:
			go startHook(startCtx, h, cancel, cacheErr)
		case SyncBackground:
			startHook(backgroundCtx, h, cancel, cacheErr)
		case AsyncBackground:
			go startHook(backgroundCtx, h, cancel, cacheErr)
		default:
			return errors.New("unexpected hook type", z.Int("type", int(h.StartType)))
		}
	}

	<-startCtx.Done()

	if appCtx.Err() != nil {
		log.Info(appCtx, "Shutdown signal detected")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	stopCtx = log.WithTopic(stopCtx, "app-stop")
	log.Info(stopCtx, "Shutting down gracefully")

	for _, h := range stopHooks {
		if stopCtx.Err() != nil {
			break
		}

		err := h.Func.Call(stopCtx)
		if errors.Is(stopCtx.Err(), context.DeadlineExceeded) {
			cacheErr(errors.New("shutdown timeout", z.Str("hook", h.Label)))
		} else if err != nil && !errors.Is(err, context.Canceled) {
			cacheErr(errors.Wrap(err, "stop hook", z.Str("hook", h.Label)))
			stopCancel()
		}
	}

	cacheErr(nil)

	return <-firstErr
}

// startHook calls the hook and triggers shutdown if it fails.
func startHook(ctx context.Context, h hook, cancel context.CancelFunc, cacheErr func(error)) {
	err := h.Func.Call(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		cacheErr(errors.Wrap(err, "start hook", z.Str("hook", h.Label)))
		cancel()
	}
}
