// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package app wires the long running picarlo process: the estimation HTTP API,
// the monitoring API and tracing, started and stopped via a lifecycle manager.
package app

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/app/featureset"
	"github.com/obolnetwork/picarlo/app/lifecycle"
	"github.com/obolnetwork/picarlo/app/log"
	"github.com/obolnetwork/picarlo/app/promauto"
	"github.com/obolnetwork/picarlo/app/tracer"
	"github.com/obolnetwork/picarlo/app/version"
	"github.com/obolnetwork/picarlo/app/z"
)

const (
	// DefaultMaxTrials is the default upper bound of trials per API request.
	DefaultMaxTrials = 100_000_000
	// DefaultMaxWorkers is the default upper bound of parallel workers per API request.
	DefaultMaxWorkers = 256
)

// TracingConfig defines the OpenTelemetry tracing config.
type TracingConfig struct {
	OTLPAddr        string
	OTLPServiceName string
}

// Config defines the config of the picarlo server.
type Config struct {
	Log            log.Config
	Feature        featureset.Config
	Tracing        TracingConfig
	HTTPAddr       string
	MonitoringAddr string
	MaxTrials      int
	MaxWorkers     int
}

// Run runs the picarlo server until the context is cancelled or a component fails.
func Run(ctx context.Context, conf Config) (err error) {
	ctx = log.WithTopic(ctx, "app")
	defer func() {
		if err != nil {
			log.Error(ctx, "Fatal run error", err)
		}
	}()

	version.LogInfo(ctx, "Picarlo server starting")

	life := new(lifecycle.Manager)

	if err := wireTracing(life, conf); err != nil {
		return err
	}

	registry, err := promauto.NewRegistry(nil)
	if err != nil {
		return err
	}

	initStartupMetrics()

	var ready atomic.Bool
	readyFunc := func() error {
		if !ready.Load() {
			return errors.New("http api not serving")
		}

		return nil
	}

	wireMonitoringAPI(life, conf.MonitoringAddr, registry, readyFunc)
	wireHTTPAPI(ctx, life, conf, &ready)

	return life.Run(ctx)
}

// wireTracing constructs the global tracer and registers it with the life cycle manager.
func wireTracing(life *lifecycle.Manager, conf Config) error {
	stopTracer, err := tracer.Init(
		tracer.WithOTLPOrNoop(conf.Tracing.OTLPAddr),
		tracer.WithServiceName(conf.Tracing.OTLPServiceName),
	)
	if err != nil {
		return errors.Wrap(err, "init tracing")
	}

	life.RegisterStop(lifecycle.StopTracing, lifecycle.HookFunc(stopTracer))

	return nil
}

// wireMonitoringAPI constructs the monitoring API and registers it with the life cycle manager.
func wireMonitoringAPI(life *lifecycle.Manager, addr string, registry *prometheus.Registry, ready func() error) {
	if addr == "" {
		return
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           NewMonitoringRouter(registry, ready),
		ReadHeaderTimeout: time.Second,
	}

	life.RegisterStart(lifecycle.AsyncBackground, lifecycle.StartMonitoringAPI, httpServeHook(server.ListenAndServe))
	life.RegisterStop(lifecycle.StopMonitoringAPI, lifecycle.HookFunc(server.Shutdown))
}

// wireHTTPAPI constructs the estimation API and registers it with the life cycle manager.
// The ready flag is set once the listener is bound.
func wireHTTPAPI(ctx context.Context, life *lifecycle.Manager, conf Config, ready *atomic.Bool) {
	maxTrials := conf.MaxTrials
	if maxTrials <= 0 {
		maxTrials = DefaultMaxTrials
	}

	maxWorkers := conf.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	server := &http.Server{
		Addr:              conf.HTTPAddr,
		Handler:           NewRouter(maxTrials, maxWorkers),
		ReadHeaderTimeout: time.Second,
	}

	serve := func() error {
		ln, err := net.Listen("tcp", conf.HTTPAddr)
		if err != nil {
			return errors.Wrap(err, "listen", z.Str("address", conf.HTTPAddr))
		}

		log.Info(ctx, "Serving estimation API", z.Str("address", ln.Addr().String()))
		ready.Store(true)

		return server.Serve(ln)
	}

	life.RegisterStart(lifecycle.AsyncBackground, lifecycle.StartHTTPAPI, httpServeHook(serve))
	life.RegisterStop(lifecycle.StopHTTPAPI, lifecycle.HookFunc(func(ctx context.Context) error {
		ready.Store(false)
		return server.Shutdown(ctx)
	}))
}

// ServeMonitoring serves the monitoring API on addr until the context is cancelled.
func ServeMonitoring(ctx context.Context, addr string) error {
	registry, err := promauto.NewRegistry(nil)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           NewMonitoringRouter(registry, func() error { return nil }),
		ReadHeaderTimeout: time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServeHook(server.ListenAndServe).Call(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown monitoring server")
	}

	return <-errCh
}

// httpServeHook wraps a http.Server.ListenAndServe function, swallowing http.ErrServerClosed.
type httpServeHook func() error

func (h httpServeHook) Call(context.Context) error {
	err := h()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	} else if err != nil {
		return errors.Wrap(err, "serve")
	}

	return nil
}
