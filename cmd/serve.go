// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/obolnetwork/picarlo/app"
	"github.com/obolnetwork/picarlo/app/featureset"
	"github.com/obolnetwork/picarlo/app/log"
)

func newServeCmd(runFunc func(context.Context, app.Config) error) *cobra.Command {
	var conf app.Config

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the picarlo estimation server",
		Long:  "Starts the long-running picarlo process serving estimations over HTTP alongside the monitoring API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runFunc(ctx, conf)
		},
	}

	bindServeFlags(cmd.Flags(), &conf)
	bindLogFlags(cmd.Flags(), &conf.Log)
	bindFeatureFlags(cmd.Flags(), &conf.Feature)
	bindTracingFlags(cmd.Flags(), &conf.Tracing)

	return cmd
}

func bindServeFlags(flags *pflag.FlagSet, config *app.Config) {
	flags.StringVar(&config.HTTPAddr, "http-address", "127.0.0.1:3600", "Listening address (ip and port) for the estimation API.")
	flags.StringVar(&config.MonitoringAddr, "monitoring-address", "127.0.0.1:3620", "Listening address (ip and port) for the monitoring API (prometheus, pprof). Empty disables it.")
	flags.IntVar(&config.MaxTrials, "max-trials", app.DefaultMaxTrials, "Maximum number of trials per estimation request.")
	flags.IntVar(&config.MaxWorkers, "max-workers", app.DefaultMaxWorkers, "Maximum number of parallel workers per estimation request.")
}

// runServe initialises logging and the feature set and runs the server.
func runServe(ctx context.Context, conf app.Config) error {
	if err := log.InitLogger(conf.Log); err != nil {
		return err
	}

	if err := featureset.Init(ctx, conf.Feature); err != nil {
		return err
	}

	return app.Run(ctx, conf)
}
