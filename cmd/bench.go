// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/obolnetwork/picarlo/app"
	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/app/featureset"
	"github.com/obolnetwork/picarlo/app/log"
	"github.com/obolnetwork/picarlo/app/z"
	"github.com/obolnetwork/picarlo/bench"
)

type benchConfig struct {
	Log            log.Config
	Feature        featureset.Config
	Tracing        app.TracingConfig
	Trials         int
	Configs        []string
	Seed           uint64
	Seeded         bool
	Redistribute   bool
	Quiet          bool
	OutputToml     string
	Timeout        time.Duration
	MonitoringAddr string
}

func newBenchCmd(runFunc func(context.Context, io.Writer, benchConfig) error) *cobra.Command {
	var conf benchConfig

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmarks the serial and parallel estimators",
		Long:  `Benchmarks the serial estimator and the parallel estimator with a varying number of workers, reporting elapsed time and speedup of each configuration.`,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return mustOutputToFileOnQuiet(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf.Seeded = cmd.Flags().Changed("seed")
			return runFunc(cmd.Context(), cmd.OutOrStdout(), conf)
		},
	}

	bindBenchFlags(cmd.Flags(), &conf)
	bindLogFlags(cmd.Flags(), &conf.Log)
	bindFeatureFlags(cmd.Flags(), &conf.Feature)
	bindTracingFlags(cmd.Flags(), &conf.Tracing)

	return cmd
}

func bindBenchFlags(flags *pflag.FlagSet, config *benchConfig) {
	flags.IntVar(&config.Trials, "trials", 10_000_000, "Number of random points to sample per configuration.")
	flags.StringSliceVar(&config.Configs, "configs", []string{"serial", "2", "4", "8"}, "Comma separated list of configurations to benchmark; serial or a number of parallel workers.")
	flags.Uint64Var(&config.Seed, "seed", 0, "Random seed shared by all configurations. A random seed is used if not set.")
	flags.BoolVar(&config.Redistribute, "redistribute", false, "Spread the trials not divisible over the workers instead of dropping them.")
	flags.StringVar(&config.OutputToml, "output-toml", "", "File path to which output can be written in TOML format.")
	flags.BoolVar(&config.Quiet, "quiet", false, "Do not print benchmark results to stdout.")
	flags.DurationVar(&config.Timeout, "timeout", time.Hour, "Execution timeout for all configurations.")
	flags.StringVar(&config.MonitoringAddr, "monitoring-address", "", "Listening address (ip and port) for the monitoring API (prometheus, pprof) while benchmarking.")
}

func mustOutputToFileOnQuiet(cmd *cobra.Command) error {
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return errors.Wrap(err, "get quiet flag")
	}

	output, err := cmd.Flags().GetString("output-toml")
	if err != nil {
		return errors.Wrap(err, "get output-toml flag")
	}

	if quiet && output == "" {
		return errors.New("on --quiet, an --output-toml is required")
	}

	return nil
}

func runBench(ctx context.Context, w io.Writer, conf benchConfig) error {
	stopTracer, err := initAmbient(ctx, conf.Log, conf.Feature, conf.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		_ = stopTracer(context.Background())
	}()

	configs, err := bench.ParseConfigs(conf.Configs)
	if err != nil {
		return err
	}

	var opts []bench.Option
	if conf.Seeded {
		opts = append(opts, bench.WithSeed(conf.Seed))
	}
	if conf.Redistribute || featureset.Enabled(featureset.RedistributeRemainder) {
		opts = append(opts, bench.WithRedistribute())
	}
	if featureset.Enabled(featureset.BenchWarmup) {
		opts = append(opts, bench.WithWarmup(max(conf.Trials/10, 1)))
	}

	ctx, cancel := context.WithTimeout(ctx, conf.Timeout)
	defer cancel()

	var results bench.Results

	eg, ctx := errgroup.WithContext(ctx)
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()

	if conf.MonitoringAddr != "" {
		eg.Go(func() error {
			return app.ServeMonitoring(monitorCtx, conf.MonitoringAddr)
		})
	}

	eg.Go(func() error {
		defer stopMonitor()
		results = bench.Run(ctx, conf.Trials, configs, opts...)

		return nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}

	if !conf.Quiet {
		if err := bench.WriteText(w, results); err != nil {
			return err
		}
	}

	if conf.OutputToml != "" {
		if err := bench.WriteTOML(conf.OutputToml, results); err != nil {
			return err
		}

		log.Info(ctx, "Benchmark report written", z.Str("path", conf.OutputToml))
	}

	if failed := results.Failed(); failed == len(results.Records) {
		return errors.New("all benchmark configurations failed", z.Int("configs", failed))
	}

	return nil
}
