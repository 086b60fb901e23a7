// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/obolnetwork/picarlo/app"
	"github.com/obolnetwork/picarlo/app/featureset"
	"github.com/obolnetwork/picarlo/app/log"
	"github.com/obolnetwork/picarlo/app/z"
	"github.com/obolnetwork/picarlo/bench"
	"github.com/obolnetwork/picarlo/montecarlo"
)

type estimateConfig struct {
	Log          log.Config
	Feature      featureset.Config
	Tracing      app.TracingConfig
	Trials       int
	Workers      int
	Seed         uint64
	Seeded       bool
	Redistribute bool
}

func newEstimateCmd(runFunc func(context.Context, io.Writer, estimateConfig) error) *cobra.Command {
	var conf estimateConfig

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimates π",
		Long:  "Estimates π by sampling random points of the unit square, serially or partitioned over parallel workers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf.Seeded = cmd.Flags().Changed("seed")
			return runFunc(cmd.Context(), cmd.OutOrStdout(), conf)
		},
	}

	bindEstimateFlags(cmd.Flags(), &conf)
	bindLogFlags(cmd.Flags(), &conf.Log)
	bindFeatureFlags(cmd.Flags(), &conf.Feature)
	bindTracingFlags(cmd.Flags(), &conf.Tracing)

	return cmd
}

func bindEstimateFlags(flags *pflag.FlagSet, config *estimateConfig) {
	flags.IntVar(&config.Trials, "trials", 1_000_000, "Number of random points to sample.")
	flags.IntVar(&config.Workers, "workers", 0, "Number of parallel workers, 0 selects the serial estimator.")
	flags.Uint64Var(&config.Seed, "seed", 0, "Random seed for reproducible estimates. A random seed is used if not set.")
	flags.BoolVar(&config.Redistribute, "redistribute", false, "Spread the trials not divisible over the workers instead of dropping them.")
}

func runEstimate(ctx context.Context, w io.Writer, conf estimateConfig) error {
	stopTracer, err := initAmbient(ctx, conf.Log, conf.Feature, conf.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		_ = stopTracer(context.Background())
	}()

	ctx = log.WithTopic(ctx, "estimate")

	var opts []montecarlo.Option
	if conf.Seeded {
		opts = append(opts, montecarlo.WithSeed(conf.Seed))
	}
	if conf.Redistribute || featureset.Enabled(featureset.RedistributeRemainder) {
		opts = append(opts, montecarlo.WithRedistribute())
	}

	t0 := time.Now()

	var est montecarlo.Estimate
	if conf.Workers == 0 {
		est, err = montecarlo.Serial(ctx, conf.Trials, opts...)
	} else {
		est, err = montecarlo.Parallel(ctx, conf.Trials, conf.Workers, opts...)
	}
	if err != nil {
		return err
	}

	elapsed := time.Since(t0)

	log.Info(ctx, "Estimate complete",
		z.F64("estimate", est.Value),
		z.U64("seed", est.Seed),
		z.Dur("elapsed", elapsed),
	)

	return writeEstimate(w, est, elapsed)
}

// writeEstimate writes a human readable summary of the estimate.
func writeEstimate(w io.Writer, est montecarlo.Estimate, elapsed time.Duration) error {
	mode := est.Mode
	if est.Mode == montecarlo.ModeParallel {
		mode = fmt.Sprintf("%s (%d workers)", est.Mode, est.Workers)
	}

	lines := []string{
		fmt.Sprintf("%-10s %.6f", "Estimate:", est.Value),
		fmt.Sprintf("%-10s %.6f", "Error:", est.Error()),
		fmt.Sprintf("%-10s %s", "Mode:", mode),
		fmt.Sprintf("%-10s %d requested, %d sampled, %d dropped", "Trials:", est.Requested, est.Sampled, est.Dropped),
		fmt.Sprintf("%-10s %d", "Seed:", est.Seed),
		fmt.Sprintf("%-10s %s", "Elapsed:", bench.RoundDuration(bench.Duration{Duration: elapsed})),
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}

	return nil
}
