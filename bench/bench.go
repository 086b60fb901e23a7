// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package bench times the serial and parallel π estimators over a list of
// configurations and reports the elapsed time and speedup of each.
package bench

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/app/log"
	"github.com/obolnetwork/picarlo/app/tracer"
	"github.com/obolnetwork/picarlo/app/z"
	"github.com/obolnetwork/picarlo/montecarlo"
)

// Runner executes a single estimation, workers is zero for the serial driver.
type Runner func(ctx context.Context, trials int, workers int, opts ...montecarlo.Option) (montecarlo.Estimate, error)

// DefaultRunner dispatches to montecarlo.Serial or montecarlo.Parallel.
func DefaultRunner(ctx context.Context, trials int, workers int, opts ...montecarlo.Option) (montecarlo.Estimate, error) {
	if workers == 0 {
		return montecarlo.Serial(ctx, trials, opts...)
	}

	return montecarlo.Parallel(ctx, trials, workers, opts...)
}

// Record is the outcome of a single benchmarked configuration.
type Record struct {
	Config
	Elapsed  time.Duration
	Estimate montecarlo.Estimate
	Err      error
}

// OK returns true if the configuration completed successfully.
func (r Record) OK() bool {
	return r.Err == nil
}

// Results are the records of a benchmark run in configuration order.
type Results struct {
	Trials  int
	Seed    uint64
	Records []Record
}

// Baseline returns the first successful serial record, else the first successful record.
// It returns false if no configuration succeeded.
func (r Results) Baseline() (Record, bool) {
	for _, rec := range r.Records {
		if rec.OK() && rec.Serial() {
			return rec, true
		}
	}

	for _, rec := range r.Records {
		if rec.OK() {
			return rec, true
		}
	}

	return Record{}, false
}

// Speedup returns the ratio of the baseline elapsed time over the elapsed time of record i.
// It returns false if either the baseline or the record is not available.
func (r Results) Speedup(i int) (float64, bool) {
	if i < 0 || i >= len(r.Records) {
		return 0, false
	}

	rec := r.Records[i]
	if !rec.OK() || rec.Elapsed <= 0 {
		return 0, false
	}

	baseline, ok := r.Baseline()
	if !ok {
		return 0, false
	}

	return float64(baseline.Elapsed) / float64(rec.Elapsed), true
}

// Failed returns the number of failed configurations.
func (r Results) Failed() int {
	var n int
	for _, rec := range r.Records {
		if !rec.OK() {
			n++
		}
	}

	return n
}

type options struct {
	seed         uint64
	seeded       bool
	redistribute bool
	warmup       int
	clock        clockwork.Clock
	runner       Runner
}

// Option configures Run.
type Option func(*options)

// WithSeed returns an option that seeds every configuration with the same seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithRedistribute returns an option that spreads the remainder of the parallel partitions.
func WithRedistribute() Option {
	return func(o *options) {
		o.redistribute = true
	}
}

// WithWarmup returns an option that runs the serial estimator once untimed with the given trials
// before the first configuration.
func WithWarmup(trials int) Option {
	return func(o *options) {
		o.warmup = trials
	}
}

// WithClock returns an option overriding the clock used to time configurations.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithRunner returns an option overriding the estimator.
func WithRunner(runner Runner) Option {
	return func(o *options) {
		o.runner = runner
	}
}

// Run times each configuration in order and returns one record per configuration.
// A failing configuration does not prevent the following ones from running.
// Once ctx is done, all remaining configurations are recorded as failed.
func Run(ctx context.Context, trials int, configs []Config, opts ...Option) Results {
	o := options{
		clock:  clockwork.NewRealClock(),
		runner: DefaultRunner,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if !o.seeded {
		o.seed = montecarlo.RandomSeed()
	}

	estOpts := []montecarlo.Option{montecarlo.WithSeed(o.seed)}
	if o.redistribute {
		estOpts = append(estOpts, montecarlo.WithRedistribute())
	}

	ctx = log.WithTopic(ctx, "bench")
	ctx = errors.WithCtxErr(ctx, "benchmark aborted")
	labels := make([]string, 0, len(configs))
	for _, config := range configs {
		labels = append(labels, config.Label)
	}

	log.Info(ctx, "Starting benchmark",
		z.Int("trials", trials),
		z.Any("configs", labels),
		z.U64("seed", o.seed),
		z.Bool("redistribute", o.redistribute),
	)

	if o.warmup > 0 {
		warmup(ctx, o, estOpts)
	}

	filter := log.Filter()
	results := Results{
		Trials:  trials,
		Seed:    o.seed,
		Records: make([]Record, 0, len(configs)),
	}

	for _, config := range configs {
		rec := Record{Config: config}

		if err := ctx.Err(); err != nil {
			rec.Err = err
		} else {
			rec.Elapsed, rec.Estimate, rec.Err = runConfig(ctx, o, config, trials, estOpts)
		}

		if rec.Err != nil {
			failureCounter.WithLabelValues(config.Label).Inc()
			log.Warn(ctx, "Benchmark configuration failed", rec.Err, z.Str("config", config.Label), filter)
		} else {
			durationHist.WithLabelValues(config.Label).Observe(rec.Elapsed.Seconds())
			log.Debug(ctx, "Benchmark configuration complete",
				z.Str("config", config.Label),
				z.Dur("elapsed", rec.Elapsed),
				z.F64("estimate", rec.Estimate.Value),
			)
		}

		results.Records = append(results.Records, rec)
	}

	log.Info(ctx, "Benchmark complete", z.Int("failed", results.Failed()))

	return results
}

// warmup runs the serial estimator once untimed before the first configuration.
// Failures are logged only, any persistent failure surfaces in the timed runs.
func warmup(ctx context.Context, o options, estOpts []montecarlo.Option) {
	if ctx.Err() != nil {
		return
	}

	if _, err := o.runner(ctx, o.warmup, SerialConfig().Workers, estOpts...); err != nil {
		log.Warn(ctx, "Benchmark warmup failed", err, z.Int("trials", o.warmup))
		return
	}

	log.Debug(ctx, "Benchmark warmup complete", z.Int("trials", o.warmup))
}

// runConfig times a single configuration including goroutine dispatch.
func runConfig(ctx context.Context, o options, config Config, trials int, estOpts []montecarlo.Option,
) (time.Duration, montecarlo.Estimate, error) {
	ctx, span := tracer.Start(ctx, "bench/config", trace.WithAttributes(
		attribute.String("config", config.Label),
		attribute.Int("workers", config.Workers),
	))
	defer span.End()

	start := o.clock.Now()
	est, err := o.runner(ctx, trials, config.Workers, estOpts...)
	elapsed := o.clock.Since(start)

	if err != nil {
		span.SetStatus(codes.Error, "benchmark failed")
		return elapsed, montecarlo.Estimate{}, errors.Wrap(err, "run configuration", z.Str("config", config.Label))
	}

	return elapsed, est, nil
}
