// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package montecarlo estimates π by sampling random points of the unit square
// and counting the ones inside the unit circle, either on a single goroutine
// (Serial) or partitioned over independent concurrent workers (Parallel).
package montecarlo

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/app/forkjoin"
	"github.com/obolnetwork/picarlo/app/log"
	"github.com/obolnetwork/picarlo/app/tracer"
	"github.com/obolnetwork/picarlo/app/z"
)

const (
	ModeSerial   = "serial"
	ModeParallel = "parallel"
)

// Estimate is the result of a single estimation run.
type Estimate struct {
	Mode      string  `json:"mode"`
	Requested int     `json:"requested"`
	Sampled   int     `json:"sampled"`
	Dropped   int     `json:"dropped"`
	Hits      int     `json:"hits"`
	Workers   int     `json:"workers"`
	Seed      uint64  `json:"seed"`
	Value     float64 `json:"value"`
}

// Fraction returns the fraction of sampled trials that were hits.
func (e Estimate) Fraction() float64 {
	if e.Sampled == 0 {
		return 0
	}

	return float64(e.Hits) / float64(e.Sampled)
}

// Error returns the absolute difference between the estimate and π.
func (e Estimate) Error() float64 {
	return math.Abs(e.Value - math.Pi)
}

type options struct {
	seed         uint64
	seeded       bool
	redistribute bool
}

// Option configures Serial and Parallel.
type Option func(*options)

// WithSeed returns an option making the estimation deterministic.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithRedistribute returns an option spreading the trials that do not divide
// evenly over the workers, instead of dropping them.
func WithRedistribute() Option {
	return func(o *options) {
		o.redistribute = true
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if !o.seeded {
		o.seed = RandomSeed()
	}

	return o
}

// Serial estimates π by running all trials on the calling goroutine.
func Serial(ctx context.Context, trials int, opts ...Option) (Estimate, error) {
	o := newOptions(opts)

	ctx, span := tracer.Start(ctx, "montecarlo/serial", trace.WithAttributes(
		attribute.Int("trials", trials),
	))
	defer span.End()

	hits, err := CountHits(ctx, NewSource(o.seed, 0), trials)
	if err != nil {
		return Estimate{}, errors.Wrap(err, "serial estimate", z.U64("seed", o.seed))
	}

	est := Estimate{
		Mode:      ModeSerial,
		Requested: trials,
		Sampled:   trials,
		Hits:      hits,
		Workers:   1,
		Seed:      o.seed,
		Value:     4 * float64(hits) / float64(trials),
	}

	observeEstimate(est)
	log.Debug(ctx, "Serial estimate complete", estimateFields(est))

	return est, nil
}

// Parallel estimates π by partitioning the trials over the given number of workers,
// each running concurrently on its own random stream, and summing their hit counts.
//
// Unless WithRedistribute is provided, the remainder of trials/workers is not sampled.
// It is reported in Estimate.Dropped and the estimate is based on the sampled trials only.
func Parallel(ctx context.Context, trials int, workers int, opts ...Option) (Estimate, error) {
	o := newOptions(opts)

	chunks, dropped, err := Partition(trials, workers, o.redistribute)
	if err != nil {
		return Estimate{}, err
	}

	ctx, span := tracer.Start(ctx, "montecarlo/parallel", trace.WithAttributes(
		attribute.Int("trials", trials),
		attribute.Int("workers", workers),
	))
	defer span.End()

	if dropped > 0 {
		log.Warn(ctx, "Trials do not divide evenly over workers, dropping remainder", nil,
			z.Int("trials", trials),
			z.Int("workers", workers),
			z.Int("dropped", dropped),
		)
	}

	type partition struct {
		Index  int
		Trials int
	}

	inputs := make([]partition, 0, len(chunks))
	for i, chunk := range chunks {
		inputs = append(inputs, partition{Index: i, Trials: chunk})
	}

	count := func(ctx context.Context, p partition) (int, error) {
		return CountHits(ctx, NewSource(o.seed, uint64(p.Index)), p.Trials)
	}

	results, cancel := forkjoin.NewWithInputs(ctx, count, inputs,
		forkjoin.WithWorkers(workers),
		forkjoin.WithInputBuffer(workers),
		forkjoin.WithWaitOnCancel(),
	)
	defer cancel()

	partials, err := results.Flatten()
	if err != nil {
		return Estimate{}, errors.Wrap(err, "parallel estimate", z.Int("workers", workers), z.U64("seed", o.seed))
	} else if len(partials) != len(inputs) {
		// Partitions are not forked once ctx is done.
		return Estimate{}, errors.Wrap(ctx.Err(), "parallel estimate interrupted", z.Int("workers", workers))
	}

	var hits int
	for _, partial := range partials {
		hits += partial
	}

	sampled := trials - dropped

	est := Estimate{
		Mode:      ModeParallel,
		Requested: trials,
		Sampled:   sampled,
		Dropped:   dropped,
		Hits:      hits,
		Workers:   workers,
		Seed:      o.seed,
		Value:     4 * float64(hits) / float64(sampled),
	}

	observeEstimate(est)
	log.Debug(ctx, "Parallel estimate complete", estimateFields(est))

	return est, nil
}

// Partition splits trials into workers chunks of trials/workers each and returns
// the chunks and the number of dropped trials. If redistribute is true, the remainder
// is spread one trial each over the first chunks and nothing is dropped.
func Partition(trials int, workers int, redistribute bool) ([]int, int, error) {
	if trials <= 0 {
		return nil, 0, errors.Wrap(ErrInvalidArgument, "non-positive trial count", z.Int("trials", trials))
	} else if workers <= 0 {
		return nil, 0, errors.Wrap(ErrInvalidArgument, "non-positive worker count", z.Int("workers", workers))
	} else if workers > trials {
		return nil, 0, errors.Wrap(ErrInvalidArgument, "more workers than trials",
			z.Int("trials", trials), z.Int("workers", workers))
	}

	size := trials / workers
	remainder := trials % workers

	chunks := make([]int, workers)
	for i := range chunks {
		chunks[i] = size
		if redistribute && i < remainder {
			chunks[i]++
		}
	}

	if redistribute {
		return chunks, 0, nil
	}

	return chunks, remainder, nil
}

func estimateFields(est Estimate) z.Field {
	return func(add func(zap.Field)) {
		z.Int("sampled", est.Sampled)(add)
		z.Int("hits", est.Hits)(add)
		z.Int("workers", est.Workers)(add)
		z.U64("seed", est.Seed)(add)
		z.F64("estimate", est.Value)(add)
	}
}
