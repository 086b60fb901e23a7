// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package montecarlo_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/obolnetwork/picarlo/montecarlo"
)

const seed = 1234

func TestSerial(t *testing.T) {
	const trials = 1_000_000

	est, err := montecarlo.Serial(context.Background(), trials, montecarlo.WithSeed(seed))
	require.NoError(t, err)

	require.Equal(t, montecarlo.ModeSerial, est.Mode)
	require.Equal(t, trials, est.Sampled)
	require.Zero(t, est.Dropped)
	require.GreaterOrEqual(t, est.Hits, 0)
	require.LessOrEqual(t, est.Hits, trials)
	require.InDelta(t, 4*est.Fraction(), est.Value, 1e-12)
	require.Less(t, est.Error(), 0.05)
	require.InDelta(t, math.Pi, est.Value, 0.05)
}

func TestSerialReproducible(t *testing.T) {
	ctx := context.Background()

	est1, err := montecarlo.Serial(ctx, 10_000, montecarlo.WithSeed(seed))
	require.NoError(t, err)
	est2, err := montecarlo.Serial(ctx, 10_000, montecarlo.WithSeed(seed))
	require.NoError(t, err)

	require.Equal(t, est1, est2)
}

func TestSerialInvalid(t *testing.T) {
	_, err := montecarlo.Serial(context.Background(), 0)
	require.ErrorIs(t, err, montecarlo.ErrInvalidArgument)
}

func TestParallel(t *testing.T) {
	defer goleak.VerifyNone(t)

	const (
		trials  = 1_000_000
		workers = 4
	)

	ctx := context.Background()

	par, err := montecarlo.Parallel(ctx, trials, workers, montecarlo.WithSeed(seed))
	require.NoError(t, err)
	require.Equal(t, montecarlo.ModeParallel, par.Mode)
	require.Equal(t, workers, par.Workers)
	require.Equal(t, trials, par.Sampled)
	require.Zero(t, par.Dropped)
	require.Less(t, par.Error(), 0.05)

	ser, err := montecarlo.Serial(ctx, trials, montecarlo.WithSeed(seed))
	require.NoError(t, err)

	// Both are in the same tolerance band.
	require.InDelta(t, ser.Value, par.Value, 0.1)
}

func TestParallelSumOfWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	const (
		trials  = 120_000
		workers = 6
	)

	ctx := context.Background()

	est, err := montecarlo.Parallel(ctx, trials, workers, montecarlo.WithSeed(seed))
	require.NoError(t, err)

	var expect int
	for i := range workers {
		hits, err := montecarlo.CountHits(ctx, montecarlo.NewSource(seed, uint64(i)), trials/workers)
		require.NoError(t, err)
		expect += hits
	}

	require.Equal(t, expect, est.Hits)
}

func TestParallelSingleWorkerMatchesSerial(t *testing.T) {
	ctx := context.Background()

	par, err := montecarlo.Parallel(ctx, 50_000, 1, montecarlo.WithSeed(seed))
	require.NoError(t, err)
	ser, err := montecarlo.Serial(ctx, 50_000, montecarlo.WithSeed(seed))
	require.NoError(t, err)

	require.Equal(t, ser.Hits, par.Hits)
	require.InDelta(t, ser.Value, par.Value, 0)
}

func TestParallelReproducible(t *testing.T) {
	ctx := context.Background()

	est1, err := montecarlo.Parallel(ctx, 100_000, 8, montecarlo.WithSeed(seed))
	require.NoError(t, err)
	est2, err := montecarlo.Parallel(ctx, 100_000, 8, montecarlo.WithSeed(seed))
	require.NoError(t, err)

	require.Equal(t, est1, est2)
}

func TestParallelRemainder(t *testing.T) {
	ctx := context.Background()

	est, err := montecarlo.Parallel(ctx, 1003, 4, montecarlo.WithSeed(seed))
	require.NoError(t, err)
	require.Equal(t, 1003, est.Requested)
	require.Equal(t, 1000, est.Sampled)
	require.Equal(t, 3, est.Dropped)
	require.InDelta(t, 4*float64(est.Hits)/1000, est.Value, 1e-12)

	est, err = montecarlo.Parallel(ctx, 1003, 4, montecarlo.WithSeed(seed), montecarlo.WithRedistribute())
	require.NoError(t, err)
	require.Equal(t, 1003, est.Sampled)
	require.Zero(t, est.Dropped)
}

func TestParallelInvalid(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		trials  int
		workers int
	}{
		{name: "zero workers", trials: 100, workers: 0},
		{name: "negative workers", trials: 100, workers: -2},
		{name: "zero trials", trials: 0, workers: 2},
		{name: "more workers than trials", trials: 3, workers: 4},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := montecarlo.Parallel(ctx, test.trials, test.workers)
			require.ErrorIs(t, err, montecarlo.ErrInvalidArgument)
		})
	}
}

func TestParallelCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := montecarlo.Parallel(ctx, 1_000_000, 4)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name         string
		trials       int
		workers      int
		redistribute bool
		chunks       []int
		dropped      int
	}{
		{name: "even", trials: 8, workers: 4, chunks: []int{2, 2, 2, 2}},
		{name: "remainder dropped", trials: 10, workers: 4, chunks: []int{2, 2, 2, 2}, dropped: 2},
		{name: "remainder redistributed", trials: 10, workers: 4, redistribute: true, chunks: []int{3, 3, 2, 2}},
		{name: "single", trials: 7, workers: 1, chunks: []int{7}},
		{name: "one each", trials: 3, workers: 3, chunks: []int{1, 1, 1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			chunks, dropped, err := montecarlo.Partition(test.trials, test.workers, test.redistribute)
			require.NoError(t, err)
			require.Equal(t, test.chunks, chunks)
			require.Equal(t, test.dropped, dropped)

			var sum int
			for _, c := range chunks {
				sum += c
			}
			require.Equal(t, test.trials, sum+dropped)
		})
	}
}

func TestEstimateFraction(t *testing.T) {
	require.Zero(t, montecarlo.Estimate{}.Fraction())
	require.InDelta(t, 0.75, montecarlo.Estimate{Hits: 3, Sampled: 4}.Fraction(), 0)
	require.InDelta(t, 0, montecarlo.Estimate{Value: math.Pi}.Error(), 0)
}
