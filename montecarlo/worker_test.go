// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package montecarlo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obolnetwork/picarlo/montecarlo"
)

// sequence is a Source returning a fixed cycle of values.
type sequence struct {
	vals []float64
	i    int
}

func (s *sequence) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++

	return v
}

func TestCountHits(t *testing.T) {
	tests := []struct {
		name   string
		vals   []float64
		trials int
		hits   int
	}{
		{
			name:   "origin",
			vals:   []float64{0, 0},
			trials: 3,
			hits:   3,
		},
		{
			name:   "on circle is not a hit",
			vals:   []float64{1, 0, 0, 1},
			trials: 2,
			hits:   0,
		},
		{
			name:   "alternating",
			vals:   []float64{0.5, 0.5, 0.9, 0.9},
			trials: 4,
			hits:   2,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			hits, err := montecarlo.CountHits(context.Background(), &sequence{vals: test.vals}, test.trials)
			require.NoError(t, err)
			require.Equal(t, test.hits, hits)
		})
	}
}

func TestCountHitsInvalid(t *testing.T) {
	for _, trials := range []int{0, -1, -1000} {
		_, err := montecarlo.CountHits(context.Background(), montecarlo.NewSource(1, 0), trials)
		require.ErrorIs(t, err, montecarlo.ErrInvalidArgument)
	}
}

func TestCountHitsBounds(t *testing.T) {
	const trials = 10_000

	for seed := range uint64(5) {
		hits, err := montecarlo.CountHits(context.Background(), montecarlo.NewSource(seed, 0), trials)
		require.NoError(t, err)
		require.GreaterOrEqual(t, hits, 0)
		require.LessOrEqual(t, hits, trials)
	}
}

func TestCountHitsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := montecarlo.CountHits(ctx, montecarlo.NewSource(1, 0), 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSourceReproducible(t *testing.T) {
	a := montecarlo.NewSource(42, 3)
	b := montecarlo.NewSource(42, 3)
	c := montecarlo.NewSource(42, 4)

	var differ bool
	for range 100 {
		va, vb, vc := a.Float64(), b.Float64(), c.Float64()
		require.InDelta(t, va, vb, 0)
		require.GreaterOrEqual(t, va, 0.0)
		require.Less(t, va, 1.0)
		if va != vc {
			differ = true
		}
	}

	require.True(t, differ, "streams must differ")
}
