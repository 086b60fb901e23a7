// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package montecarlo

import (
	"context"
	"math"

	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/app/z"
)

// ctxCheckInterval is the number of trials between context polls.
const ctxCheckInterval = 1 << 16

// ErrInvalidArgument is returned for non-positive trial or worker counts.
var ErrInvalidArgument = errors.NewSentinel("invalid argument")

// Source is a source of uniformly distributed random values in [0,1).
type Source interface {
	Float64() float64
}

// CountHits draws trials random points from the unit square and returns
// the number of points with a distance from the origin strictly less than 1.
// The context is polled periodically, a cancelled context aborts the count.
func CountHits(ctx context.Context, src Source, trials int) (int, error) {
	if trials <= 0 {
		return 0, errors.Wrap(ErrInvalidArgument, "non-positive trial count", z.Int("trials", trials))
	}

	var hits int
	for i := range trials {
		if i%ctxCheckInterval == 0 && ctx.Err() != nil {
			return 0, errors.Wrap(ctx.Err(), "count hits interrupted", z.Int("completed", i))
		}

		x, y := src.Float64(), src.Float64()
		if math.Sqrt(x*x+y*y) < 1 {
			hits++
		}
	}

	return hits, nil
}
