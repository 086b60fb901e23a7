// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package forkjoin_test

import (
	"context"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/app/forkjoin"
)

func TestForkJoin(t *testing.T) {
	ctx := context.Background()

	const n = 100

	testErr := errors.New("test error")

	tests := []struct {
		name        string
		work        forkjoin.Work[int, int]
		expectedErr error
		allOutput   bool
	}{
		{
			name:        "happy",
			expectedErr: nil,
			work:        func(_ context.Context, i int) (int, error) { return i, nil },
			allOutput:   true,
		},
		{
			name:        "first error fast fail",
			expectedErr: testErr,
			work: func(ctx context.Context, i int) (int, error) {
				if i == 0 {
					return 0, testErr
				}
				<-ctx.Done() // This will hang if not failing fast

				return 0, ctx.Err()
			},
		},
		{
			name:        "all context cancel",
			expectedErr: context.Canceled,
			work: func(_ context.Context, i int) (int, error) {
				if i < n/2 {
					return 0, context.Canceled
				}

				return 0, nil
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			fork, join, cancel := forkjoin.New[int, int](ctx, test.work)
			defer cancel()

			var allOutput []int

			for i := range n {
				fork(i)
				allOutput = append(allOutput, i)
			}

			resp, err := join().Flatten()
			require.Len(t, resp, n)

			if test.expectedErr != nil {
				require.Equal(t, test.expectedErr, err)
			} else {
				require.NoError(t, err)
			}

			if test.allOutput {
				sort.Ints(resp)
				require.Equal(t, allOutput, resp)
			}
		})
	}
}

func TestWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	const workers = 3

	var (
		active int32
		peak   int32
	)

	release := make(chan struct{})
	work := func(_ context.Context, i int) (int, error) {
		cur := atomic.AddInt32(&active, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		<-release
		atomic.AddInt32(&active, -1)

		return i, nil
	}

	results, cancel := forkjoin.NewWithInputs(context.Background(), work, []int{1, 2, 3, 4, 5, 6},
		forkjoin.WithWorkers(workers), forkjoin.WithWaitOnCancel())
	defer cancel()

	close(release)

	resp, err := results.Flatten()
	require.NoError(t, err)

	var sum int
	for _, r := range resp {
		sum += r
	}
	require.Equal(t, 21, sum)
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(workers))
}

func TestPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	fork, join, cancel := forkjoin.New[int, int](context.Background(), nil, forkjoin.WithWaitOnCancel())
	join()
	cancel()

	// Calling fork after join panics
	require.Panics(t, func() {
		fork(0)
	})

	// Calling join again panics
	require.Panics(t, func() {
		join()
	})
}

func TestLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	fork, join, cancel := forkjoin.New[int, int](
		context.Background(),
		func(_ context.Context, i int) (int, error) { return i, nil },
		forkjoin.WithWaitOnCancel(),
	)
	fork(1)
	fork(2)

	results := join()
	<-results // Read 1 or 2
	cancel()  // Fails if not called.
}
