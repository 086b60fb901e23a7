// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package bench_test

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"

	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/bench"
	"github.com/obolnetwork/picarlo/montecarlo"
	"github.com/obolnetwork/picarlo/testutil"
)

func testResults() bench.Results {
	return bench.Results{
		Trials: 1003,
		Seed:   math.MaxUint64,
		Records: []bench.Record{
			{
				Config:   bench.SerialConfig(),
				Elapsed:  8 * time.Second,
				Estimate: montecarlo.Estimate{Sampled: 1003, Value: 3.14},
			},
			{
				Config:   bench.ParallelConfig(2),
				Elapsed:  2 * time.Second,
				Estimate: montecarlo.Estimate{Sampled: 1002, Dropped: 1, Value: 3.15},
			},
			{
				Config: bench.ParallelConfig(4),
				Err:    errors.New("boom"),
			},
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bench.WriteText(&buf, testResults()))

	out := buf.String()
	require.Contains(t, out, "1003 trials, seed 18446744073709551615")
	require.Contains(t, out, "serial        ########################################           8s     1.00x   3.140000")
	require.Contains(t, out, "parallel-2    ##########                                         2s     4.00x   3.150000")
	require.Contains(t, out, "FAILED - boom")
	require.Contains(t, out, "Speedup relative to serial")
	require.Contains(t, out, "parallel-2 dropped 1 trials not divisible over 2 workers")
	require.Contains(t, out, "\n10s\n")
}

func TestWriteTextGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bench.WriteText(&buf, testResults()))

	testutil.RequireGoldenBytes(t, buf.Bytes())
}

func TestWriteTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.toml")
	require.NoError(t, bench.WriteTOML(path, testResults()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var report bench.Report
	require.NoError(t, toml.Unmarshal(b, &report))

	require.Equal(t, 1003, report.Trials)
	require.Equal(t, "18446744073709551615", report.Seed)
	require.Equal(t, "serial", report.Baseline)
	require.Equal(t, 10*time.Second, report.ExecutionTime.Duration)
	require.Len(t, report.Configs, 3)

	require.True(t, report.Configs[1].OK)
	require.Equal(t, 2*time.Second, report.Configs[1].Elapsed.Duration)
	require.InDelta(t, 4.0, report.Configs[1].Speedup, 1e-9)
	require.Equal(t, 1, report.Configs[1].Dropped)

	require.False(t, report.Configs[2].OK)
	require.Equal(t, "boom", report.Configs[2].Error)
}

func TestRoundDuration(t *testing.T) {
	tests := []struct {
		in  time.Duration
		out time.Duration
	}{
		{in: 1234567891 * time.Nanosecond, out: 1230 * time.Millisecond},
		{in: 12345678 * time.Nanosecond, out: 12 * time.Millisecond},
		{in: 12345 * time.Nanosecond, out: 12 * time.Microsecond},
		{in: 999 * time.Nanosecond, out: 999 * time.Nanosecond},
	}

	for _, test := range tests {
		require.Equal(t, test.out, bench.RoundDuration(bench.Duration{test.in}).Duration)
	}
}

func TestDurationText(t *testing.T) {
	var d bench.Duration
	require.NoError(t, d.UnmarshalText([]byte("1500ms")))
	require.Equal(t, 1500*time.Millisecond, d.Duration)

	require.NoError(t, d.UnmarshalText([]byte("1000")))
	require.Equal(t, time.Microsecond, d.Duration)

	require.Error(t, d.UnmarshalText([]byte("soon")))

	b, err := bench.Duration{time.Minute}.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "1m0s", string(b))

	b, err = bench.Duration{time.Millisecond}.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"1ms"`, string(b))

	require.NoError(t, d.UnmarshalJSON([]byte(`"2s"`)))
	require.Equal(t, 2*time.Second, d.Duration)
}
