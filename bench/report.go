// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package bench

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/obolnetwork/picarlo/app/errors"
)

const barWidth = 40

// Report is the machine readable form of Results.
type Report struct {
	Trials        int
	Seed          string // Formatted since TOML integers are signed.
	Baseline      string
	ExecutionTime Duration
	Configs       []ConfigReport
}

// ConfigReport is the machine readable form of a Record.
type ConfigReport struct {
	Label    string
	Workers  int
	OK       bool
	Elapsed  Duration
	Speedup  float64
	Estimate float64
	AbsError float64
	Sampled  int
	Dropped  int
	Error    string `toml:",omitempty"`
}

// NewReport returns the report of the results.
func NewReport(res Results) Report {
	report := Report{
		Trials: res.Trials,
		Seed:   strconv.FormatUint(res.Seed, 10),
	}

	if baseline, ok := res.Baseline(); ok {
		report.Baseline = baseline.Label
	}

	var total Duration
	for i, rec := range res.Records {
		total.Duration += rec.Elapsed

		conf := ConfigReport{
			Label:   rec.Label,
			Workers: rec.Workers,
			OK:      rec.OK(),
			Elapsed: RoundDuration(Duration{rec.Elapsed}),
		}

		if rec.OK() {
			conf.Speedup, _ = res.Speedup(i)
			conf.Speedup = math.Round(conf.Speedup*100) / 100
			conf.Estimate = rec.Estimate.Value
			conf.AbsError = rec.Estimate.Error()
			conf.Sampled = rec.Estimate.Sampled
			conf.Dropped = rec.Estimate.Dropped
		} else {
			conf.Error = rec.Err.Error()
		}

		report.Configs = append(report.Configs, conf)
	}

	report.ExecutionTime = RoundDuration(total)

	return report
}

// WriteTOML writes the results report in TOML format to the file at path.
func WriteTOML(path string, res Results) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "create/open file")
	}
	defer f.Close()

	err = toml.NewEncoder(f).Encode(NewReport(res))
	if err != nil {
		return errors.Wrap(err, "encode report to TOML")
	}

	return nil
}

// WriteText writes the results as a horizontal bar chart of elapsed time per configuration.
func WriteText(w io.Writer, res Results) error {
	var longest int
	for _, rec := range res.Records {
		if rec.OK() && rec.Elapsed > 0 && int(rec.Elapsed) > longest {
			longest = int(rec.Elapsed)
		}
	}

	lines := []string{
		"",
		fmt.Sprintf("Monte Carlo π benchmark: %d trials, seed %d", res.Trials, res.Seed),
		"",
		fmt.Sprintf("%-14s%-*s %12s %9s %10s", "CONFIG", barWidth, "ELAPSED", "TIME", "SPEEDUP", "ESTIMATE"),
	}

	var total Duration
	for i, rec := range res.Records {
		total.Duration += rec.Elapsed

		if !rec.OK() {
			lines = append(lines, fmt.Sprintf("%-14s%-*s FAILED - %v", rec.Label, barWidth, "", rec.Err))
			continue
		}

		speedup, _ := res.Speedup(i)
		lines = append(lines, fmt.Sprintf("%-14s%-*s %12s %8.2fx %10.6f",
			rec.Label,
			barWidth, bar(int(rec.Elapsed), longest),
			RoundDuration(Duration{rec.Elapsed}),
			speedup,
			rec.Estimate.Value,
		))
	}

	if baseline, ok := res.Baseline(); ok {
		lines = append(lines, "", "Speedup relative to "+baseline.Label)
	}

	for _, rec := range res.Records {
		if rec.OK() && rec.Estimate.Dropped > 0 {
			lines = append(lines, fmt.Sprintf("%s dropped %d trials not divisible over %d workers",
				rec.Label, rec.Estimate.Dropped, rec.Workers))
		}
	}

	lines = append(lines, "", RoundDuration(total).String(), "")

	for _, l := range lines {
		_, err := w.Write([]byte(l + "\n"))
		if err != nil {
			return errors.Wrap(err, "write report")
		}
	}

	return nil
}

// bar returns a bar of length proportional to value/longest.
func bar(value, longest int) string {
	if longest <= 0 || value <= 0 {
		return ""
	}

	n := int(math.Round(float64(value) / float64(longest) * barWidth))
	if n == 0 {
		n = 1
	}

	return strings.Repeat("#", n)
}
