// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package bench

import (
	"strconv"
	"strings"

	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/app/z"
)

const labelSerial = "serial"

// Config identifies a single benchmarked configuration.
type Config struct {
	Label string
	// Workers is the number of parallel workers, zero selects the serial driver.
	Workers int
}

// Serial returns true if the config selects the serial driver.
func (c Config) Serial() bool {
	return c.Workers == 0
}

// SerialConfig returns the serial driver config.
func SerialConfig() Config {
	return Config{Label: labelSerial}
}

// ParallelConfig returns the config for the parallel driver with the given number of workers.
func ParallelConfig(workers int) Config {
	return Config{Label: "parallel-" + strconv.Itoa(workers), Workers: workers}
}

// DefaultConfigs returns the serial driver followed by 2, 4 and 8 parallel workers.
func DefaultConfigs() []Config {
	return []Config{
		SerialConfig(),
		ParallelConfig(2),
		ParallelConfig(4),
		ParallelConfig(8),
	}
}

// ParseConfigs parses a list of "serial" or positive worker counts into configs.
func ParseConfigs(values []string) ([]Config, error) {
	if len(values) == 0 {
		return nil, errors.New("no benchmark configs")
	}

	resp := make([]Config, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == labelSerial {
			resp = append(resp, SerialConfig())
			continue
		}

		workers, err := strconv.Atoi(value)
		if err != nil {
			return nil, errors.Wrap(err, "parse benchmark config", z.Str("config", value))
		} else if workers <= 0 {
			return nil, errors.New("non-positive benchmark worker count", z.Str("config", value))
		}

		resp = append(resp, ParallelConfig(workers))
	}

	return resp, nil
}
