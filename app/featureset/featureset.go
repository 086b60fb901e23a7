// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Package featureset defines a set of global features and their rollout status.
package featureset

import (
	"maps"
	"sync"
)

// status enumerates the rollout status of a feature.
type status int

const (
	// statusAlpha is for experimental features.
	statusAlpha status = iota + 1
	// statusBeta is for features that are feature complete but not yet the default.
	statusBeta
	// statusStable is for stable features enabled by default.
	statusStable
	// statusSentinel is an internal tail-end placeholder.
	statusSentinel // Must always be last
)

func (s status) String() string {
	switch s {
	case statusAlpha:
		return "alpha"
	case statusBeta:
		return "beta"
	case statusStable:
		return "stable"
	default:
		return "unknown"
	}
}

// Feature is a feature being rolled out.
type Feature string

const (
	// MockAlpha is a mock feature in alpha status for testing.
	MockAlpha Feature = "mock_alpha"

	// RedistributeRemainder spreads the trials that do not divide evenly over the
	// parallel workers instead of dropping them.
	RedistributeRemainder Feature = "redistribute_remainder"

	// BenchWarmup runs a short untimed serial estimation before the first benchmark configuration.
	BenchWarmup Feature = "bench_warmup"
)

var (
	// rollout defines the default rollout status of each feature.
	rollout = map[Feature]status{
		MockAlpha:             statusAlpha,
		RedistributeRemainder: statusAlpha,
		BenchWarmup:           statusBeta,
		// Add all features and their status here.
	}

	// state defines the current status of each feature, reset to rollout by Init.
	state = maps.Clone(rollout)

	// minStatus defines the minimum enabled status.
	minStatus = statusStable

	initMu sync.Mutex
)

// Enabled returns true if the feature is enabled.
func Enabled(feature Feature) bool {
	initMu.Lock()
	defer initMu.Unlock()

	return state[feature] >= minStatus
}
