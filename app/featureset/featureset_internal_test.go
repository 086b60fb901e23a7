// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package featureset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllFeatureStatus(t *testing.T) {
	features := []Feature{
		MockAlpha,
		RedistributeRemainder,
		BenchWarmup,
	}

	for _, feature := range features {
		status, ok := rollout[feature]
		require.True(t, ok, feature)
		require.Positive(t, int(status))
		require.Less(t, int(status), int(statusSentinel))
	}
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "alpha", statusAlpha.String())
	require.Equal(t, "stable", statusStable.String())
	require.Equal(t, "unknown", statusSentinel.String())
}
