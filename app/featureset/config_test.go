// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package featureset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obolnetwork/picarlo/app/featureset"
)

// setup initialises global variable per test.
func setup(t *testing.T) {
	t.Helper()

	err := featureset.Init(context.Background(), featureset.DefaultConfig())
	require.NoError(t, err)
}

func TestConfig(t *testing.T) {
	setup(t)

	require.False(t, featureset.Enabled(featureset.MockAlpha))
	require.False(t, featureset.Enabled(featureset.RedistributeRemainder))

	err := featureset.Init(context.Background(), featureset.Config{
		MinStatus: "alpha",
		Enabled:   []string{"ignored"},
	})
	require.NoError(t, err)

	require.True(t, featureset.Enabled(featureset.MockAlpha))
	require.True(t, featureset.Enabled(featureset.BenchWarmup))

	err = featureset.Init(context.Background(), featureset.Config{MinStatus: "gamma"})
	require.ErrorContains(t, err, "unknown min status")

	setup(t)
}

func TestEnableDisable(t *testing.T) {
	setup(t)

	err := featureset.Init(context.Background(), featureset.Config{
		MinStatus: "stable",
		Enabled:   []string{"REDISTRIBUTE_REMAINDER"},
	})
	require.NoError(t, err)
	require.True(t, featureset.Enabled(featureset.RedistributeRemainder))

	err = featureset.Init(context.Background(), featureset.Config{
		MinStatus: "alpha",
		Disabled:  []string{string(featureset.RedistributeRemainder)},
	})
	require.NoError(t, err)
	require.False(t, featureset.Enabled(featureset.RedistributeRemainder))
	require.True(t, featureset.Enabled(featureset.MockAlpha))

	// Reset the explicit overrides.
	featureset.DisableForT(t, featureset.MockAlpha)
	require.False(t, featureset.Enabled(featureset.MockAlpha))
}

func TestEnableForT(t *testing.T) {
	setup(t)

	testFeature := featureset.Feature("test")
	require.False(t, featureset.Enabled(testFeature))

	featureset.EnableForT(t, testFeature)
	require.True(t, featureset.Enabled(testFeature))

	featureset.DisableForT(t, testFeature)
	require.False(t, featureset.Enabled(testFeature))
}
