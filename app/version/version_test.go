// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package version_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obolnetwork/picarlo/app/version"
)

func TestVersion(t *testing.T) {
	require.True(t, strings.HasPrefix(version.Version(), "v"))
}

func TestGitCommit(t *testing.T) {
	hash, timestamp := version.GitCommit()
	require.NotEmpty(t, hash)
	require.NotEmpty(t, timestamp)
}
