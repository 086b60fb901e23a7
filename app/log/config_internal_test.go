// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package log

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatZapStack(t *testing.T) {
	tests := []struct {
		Input  string
		Output string
	}{
		{
			Input: `github.com/obolnetwork/picarlo/montecarlo.Parallel
	/home/dev/picarlo/montecarlo/estimator.go:91
testing.tRunner
	/usr/local/go/src/testing/testing.go:1259`,
			Output: "	montecarlo/estimator.go:91 .Parallel",
		},
		{
			Input:  "",
			Output: "",
		},
	}

	for i, test := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			actual := formatZapStack(test.Input)
			require.Equal(t, test.Output, actual)
		})
	}
}
