// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

// Command picarlo estimates π by Monte Carlo sampling and benchmarks parallel speedup.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/obolnetwork/picarlo/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cmd.New().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
