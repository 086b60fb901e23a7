// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package lifecycle

// OrderStart defines the order hooks are started.
type OrderStart int

// OrderStop defines the order hooks are stopped.
type OrderStop int

// Global ordering of start hooks.
const (
	StartMonitoringAPI OrderStart = iota
	StartHTTPAPI
)

// Global ordering of stop hooks; follows dependency tree from root to leaves.
const (
	StopHTTPAPI OrderStop = iota // Stop accepting estimations first.
	StopTracing
	StopMonitoringAPI // Keep metrics available until the end.
)

var (
	startLabels = []string{"MonitoringAPI", "HTTPAPI"}
	stopLabels  = []string{"HTTPAPI", "Tracing", "MonitoringAPI"}
)

func (i OrderStart) String() string {
	if i < 0 || int(i) >= len(startLabels) {
		return "OrderStart(unknown)"
	}

	return startLabels[i]
}

func (i OrderStop) String() string {
	if i < 0 || int(i) >= len(stopLabels) {
		return "OrderStop(unknown)"
	}

	return stopLabels[i]
}
