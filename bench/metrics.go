// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package bench

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/obolnetwork/picarlo/app/promauto"
)

var (
	durationHist = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bench",
		Name:      "config_duration_seconds",
		Help:      "Elapsed time of successful benchmark configurations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"config"})

	failureCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bench",
		Name:      "config_failures_total",
		Help:      "Total number of failed benchmark configurations",
	}, []string{"config"})
)
