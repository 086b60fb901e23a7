// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package montecarlo

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/obolnetwork/picarlo/app/promauto"
)

var (
	trialsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "montecarlo",
		Name:      "trials_total",
		Help:      "Total number of sampled trials",
	})

	hitsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "montecarlo",
		Name:      "hits_total",
		Help:      "Total number of sampled trials inside the unit circle",
	})

	droppedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "montecarlo",
		Name:      "dropped_trials_total",
		Help:      "Total number of requested trials not sampled since they did not divide evenly over workers",
	})

	estimateCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "montecarlo",
		Name:      "estimates_total",
		Help:      "Total number of completed estimations by mode",
	}, []string{"mode"})
)

func observeEstimate(est Estimate) {
	trialsCounter.Add(float64(est.Sampled))
	hitsCounter.Add(float64(est.Hits))
	droppedCounter.Add(float64(est.Dropped))
	estimateCounter.WithLabelValues(est.Mode).Inc()
}
