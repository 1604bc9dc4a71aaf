// Package metrics exposes Prometheus instrumentation for the data pipeline
// and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal counts datasource refresh attempts by outcome
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "xr",
		Name:      "updates_total",
		Help:      "Datasource refresh attempts by outcome.",
	}, []string{"outcome"})

	// UpdateDuration observes how long a full refresh takes
	UpdateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "xr",
		Name:      "update_duration_seconds",
		Help:      "Duration of a full datasource refresh.",
		Buckets:   prometheus.DefBuckets,
	})

	// PredictionsBuilt tracks the size of the last prediction build
	PredictionsBuilt = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "xr",
		Name:      "predictions_built",
		Help:      "Predictions produced by the most recent build.",
	})

	// MatchesLoaded tracks the fixture count currently held in memory
	MatchesLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "xr",
		Name:      "matches_loaded",
		Help:      "Fixtures currently loaded for the season.",
	})

	// HTTPRequests counts API requests by route and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "xr",
		Name:      "http_requests_total",
		Help:      "API requests by route and status.",
	}, []string{"route", "status"})

	// HTTPDuration observes API latency by route
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "xr",
		Name:      "http_request_duration_seconds",
		Help:      "API request latency by route.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"route"})
)
