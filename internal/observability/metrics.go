// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package observability exposes the Prometheus metrics of the board.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes used as label values.
const (
	OutcomeSuccess   = "success"
	OutcomeTransport = "transport_error"
	OutcomeDecode    = "decode_error"
	OutcomeStale     = "stale"
)

// Reasons for skipped task ticks used as label values.
const (
	SkipOffline  = "offline"
	SkipInFlight = "in_flight"
)

var (
	registry *prometheus.Registry

	// Remote fetches per resource and outcome. Watch for: transport errors while online.
	FetchTotal *prometheus.CounterVec

	// Remote fetch latency per resource.
	FetchDuration *prometheus.HistogramVec

	// Task ticks that did not run the action.
	TicksSkippedTotal *prometheus.CounterVec

	// 1 while the connectivity sensor reports online.
	Online prometheus.Gauge

	// Frames handed to the render surfaces.
	FramesRenderedTotal prometheus.Counter

	// HTTP requests served by the board server.
	HTTPRequestsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchTotal",
			Help: "Total number of remote fetches by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetchDurationSeconds",
			Help:    "Remote fetch latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"resource"},
	)
	TicksSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticksSkippedTotal",
			Help: "Total number of task ticks that did not run the task action",
		},
		[]string{"task", "reason"},
	)
	Online = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "online",
			Help: "Connectivity state as reported by the network sensor",
		},
	)
	FramesRenderedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "framesRenderedTotal",
			Help: "Total number of frames rendered",
		},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)

	registry.MustRegister(
		FetchTotal, FetchDuration,
		TicksSkippedTotal, Online,
		FramesRenderedTotal, HTTPRequestsTotal,
	)
}

// RecordFetch records the outcome and latency of one remote fetch.
func RecordFetch(resource, outcome string, took time.Duration) {
	FetchTotal.WithLabelValues(resource, outcome).Inc()
	if outcome != OutcomeStale {
		FetchDuration.WithLabelValues(resource).Observe(took.Seconds())
	}
}

// RecordSkippedTick records a task tick that did not run.
func RecordSkippedTick(task, reason string) {
	TicksSkippedTotal.WithLabelValues(task, reason).Inc()
}

// SetOnline sets the connectivity gauge.
func SetOnline(online bool) {
	if online {
		Online.Set(1)
		return
	}
	Online.Set(0)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
