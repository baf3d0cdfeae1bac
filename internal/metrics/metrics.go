// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics defines the portal's prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registration outcomes.
const (
	OutcomeRegistered   = "registered"
	OutcomeFull         = "full"
	OutcomeDuplicate    = "duplicate"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
	OutcomeUnregistered = "unregistered"
)

var (
	// API metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Domain metrics
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_event_registrations_total",
			Help: "Event registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_notifications_created_total",
			Help: "Notifications created by type",
		},
		[]string{"type"},
	)

	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_uploads_total",
			Help: "File uploads by result",
		},
		[]string{"result"},
	)

	// Realtime metrics
	RealtimeClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_realtime_clients",
			Help: "Currently connected websocket clients",
		},
	)

	RealtimeRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_realtime_rejected_total",
			Help: "Websocket connections rejected because the registry was full",
		},
	)

	// Housekeeping metrics
	PrunedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_pruned_rows_total",
			Help: "Rows removed by housekeeping jobs",
		},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(RegistrationsTotal)
	prometheus.MustRegister(NotificationsCreated)
	prometheus.MustRegister(UploadsTotal)
	prometheus.MustRegister(RealtimeClients)
	prometheus.MustRegister(RealtimeRejected)
	prometheus.MustRegister(PrunedRows)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation for a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDurationVec records the elapsed seconds under the given labels.
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}
