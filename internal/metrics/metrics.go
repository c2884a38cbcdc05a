// CatFeeder - Remote Control Service for an Embedded Pet Feeder
// Copyright 2026 Jon Kimbel (JonKimbel)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/JonKimbel/CatFeeder

// Package metrics provides Prometheus instrumentation for the control
// service: device check-in activity, feeding bookkeeping, preference
// persistence, and API request metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Device check-in metrics
	CheckInsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catfeeder_checkins_total",
			Help: "Total number of device check-in polls",
		},
	)

	CheckInProtocolErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catfeeder_checkin_protocol_errors_total",
			Help: "Total number of undecodable device check-in payloads",
		},
	)

	DeviceLastCheckIn = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catfeeder_device_last_checkin_timestamp",
			Help: "Unix timestamp of the most recent device check-in",
		},
	)

	DeviceOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catfeeder_device_online",
			Help: "Whether the device has checked in within its deadline (1=online, 0=offline)",
		},
	)

	// Feeding metrics
	FeedingsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catfeeder_feedings_recorded_total",
			Help: "Total number of completed feedings reported by the device",
		},
	)

	ScoopsInstructed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catfeeder_scoops_instructed_total",
			Help: "Total number of scoops the service has instructed the device to dispense",
		},
	)

	FeedASAPRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catfeeder_feed_asap_requests_total",
			Help: "Total number of user-initiated feed-ASAP overrides",
		},
	)

	// Outage watchdog metrics
	OutageAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catfeeder_outage_alerts_total",
			Help: "Total number of missed-check-in alerts raised by the watchdog",
		},
	)

	// Preference persistence metrics
	PrefWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catfeeder_preference_writes_total",
			Help: "Total number of preference persistence attempts",
		},
	)

	PrefWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catfeeder_preference_write_errors_total",
			Help: "Total number of failed preference persistence attempts",
		},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catfeeder_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catfeeder_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catfeeder_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCheckIn records one device poll and refreshes the last-check-in gauge.
func RecordCheckIn(at time.Time) {
	CheckInsTotal.Inc()
	DeviceLastCheckIn.Set(float64(at.Unix()))
}

// RecordPrefWrite records a preference persistence attempt.
func RecordPrefWrite(err error) {
	PrefWrites.Inc()
	if err != nil {
		PrefWriteErrors.Inc()
	}
}

// SetDeviceOnline updates the device-online gauge.
func SetDeviceOnline(online bool) {
	if online {
		DeviceOnline.Set(1)
	} else {
		DeviceOnline.Set(0)
	}
}
