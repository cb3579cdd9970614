// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Capture session results.
const (
	CaptureResultSaved       = "saved"
	CaptureResultUnsaved     = "unsaved"
	CaptureResultStartFailed = "start_failed"
	CaptureResultStopFailed  = "stop_failed"
)

var (
	captureSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memorec_capture_sessions_total",
		Help: "Total capture sessions by outcome",
	}, []string{"result"})

	captureActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "memorec_capture_active",
		Help: "1 while a capture session is running",
	})

	captureDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "memorec_capture_duration_seconds",
		Help:    "Length of finished capture sessions",
		Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
	})
)

// IncCaptureSession records a finished or failed session.
// result ∈ {saved,unsaved,start_failed,stop_failed,unknown}
func IncCaptureSession(result string) {
	captureSessionsTotal.WithLabelValues(normalizeCaptureResult(result)).Inc()
}

// SetCaptureActive flips the active gauge.
func SetCaptureActive(active bool) {
	if active {
		captureActive.Set(1)
		return
	}
	captureActive.Set(0)
}

// ObserveCaptureDuration records the length of a stopped session.
func ObserveCaptureDuration(d time.Duration) {
	captureDuration.Observe(d.Seconds())
}

func normalizeCaptureResult(result string) string {
	switch r := strings.ToLower(strings.TrimSpace(result)); r {
	case CaptureResultSaved, CaptureResultUnsaved, CaptureResultStartFailed, CaptureResultStopFailed:
		return r
	default:
		return "unknown"
	}
}
