// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics holds the Prometheus collectors for memorec.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/memorec/internal/recordings"
)

var (
	registryOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memorec_registry_operations_total",
		Help: "Total registry mutations by operation and result",
	}, []string{"op", "result"})

	recordingsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "memorec_recordings",
		Help: "Number of recordings currently in the registry",
	})

	registryDirty = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "memorec_registry_dirty",
		Help: "1 when the in-memory registry has changes that are not yet persisted",
	})
)

// RegistryObserver feeds registry events into the collectors above.
type RegistryObserver struct {
	// Dirty, when set, is sampled after every operation.
	Dirty func() bool
}

// ObserveOperation counts one completed registry operation.
func (o RegistryObserver) ObserveOperation(op string, err error) {
	registryOperationsTotal.WithLabelValues(normalizeOpLabel(op), recordings.ErrorClass(err)).Inc()
	if o.Dirty != nil {
		if o.Dirty() {
			registryDirty.Set(1)
		} else {
			registryDirty.Set(0)
		}
	}
}

// ObserveSize records the current number of entries.
func (RegistryObserver) ObserveSize(n int) {
	recordingsTotal.Set(float64(n))
}

// op ∈ {load,add,remove,sync,unknown}
func normalizeOpLabel(op string) string {
	switch o := strings.ToLower(strings.TrimSpace(op)); o {
	case recordings.OpLoad, recordings.OpAdd, recordings.OpRemove, recordings.OpSync:
		return o
	default:
		return "unknown"
	}
}
