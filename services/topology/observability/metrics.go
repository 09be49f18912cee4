// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the topology service.
//
// # Description
//
// Metrics cover the two analysis operations, blast radius sizing, and the
// snapshot lifecycle (size gauges plus reload outcomes). Exposed via the
// /metrics endpoint for Prometheus + Grafana.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "applens"

const topologySubsystem = "topology"

// Metrics holds all Prometheus metrics for the topology service.
//
// Initialize once at startup via NewMetrics; registering twice on the
// same registry panics.
type Metrics struct {
	// AnalysesTotal counts analysis requests by operation and outcome.
	// Labels: operation (error, whatif), outcome (hit, miss)
	AnalysesTotal *prometheus.CounterVec

	// BlastRadiusSize measures affected-set size per analysis.
	// Labels: operation (error, whatif)
	BlastRadiusSize *prometheus.HistogramVec

	// SnapshotNodes gauges the node count of the live snapshot.
	SnapshotNodes prometheus.Gauge

	// SnapshotEdges gauges the edge count of the live snapshot.
	SnapshotEdges prometheus.Gauge

	// ReloadsTotal counts topology reloads by outcome.
	// Labels: outcome (success, failure)
	ReloadsTotal *prometheus.CounterVec

	// LastReloadUnix records the wall time of the last successful reload.
	LastReloadUnix prometheus.Gauge
}

// NewMetrics creates and registers all topology metrics on the given
// registerer. Pass prometheus.DefaultRegisterer for the usual setup.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AnalysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: topologySubsystem,
				Name:      "analyses_total",
				Help:      "Total analysis requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		BlastRadiusSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: topologySubsystem,
				Name:      "blast_radius_size",
				Help:      "Number of affected services per analysis",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
			[]string{"operation"},
		),

		SnapshotNodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: topologySubsystem,
				Name:      "snapshot_nodes",
				Help:      "Node count of the live topology snapshot",
			},
		),

		SnapshotEdges: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: topologySubsystem,
				Name:      "snapshot_edges",
				Help:      "Edge count of the live topology snapshot",
			},
		),

		ReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: topologySubsystem,
				Name:      "reloads_total",
				Help:      "Topology reloads by outcome",
			},
			[]string{"outcome"},
		),

		LastReloadUnix: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: topologySubsystem,
				Name:      "last_reload_timestamp_seconds",
				Help:      "Unix time of the last successful reload",
			},
		),
	}
}

// RecordAnalysis records one analysis request. found is false when the
// origin (or every changed id) was absent from the snapshot.
func (m *Metrics) RecordAnalysis(operation string, found bool, affected int) {
	outcome := "hit"
	if !found {
		outcome = "miss"
	}
	m.AnalysesTotal.WithLabelValues(operation, outcome).Inc()
	m.BlastRadiusSize.WithLabelValues(operation).Observe(float64(affected))
}

// RecordReload records one reload attempt and, on success, refreshes
// the snapshot gauges.
func (m *Metrics) RecordReload(success bool, nodes, edges int) {
	if !success {
		m.ReloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.ReloadsTotal.WithLabelValues("success").Inc()
	m.SnapshotNodes.Set(float64(nodes))
	m.SnapshotEdges.Set(float64(edges))
	m.LastReloadUnix.Set(float64(time.Now().Unix()))
}
