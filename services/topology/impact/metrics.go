// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package impact

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for impact analysis operations.
var (
	tracer = otel.Tracer("applens.impact")
	meter  = otel.Meter("applens.impact")
)

// Metrics for impact analysis operations.
var (
	analysisLatency metric.Float64Histogram
	analysisTotal   metric.Int64Counter
	blastRadiusSize metric.Int64Histogram
	hotspotCount    metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analysisLatency, err = meter.Float64Histogram(
			"impact_analysis_duration_seconds",
			metric.WithDescription("Duration of impact analysis operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		analysisTotal, err = meter.Int64Counter(
			"impact_analysis_total",
			metric.WithDescription("Total number of impact analyses"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		blastRadiusSize, err = meter.Int64Histogram(
			"impact_blast_radius_size",
			metric.WithDescription("Number of nodes in computed blast radii"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		hotspotCount, err = meter.Int64Histogram(
			"impact_risk_hotspots",
			metric.WithDescription("Number of risk hotspots flagged per analysis"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startAnalysisSpan creates a span for an impact analysis operation.
func startAnalysisSpan(ctx context.Context, operation string, origins []string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Analyzer."+operation,
		trace.WithAttributes(
			attribute.String("impact.operation", operation),
			attribute.StringSlice("impact.origins", origins),
		),
	)
}

// setAnalysisSpanResult sets the result attributes on an analysis span.
func setAnalysisSpanResult(span trace.Span, originFound bool, affected, hotspots int) {
	span.SetAttributes(
		attribute.Bool("impact.origin_found", originFound),
		attribute.Int("impact.affected_nodes", affected),
		attribute.Int("impact.risk_hotspots", hotspots),
	)
}

// recordAnalysisMetrics records metrics for an impact analysis.
func recordAnalysisMetrics(ctx context.Context, operation string, duration time.Duration, originFound bool, affected, hotspots int) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("origin_found", originFound),
	)

	analysisLatency.Record(ctx, duration.Seconds(), attrs)
	analysisTotal.Add(ctx, 1, attrs)
	blastRadiusSize.Record(ctx, int64(affected))
	hotspotCount.Record(ctx, int64(hotspots))
}
