// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package topology serves dependency-impact analysis over a scanned
// microservice topology: error-propagation cascades, what-if blast
// radii, risk hotspots, and the graph export behind the visualization.
package topology

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/AppLensAI/AppLens/services/topology/graph"
	"github.com/AppLensAI/AppLens/services/topology/impact"
	"github.com/AppLensAI/AppLens/services/topology/observability"
	"github.com/AppLensAI/AppLens/services/topology/resolve"
)

// snapshot binds a frozen graph to the collaborators built from it.
// The three are swapped together so a resolver never answers against a
// graph it was not built from.
type snapshot struct {
	g        *graph.Graph
	analyzer *impact.Analyzer
	resolver resolve.Resolver
}

// ResolverFactory builds a text resolver for a freshly loaded snapshot.
type ResolverFactory func(g *graph.Graph) resolve.Resolver

// Service owns the current topology snapshot and answers all analysis
// queries against it.
//
// Thread Safety:
//
//	Safe for concurrent use. Readers take an atomic snapshot pointer
//	and run entirely against immutable state; Reload builds the next
//	snapshot aside and swaps it in one store. In-flight queries finish
//	on the snapshot they started with.
type Service struct {
	path            string
	current         atomic.Pointer[snapshot]
	resolverFactory ResolverFactory
	analyzerOpts    []impact.Option
	metrics         *observability.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithResolverFactory overrides how the text resolver is rebuilt on
// each reload. The default is the lexical index resolver.
func WithResolverFactory(f ResolverFactory) ServiceOption {
	return func(s *Service) { s.resolverFactory = f }
}

// WithAnalyzerOptions passes hotspot tuning through to the analyzer
// built on each reload.
func WithAnalyzerOptions(opts ...impact.Option) ServiceOption {
	return func(s *Service) { s.analyzerOpts = opts }
}

// WithMetrics wires Prometheus metrics. Without it the service runs
// unmetered.
func WithMetrics(m *observability.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a topology service reading from the given file.
// No snapshot is loaded yet; call Reload before serving queries.
func NewService(topologyPath string, opts ...ServiceOption) *Service {
	s := &Service{
		path: topologyPath,
		resolverFactory: func(g *graph.Graph) resolve.Resolver {
			return resolve.NewIndexResolver(g)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reload loads the topology file, builds a fresh snapshot, and swaps it
// in atomically. On failure the previous snapshot stays live.
func (s *Service) Reload(ctx context.Context) (*graph.Graph, error) {
	start := time.Now()

	g, err := LoadTopology(s.path)
	if err != nil {
		slog.Error("Topology reload failed, keeping previous snapshot",
			"path", s.path, "error", err)
		if s.metrics != nil {
			s.metrics.RecordReload(false, 0, 0)
		}
		return nil, err
	}

	next := &snapshot{
		g:        g,
		analyzer: impact.NewAnalyzer(g, s.analyzerOpts...),
		resolver: s.resolverFactory(g),
	}
	s.current.Store(next)

	if s.metrics != nil {
		s.metrics.RecordReload(true, g.NodeCount(), g.EdgeCount())
	}
	slog.Info("Topology snapshot swapped",
		"path", s.path,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration_ms", time.Since(start).Milliseconds())
	return g, nil
}

// Snapshot returns the live graph, or ErrSnapshotNotLoaded before the
// first successful Reload.
func (s *Service) Snapshot() (*graph.Graph, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrSnapshotNotLoaded
	}
	return snap.g, nil
}

// AnalyzeError resolves the request to an origin service and returns
// its full downstream cascade.
//
// Description:
//
//	An explicit origin_node_id is used as-is; otherwise the log text is
//	handed to the snapshot's resolver. A resolver miss returns
//	ErrOriginUnresolved. An explicit id that is simply absent from the
//	topology is NOT an error: the result reports origin_found=false and
//	the caller renders it as "no impact data".
func (s *Service) AnalyzeError(ctx context.Context, req *ErrorAnalysisRequest) (*impact.ErrorAnalysisResult, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrSnapshotNotLoaded
	}

	origin := req.OriginNodeID
	if origin == "" {
		if req.LogText == "" {
			return nil, ErrNoOrigin
		}
		resolved, err := snap.resolver.Resolve(ctx, req.LogText)
		if err != nil {
			return nil, ErrOriginUnresolved
		}
		origin = resolved
	}

	imp, err := snap.analyzer.AnalyzeError(ctx, origin)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordAnalysis("error", imp.OriginFound, len(imp.AffectedNodes))
	}
	return impact.AssembleError(imp), nil
}

// AnalyzeWhatIf returns the merged blast radius of the proposed change set.
func (s *Service) AnalyzeWhatIf(ctx context.Context, req *WhatIfRequest) (*impact.WhatIfAnalysisResult, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrSnapshotNotLoaded
	}

	imp, err := snap.analyzer.AnalyzeWhatIf(ctx, req.ChangedNodeIDs)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordAnalysis("whatif", len(imp.KnownIDs) > 0, len(imp.BlastRadiusNodes))
	}
	return impact.AssembleWhatIf(imp), nil
}

// Export returns the visualization-ready graph, optionally filtered to
// the given repos or groups.
func (s *Service) Export(repos ...string) (*graph.ExportedGraph, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrSnapshotNotLoaded
	}
	return snap.g.Export(repos...), nil
}
