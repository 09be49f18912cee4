// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package impact implements the two use-case façades over the topology
// graph: error propagation ("what is affected by a failing service") and
// what-if blast radius ("what breaks if these services change").
//
// Both analyses are pure, deterministic computations over a frozen graph
// snapshot. There is no fault path at query time: an unknown origin yields
// an empty result with an explicit not-found indicator, and an empty graph
// yields an empty result, so a caller can always render a graceful "no
// impact data" response instead of failing the whole chat turn.
package impact

import (
	"context"
	"sort"
	"time"

	"github.com/AppLensAI/AppLens/services/topology/graph"
)

// Analyzer runs impact queries against a single graph snapshot.
//
// Thread Safety:
//
//	Analyzer holds only the snapshot pointer and fixed options, so a
//	single instance is safe for concurrent use. All per-query state
//	(visited sets, queues) is request-local.
type Analyzer struct {
	g           *graph.Graph
	hotspotOpts []graph.HotspotOption
}

// Option is a functional option for configuring an Analyzer.
type Option func(*Analyzer)

// WithHotspotThreshold sets the minimum restricted fan-in for hotspots.
func WithHotspotThreshold(n int) Option {
	return func(a *Analyzer) {
		a.hotspotOpts = append(a.hotspotOpts, graph.WithHotspotThreshold(n))
	}
}

// WithHotspotTopK switches hotspot selection to the K top-scoring nodes.
func WithHotspotTopK(k int) Option {
	return func(a *Analyzer) {
		a.hotspotOpts = append(a.hotspotOpts, graph.WithHotspotTopK(k))
	}
}

// NewAnalyzer creates an analyzer bound to the given graph snapshot.
func NewAnalyzer(g *graph.Graph, opts ...Option) *Analyzer {
	a := &Analyzer{g: g}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ErrorImpact is the result of an error-propagation analysis.
type ErrorImpact struct {
	// Origin is the canonical origin id, echoed back even when unknown.
	Origin string

	// OriginFound is false when the origin id is not in the snapshot.
	// The remaining fields are empty in that case.
	OriginFound bool

	// AffectedNodes holds the downstream reachable ids, sorted ascending.
	AffectedNodes []string

	// AffectedEdges holds the propagation edges, sorted by
	// (source, target, kind).
	AffectedEdges []*graph.Edge

	// RiskHotspots holds the structurally exposed node ids inside the
	// affected set, in score order. May overlap AffectedNodes; presented
	// separately by the external contract.
	RiskHotspots []string
}

// WhatIfImpact is the result of a what-if blast radius analysis.
type WhatIfImpact struct {
	// ChangedIDs are the canonical requested ids, in request order,
	// deduplicated.
	ChangedIDs []string

	// KnownIDs are the changed ids that exist in the snapshot.
	KnownIDs []string

	// BlastRadiusNodes holds the merged downstream reachability from all
	// changed services, sorted ascending.
	BlastRadiusNodes []string

	// BlastRadiusEdges holds the propagation edges restricted to those
	// connecting a changed or blast-radius node to a blast-radius node.
	BlastRadiusEdges []*graph.Edge

	// RiskHotspots holds the structurally exposed node ids inside the
	// blast radius, in score order.
	RiskHotspots []string
}

// AnalyzeError maps a failing service to everything it can cascade into.
//
// Description:
//
//	Traverses DOWNSTREAM from the single origin with unbounded depth: an
//	error at a service can cascade through every caller-of-a-caller.
//	Risk hotspots are computed over the affected set. An origin id that
//	is not in the snapshot produces an empty result with
//	OriginFound=false rather than an error, leaving the caller to decide
//	whether the miss is worth reporting.
//
// Outputs are fully deterministic for a given snapshot: nodes and edges
// are sorted, and hotspot order is score-descending with id tie-break.
func (a *Analyzer) AnalyzeError(ctx context.Context, originID string) (*ErrorImpact, error) {
	start := time.Now()
	origin := graph.CanonicalID(originID)
	ctx, span := startAnalysisSpan(ctx, "AnalyzeError", []string{origin})
	defer span.End()

	result := &ErrorImpact{
		Origin:        origin,
		AffectedNodes: make([]string, 0),
		AffectedEdges: make([]*graph.Edge, 0),
		RiskHotspots:  make([]string, 0),
	}

	if !a.g.HasNode(origin) {
		setAnalysisSpanResult(span, false, 0, 0)
		recordAnalysisMetrics(ctx, "analyze_error", time.Since(start), false, 0, 0)
		return result, nil
	}
	result.OriginFound = true

	traversal, err := a.g.ReachableFrom(ctx, []string{origin}, graph.DirectionDownstream)
	if err != nil {
		return nil, err
	}

	result.AffectedNodes = sortedIDs(traversal.Nodes)
	result.AffectedEdges = sortedEdges(traversal.Edges)
	result.RiskHotspots = hotspotIDs(a.g.Hotspots(traversal.Nodes, a.hotspotOpts...))

	setAnalysisSpanResult(span, true, len(result.AffectedNodes), len(result.RiskHotspots))
	recordAnalysisMetrics(ctx, "analyze_error", time.Since(start), true,
		len(result.AffectedNodes), len(result.RiskHotspots))
	return result, nil
}

// AnalyzeWhatIf predicts the blast radius of changing a set of services.
//
// Description:
//
//	All changed services are traversed in a single multi-source BFS so
//	overlapping radii merge: a node reachable via two changed services
//	appears once, at its nearest discovery depth. Only the edges the
//	traversal actually crossed are returned, so the edge set traces how
//	a change propagates rather than every link between affected
//	services. Unknown changed ids are reported via
//	KnownIDs and otherwise ignored; an all-unknown set yields an empty
//	result, not an error.
func (a *Analyzer) AnalyzeWhatIf(ctx context.Context, changedIDs []string) (*WhatIfImpact, error) {
	start := time.Now()

	changed := make([]string, 0, len(changedIDs))
	seen := make(map[string]bool, len(changedIDs))
	for _, raw := range changedIDs {
		id := graph.CanonicalID(raw)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		changed = append(changed, id)
	}

	ctx, span := startAnalysisSpan(ctx, "AnalyzeWhatIf", changed)
	defer span.End()

	result := &WhatIfImpact{
		ChangedIDs:       changed,
		KnownIDs:         make([]string, 0, len(changed)),
		BlastRadiusNodes: make([]string, 0),
		BlastRadiusEdges: make([]*graph.Edge, 0),
		RiskHotspots:     make([]string, 0),
	}
	for _, id := range changed {
		if a.g.HasNode(id) {
			result.KnownIDs = append(result.KnownIDs, id)
		}
	}

	traversal, err := a.g.ReachableFrom(ctx, result.KnownIDs, graph.DirectionDownstream)
	if err != nil {
		return nil, err
	}

	blast := make(map[string]bool, len(traversal.Nodes))
	for _, id := range traversal.Nodes {
		blast[id] = true
	}

	// Keep only edges on the induced propagation path: source must be a
	// changed or blast-radius node and target must be in the radius.
	for _, e := range traversal.Edges {
		if (seen[e.SourceID] || blast[e.SourceID]) && blast[e.TargetID] {
			result.BlastRadiusEdges = append(result.BlastRadiusEdges, e)
		}
	}

	result.BlastRadiusNodes = sortedIDs(traversal.Nodes)
	result.BlastRadiusEdges = sortedEdges(result.BlastRadiusEdges)
	result.RiskHotspots = hotspotIDs(a.g.Hotspots(traversal.Nodes, a.hotspotOpts...))

	setAnalysisSpanResult(span, len(result.KnownIDs) > 0, len(result.BlastRadiusNodes), len(result.RiskHotspots))
	recordAnalysisMetrics(ctx, "analyze_whatif", time.Since(start), len(result.KnownIDs) > 0,
		len(result.BlastRadiusNodes), len(result.RiskHotspots))
	return result, nil
}

// sortedIDs returns a sorted copy of the given id slice.
func sortedIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}

// sortedEdges returns a copy sorted by (source, target, kind).
func sortedEdges(edges []*graph.Edge) []*graph.Edge {
	out := make([]*graph.Edge, len(edges))
	copy(out, edges)
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		if out[i].TargetID != out[j].TargetID {
			return out[i].TargetID < out[j].TargetID
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// hotspotIDs projects hotspot nodes to their ids, preserving score order.
func hotspotIDs(hotspots []graph.HotspotNode) []string {
	ids := make([]string, 0, len(hotspots))
	for _, hs := range hotspots {
		ids = append(ids, hs.ID)
	}
	return ids
}
