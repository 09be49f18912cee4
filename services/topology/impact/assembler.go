// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package impact

import "github.com/AppLensAI/AppLens/services/topology/graph"

// EdgeRef is the external wire shape of a propagation edge.
type EdgeRef struct {
	// Source is the canonical source node id.
	Source string `json:"source"`

	// Target is the canonical target node id.
	Target string `json:"target"`

	// Kind is the canonical edge kind, "HTTP" or "KAFKA".
	Kind string `json:"kind"`
}

// ErrorAnalysisResult is the external contract for an error analysis.
type ErrorAnalysisResult struct {
	// SourceNode is the resolved origin id, echoed back.
	SourceNode string `json:"source_node"`

	// OriginFound is false when the origin was not in the topology; the
	// caller renders a "no impact data" response instead of a fault.
	OriginFound bool `json:"origin_found"`

	// AffectedNodes is the deduplicated downstream set.
	AffectedNodes []string `json:"affected_nodes"`

	// AffectedEdges is the deduplicated propagation path.
	AffectedEdges []EdgeRef `json:"affected_edges"`

	// RiskHotspotNodes is presented separately from AffectedNodes but
	// may overlap it.
	RiskHotspotNodes []string `json:"risk_hotspot_nodes"`
}

// WhatIfAnalysisResult is the external contract for a what-if analysis.
type WhatIfAnalysisResult struct {
	// ChangedServiceIDs echoes the requested set, canonicalized.
	ChangedServiceIDs []string `json:"changed_service_ids"`

	// UnknownServiceIDs lists requested ids absent from the topology.
	UnknownServiceIDs []string `json:"unknown_service_ids,omitempty"`

	// BlastRadiusNodes is the merged downstream set of every changed
	// service.
	BlastRadiusNodes []string `json:"blast_radius_nodes"`

	// BlastRadiusEdges are the edges the change propagates along.
	BlastRadiusEdges []EdgeRef `json:"blast_radius_edges"`

	// RiskHotspotNodes are the high fan-in services within the radius.
	RiskHotspotNodes []string `json:"risk_hotspot_nodes"`
}

// EdgeKey builds the flat lookup key for an edge: "sourceId-targetId".
//
// Consumers that need to test edge membership by a flat string (the
// visualization's highlight set) use this key form.
func EdgeKey(source, target string) string {
	return graph.CanonicalID(source) + "-" + graph.CanonicalID(target)
}

// MatchEdgeKey reports whether a flat key addresses the edge (source, target).
//
// When directionAgnostic is true the reverse key "targetId-sourceId" matches
// as well; visualizations highlight a link regardless of which endpoint the
// user selected.
func MatchEdgeKey(key, source, target string, directionAgnostic bool) bool {
	if key == EdgeKey(source, target) {
		return true
	}
	return directionAgnostic && key == EdgeKey(target, source)
}

// AssembleError shapes an ErrorImpact into the external contract.
//
// Side effects: none. Assembly is a pure function of the impact result;
// ids are already canonical and sets are already deduplicated and sorted
// by the Analyzer, so this only projects to the wire types.
func AssembleError(imp *ErrorImpact) *ErrorAnalysisResult {
	return &ErrorAnalysisResult{
		SourceNode:       imp.Origin,
		OriginFound:      imp.OriginFound,
		AffectedNodes:    copyIDs(imp.AffectedNodes),
		AffectedEdges:    edgeRefs(imp.AffectedEdges),
		RiskHotspotNodes: copyIDs(imp.RiskHotspots),
	}
}

// AssembleWhatIf shapes a WhatIfImpact into the external contract.
func AssembleWhatIf(imp *WhatIfImpact) *WhatIfAnalysisResult {
	known := make(map[string]bool, len(imp.KnownIDs))
	for _, id := range imp.KnownIDs {
		known[id] = true
	}
	var unknown []string
	for _, id := range imp.ChangedIDs {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}

	return &WhatIfAnalysisResult{
		ChangedServiceIDs: copyIDs(imp.ChangedIDs),
		UnknownServiceIDs: unknown,
		BlastRadiusNodes:  copyIDs(imp.BlastRadiusNodes),
		BlastRadiusEdges:  edgeRefs(imp.BlastRadiusEdges),
		RiskHotspotNodes:  copyIDs(imp.RiskHotspots),
	}
}

// edgeRefs projects edges to wire shape, deduplicating by
// (source, target, kind).
func edgeRefs(edges []*graph.Edge) []EdgeRef {
	refs := make([]EdgeRef, 0, len(edges))
	seen := make(map[EdgeRef]bool, len(edges))
	for _, e := range edges {
		ref := EdgeRef{Source: e.SourceID, Target: e.TargetID, Kind: e.Kind.String()}
		if seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}

// copyIDs returns a defensive copy so results stay immutable once returned.
func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
