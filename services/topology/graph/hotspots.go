// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import "sort"

// DefaultHotspotThreshold is the default fan-in a node needs inside a blast
// radius to be flagged as a risk hotspot.
const DefaultHotspotThreshold = 2

// HotspotNode represents a node with its structural risk score.
type HotspotNode struct {
	// ID is the canonical node id.
	ID string

	// Score is the fan-in restricted to the analyzed node set: how many
	// already-affected services depend on this one.
	Score int

	// InDegree is the total number of incoming edges in the graph.
	InDegree int

	// OutDegree is the total number of outgoing edges in the graph.
	OutDegree int
}

// HotspotOptions configures hotspot selection.
type HotspotOptions struct {
	// Threshold is the minimum restricted fan-in. Ignored when TopK > 0.
	Threshold int

	// TopK selects the K highest-scoring nodes instead of thresholding.
	// Zero disables top-K selection.
	TopK int
}

// HotspotOption is a functional option for configuring hotspot selection.
type HotspotOption func(*HotspotOptions)

// WithHotspotThreshold sets the minimum restricted fan-in.
//
// If n <= 0, uses the default (2).
func WithHotspotThreshold(n int) HotspotOption {
	return func(o *HotspotOptions) {
		if n <= 0 {
			o.Threshold = DefaultHotspotThreshold
		} else {
			o.Threshold = n
		}
	}
}

// WithHotspotTopK selects the K highest-scoring nodes with score > 0,
// instead of applying the threshold. K <= 0 disables top-K selection.
func WithHotspotTopK(k int) HotspotOption {
	return func(o *HotspotOptions) {
		if k < 0 {
			k = 0
		}
		o.TopK = k
	}
}

// Hotspots flags structurally exposed nodes inside an already-computed
// impact set.
//
// Description:
//
//	A node's risk score counts how many other members of `within` have
//	an edge into it. A node can be structurally critical even when it is
//	not on the shortest propagation path; hotspots surface these for
//	operator attention.
//
//	By default nodes with restricted fan-in >= 2 are hotspots (the
//	threshold is configurable); WithHotspotTopK switches to top-K
//	selection. Results are sorted by score descending with ties broken
//	by id ascending, so equal inputs always produce identical output.
//
// Inputs:
//
//	within - The analyzed node set, usually a blast radius. Ids are
//	         canonicalized; unknown ids are ignored.
//	opts - Optional threshold / top-K overrides.
//
// Thread Safety: Safe for concurrent use.
func (g *Graph) Hotspots(within []string, opts ...HotspotOption) []HotspotNode {
	options := HotspotOptions{Threshold: DefaultHotspotThreshold}
	for _, opt := range opts {
		opt(&options)
	}

	withinSet := make(map[string]bool, len(within))
	for _, raw := range within {
		id := CanonicalID(raw)
		if g.nodes[id] != nil {
			withinSet[id] = true
		}
	}

	candidates := make([]HotspotNode, 0, len(withinSet))
	for id := range withinSet {
		score := 0
		for _, edge := range g.incoming[id] {
			if withinSet[edge.SourceID] {
				score++
			}
		}
		candidates = append(candidates, HotspotNode{
			ID:        id,
			Score:     score,
			InDegree:  len(g.incoming[id]),
			OutDegree: len(g.outgoing[id]),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})

	if options.TopK > 0 {
		hotspots := make([]HotspotNode, 0, options.TopK)
		for _, c := range candidates {
			if len(hotspots) >= options.TopK || c.Score == 0 {
				break
			}
			hotspots = append(hotspots, c)
		}
		return hotspots
	}

	hotspots := make([]HotspotNode, 0)
	for _, c := range candidates {
		if c.Score < options.Threshold {
			break
		}
		hotspots = append(hotspots, c)
	}
	return hotspots
}
