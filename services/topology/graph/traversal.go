// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"fmt"
)

// Traversal configuration limits.
const (
	// UnboundedDepth disables the depth cap; traversal covers the whole
	// reachable component.
	UnboundedDepth = 0

	// MaxTraversalDepth is the maximum allowed depth cap.
	MaxTraversalDepth = 1000

	// contextCheckInterval is how often to check context during traversal.
	contextCheckInterval = 100
)

// Direction selects which adjacency a traversal follows.
type Direction int

const (
	// DirectionDownstream follows outgoing edges: who does this service affect.
	DirectionDownstream Direction = iota

	// DirectionUpstream follows incoming edges: who depends on this service.
	DirectionUpstream
)

// String returns the string representation of the Direction.
func (d Direction) String() string {
	switch d {
	case DirectionDownstream:
		return "downstream"
	case DirectionUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// TraversalOptions configures traversal behavior.
type TraversalOptions struct {
	// MaxDepth caps exploration depth. UnboundedDepth (0) means no cap.
	MaxDepth int

	// MaxNodes caps the number of visited nodes. 0 means no cap.
	MaxNodes int
}

// TraversalOption is a functional option for configuring traversals.
type TraversalOption func(*TraversalOptions)

// WithMaxDepth caps the traversal depth.
//
// If d <= 0, the traversal is unbounded.
// If d > 1000, clamps to 1000.
func WithMaxDepth(d int) TraversalOption {
	return func(o *TraversalOptions) {
		if d <= 0 {
			o.MaxDepth = UnboundedDepth
		} else if d > MaxTraversalDepth {
			o.MaxDepth = MaxTraversalDepth
		} else {
			o.MaxDepth = d
		}
	}
}

// WithMaxNodes caps the number of visited nodes. 0 means no cap.
func WithMaxNodes(n int) TraversalOption {
	return func(o *TraversalOptions) {
		if n < 0 {
			n = 0
		}
		o.MaxNodes = n
	}
}

// TraversalResult holds the outcome of a reachability computation.
type TraversalResult struct {
	// Origins are the canonical origin ids that exist in the graph.
	Origins []string

	// Nodes are the visited node ids in discovery (BFS) order.
	// Origins are always included.
	Nodes []string

	// Depths maps each visited node id to its discovery depth, i.e. the
	// hop distance from the nearest origin.
	Depths map[string]int

	// Edges are exactly the edges traversed to discover a new node. An
	// edge between two already-discovered nodes is not included, and both
	// endpoints of every edge appear in Nodes even when the result is
	// truncated.
	Edges []*Edge

	// Depth is the maximum discovery depth reached.
	Depth int

	// Truncated is true if the node cap was hit or the context was
	// cancelled before the frontier was exhausted.
	Truncated bool
}

// ReachableFrom computes the set of nodes and edges reachable from one or
// more origins.
//
// Description:
//
//	Performs an iterative multi-source BFS: every origin is seeded at
//	depth 0 so overlapping blast radii merge rather than being computed
//	independently and unioned. A visited set guards against cycles and
//	re-expansion, so the cost is O(V+E) per call regardless of graph
//	shape. Origins that do not exist in the graph are skipped; an origin
//	set with no known members yields an empty result, not an error.
//
// Inputs:
//
//	ctx - Context for cancellation (checked every 100 dequeues).
//	origins - Origin node ids; canonicalized before lookup.
//	direction - DirectionDownstream (outgoing) or DirectionUpstream (incoming).
//	opts - Optional MaxDepth / MaxNodes caps.
//
// Outputs:
//
//	*TraversalResult - Visited nodes, propagation edges, depths.
//	error - Non-nil only for an invalid direction.
func (g *Graph) ReachableFrom(ctx context.Context, origins []string, direction Direction, opts ...TraversalOption) (*TraversalResult, error) {
	if direction != DirectionDownstream && direction != DirectionUpstream {
		return nil, fmt.Errorf("invalid direction: %d", direction)
	}

	options := TraversalOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	result := &TraversalResult{
		Origins: make([]string, 0, len(origins)),
		Nodes:   make([]string, 0),
		Depths:  make(map[string]int),
		Edges:   make([]*Edge, 0),
	}

	type queueItem struct {
		nodeID string
		depth  int
		via    *Edge
	}

	visited := make(map[string]bool)
	queue := make([]queueItem, 0, len(origins))
	for _, raw := range origins {
		id := CanonicalID(raw)
		if !visited[id] && g.nodes[id] != nil {
			visited[id] = true
			result.Origins = append(result.Origins, id)
			queue = append(queue, queueItem{nodeID: id, depth: 0})
		}
	}

	checkCounter := 0
	for len(queue) > 0 {
		checkCounter++
		if checkCounter%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				result.Truncated = true
				return result, nil
			}
		}

		item := queue[0]
		queue = queue[1:]

		result.Nodes = append(result.Nodes, item.nodeID)
		result.Depths[item.nodeID] = item.depth
		// The discovery edge is recorded only once its target is admitted,
		// so a truncated result never carries edges to nodes it omits.
		if item.via != nil {
			result.Edges = append(result.Edges, item.via)
		}
		if item.depth > result.Depth {
			result.Depth = item.depth
		}

		if options.MaxNodes > 0 && len(result.Nodes) >= options.MaxNodes {
			result.Truncated = true
			break
		}

		if options.MaxDepth != UnboundedDepth && item.depth >= options.MaxDepth {
			continue
		}

		var neighbors []*Edge
		if direction == DirectionDownstream {
			neighbors = g.outgoing[item.nodeID]
		} else {
			neighbors = g.incoming[item.nodeID]
		}

		for _, edge := range neighbors {
			next := edge.TargetID
			if direction == DirectionUpstream {
				next = edge.SourceID
			}
			if visited[next] {
				continue // Cycle guard: never re-queue a discovered node.
			}
			visited[next] = true
			queue = append(queue, queueItem{nodeID: next, depth: item.depth + 1, via: edge})
		}
	}

	return result, nil
}
