// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"fmt"
	"sort"
	"time"
)

// Builder accumulates nodes and edges and produces a frozen Graph.
//
// Description:
//
//	Raw topology input is loosely shaped: ids may carry whitespace or
//	mixed casing, the same service may be reported more than once, and
//	the same interaction may be detected by several scanners. The Builder
//	canonicalizes ids exactly once, merges duplicate nodes, deduplicates
//	edges by (source, target, kind), and validates that every edge
//	endpoint exists before the Graph is frozen.
//
// Duplicate policy:
//
//	Duplicate node ids are merged, last write wins for non-empty fields.
//	This mirrors how repeated scans refine an existing service record
//	rather than invalidating the whole topology.
//
// Thread Safety:
//
//	Builder is NOT safe for concurrent use. It is designed for a single
//	writer; the Graph returned by Build() is safe for concurrent reads.
type Builder struct {
	nodes map[string]*Node
	edges []*Edge
}

// NewBuilder creates an empty topology builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[string]*Node),
		edges: make([]*Edge, 0),
	}
}

// AddNode adds a service node, merging with any existing node of the same
// canonical id. Returns an error only for a blank id.
func (b *Builder) AddNode(n Node) error {
	id := CanonicalID(n.ID)
	if id == "" {
		return ErrEmptyNodeID
	}

	existing, ok := b.nodes[id]
	if !ok {
		n.ID = id
		if n.Group == "" {
			n.Group = n.Repo
		}
		b.nodes[id] = &n
		return nil
	}

	// Last write wins for non-empty fields.
	if n.Name != "" {
		existing.Name = n.Name
	}
	if n.Repo != "" {
		existing.Repo = n.Repo
	}
	if n.Group != "" {
		existing.Group = n.Group
	} else if existing.Group == "" {
		existing.Group = existing.Repo
	}
	if n.Language != "" {
		existing.Language = n.Language
	}
	return nil
}

// AddEdge adds a directed interaction edge.
//
// Endpoints are canonicalized; duplicate (source, target, kind) triples are
// dropped silently. Endpoint existence is checked at Build() time, not here,
// so nodes and edges may arrive in any order.
func (b *Builder) AddEdge(e Edge) error {
	e.SourceID = CanonicalID(e.SourceID)
	e.TargetID = CanonicalID(e.TargetID)
	if e.SourceID == "" || e.TargetID == "" {
		return ErrEmptyEndpoint
	}

	for _, existing := range b.edges {
		if existing.SourceID == e.SourceID && existing.TargetID == e.TargetID && existing.Kind == e.Kind {
			return nil
		}
	}
	b.edges = append(b.edges, &e)
	return nil
}

// HasNode reports whether a node with the given id has been added.
func (b *Builder) HasNode(id string) bool {
	_, ok := b.nodes[CanonicalID(id)]
	return ok
}

// NodeCount returns the number of distinct nodes added so far.
func (b *Builder) NodeCount() int {
	return len(b.nodes)
}

// EdgeCount returns the number of distinct edges added so far.
func (b *Builder) EdgeCount() int {
	return len(b.edges)
}

// Build validates the accumulated topology and returns a frozen Graph.
//
// Description:
//
//	Verifies every edge endpoint references a known node, derives the
//	outgoing and reverse adjacency maps once, and orders nodes and edges
//	deterministically. The Builder may be reused after Build(); the
//	returned Graph holds its own copies.
//
// Outputs:
//
//	*Graph - The frozen, queryable topology.
//	error - Non-nil if an edge endpoint is unknown (wraps ErrDanglingEdge).
//
// Example:
//
//	b := graph.NewBuilder()
//	b.AddNode(graph.Node{ID: "order-service", Name: "Orders"})
//	b.AddNode(graph.Node{ID: "user-service", Name: "Users"})
//	b.AddEdge(graph.Edge{SourceID: "order-service", TargetID: "user-service", Kind: graph.EdgeKindHTTP})
//	g, err := b.Build()
func (b *Builder) Build() (*Graph, error) {
	for i, e := range b.edges {
		if _, ok := b.nodes[e.SourceID]; !ok {
			return nil, fmt.Errorf("edge[%d] %s -> %s: source: %w", i, e.SourceID, e.TargetID, ErrDanglingEdge)
		}
		if _, ok := b.nodes[e.TargetID]; !ok {
			return nil, fmt.Errorf("edge[%d] %s -> %s: target: %w", i, e.SourceID, e.TargetID, ErrDanglingEdge)
		}
	}

	g := &Graph{
		nodes:        make(map[string]*Node, len(b.nodes)),
		order:        make([]string, 0, len(b.nodes)),
		edges:        make([]*Edge, 0, len(b.edges)),
		outgoing:     make(map[string][]*Edge, len(b.nodes)),
		incoming:     make(map[string][]*Edge, len(b.nodes)),
		BuiltAtMilli: time.Now().UnixMilli(),
	}

	for id, n := range b.nodes {
		copied := *n
		g.nodes[id] = &copied
		g.order = append(g.order, id)
	}
	sort.Strings(g.order)

	for _, e := range b.edges {
		copied := *e
		g.edges = append(g.edges, &copied)
	}
	sortEdges(g.edges)

	for _, e := range g.edges {
		g.outgoing[e.SourceID] = append(g.outgoing[e.SourceID], e)
		g.incoming[e.TargetID] = append(g.incoming[e.TargetID], e)
	}

	return g, nil
}
