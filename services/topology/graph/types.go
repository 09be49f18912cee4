// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package graph implements the immutable service-topology graph that all
// impact queries run against.
//
// A Graph is produced by a Builder and is read-only from that point on.
// Rebuilds (after a new scan or import) produce a brand new Graph that the
// owning service swaps in atomically; queries already running keep the
// snapshot they were handed. Because of this lifecycle the Graph needs no
// internal locking and can be shared by any number of concurrent readers.
package graph

import (
	"sort"
	"strings"
)

// EdgeKind defines the type of interaction between two services.
type EdgeKind int

const (
	// EdgeKindUnknown indicates an unrecognized interaction type.
	EdgeKindUnknown EdgeKind = iota

	// EdgeKindHTTP indicates a synchronous HTTP call.
	EdgeKindHTTP

	// EdgeKindKafka indicates an asynchronous event publish over a topic.
	EdgeKindKafka

	// NumEdgeKinds is the total number of edge kinds (for array sizing).
	NumEdgeKinds
)

// edgeKindNames maps EdgeKind values to their canonical wire representations.
var edgeKindNames = map[EdgeKind]string{
	EdgeKindUnknown: "unknown",
	EdgeKindHTTP:    "HTTP",
	EdgeKindKafka:   "KAFKA",
}

// String returns the canonical wire representation of the EdgeKind.
//
// The external contract uses exactly two values, "HTTP" and "KAFKA".
func (k EdgeKind) String() string {
	if name, ok := edgeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseEdgeKind parses a wire representation into an EdgeKind.
//
// Parsing is case-insensitive. The internal aliases "synchronous_call" and
// "event_publish" are accepted alongside the canonical "http" and "kafka".
// Unrecognized values map to EdgeKindUnknown.
func ParseEdgeKind(s string) EdgeKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "http", "synchronous_call":
		return EdgeKindHTTP
	case "kafka", "event_publish":
		return EdgeKindKafka
	default:
		return EdgeKindUnknown
	}
}

// CanonicalID returns the canonical form of a node identifier.
//
// Identifiers are trimmed and lower-cased exactly once, at graph build time.
// Every component downstream of the Builder compares canonical ids only, so
// identity checks are never ambiguous about casing or stray whitespace.
func CanonicalID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Node represents a single service in the topology.
type Node struct {
	// ID is the canonical unique identifier.
	ID string

	// Name is the display label. May differ from ID.
	Name string

	// Repo is the owning repository (e.g. "acme/order-service").
	// Used for visual grouping and export filtering only, never by traversal.
	Repo string

	// Group is the visual grouping key. Defaults to Repo when empty.
	Group string

	// Language is the detected implementation language, if known.
	Language string
}

// Edge represents a directed interaction between two services.
//
// Edges are deduplicated by (source, target, kind) at build time. The same
// ordered pair may carry both an HTTP and a Kafka edge; such pairs are
// reported as dual connections in the export.
type Edge struct {
	// SourceID is the canonical id of the calling/publishing service.
	SourceID string

	// TargetID is the canonical id of the called/consuming service.
	TargetID string

	// Kind is the interaction type.
	Kind EdgeKind

	// Weight is an optional edge weight. Zero means unweighted.
	Weight int
}

// Graph is the frozen, queryable service topology.
//
// Thread Safety:
//
//	Graph is immutable after Build() and safe for unbounded concurrent
//	reads. Accessors that return slices return copies or internally
//	stable data that callers must not mutate.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []*Edge
	outgoing map[string][]*Edge
	incoming map[string][]*Edge

	// BuiltAtMilli is the Unix timestamp in milliseconds when Build() completed.
	BuiltAtMilli int64
}

// Node returns the node with the given id, or false if absent.
//
// The id is canonicalized before lookup, so callers may pass raw input.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[CanonicalID(id)]
	return n, ok
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[CanonicalID(id)]
	return ok
}

// Nodes returns all nodes ordered by canonical id ascending.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeIDs returns all canonical node ids in ascending order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// Edges returns all edges in deterministic (source, target, kind) order.
func (g *Graph) Edges() []*Edge {
	edges := make([]*Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Outgoing returns the edges whose source is the given node.
//
// The returned slice is a copy in stable build order; unknown ids yield nil.
func (g *Graph) Outgoing(id string) []*Edge {
	src := g.outgoing[CanonicalID(id)]
	if src == nil {
		return nil
	}
	edges := make([]*Edge, len(src))
	copy(edges, src)
	return edges
}

// Incoming returns the edges whose target is the given node.
//
// The returned slice is a copy in stable build order; unknown ids yield nil.
func (g *Graph) Incoming(id string) []*Edge {
	src := g.incoming[CanonicalID(id)]
	if src == nil {
		return nil
	}
	edges := make([]*Edge, len(src))
	copy(edges, src)
	return edges
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// sortEdges orders edges by (source, target, kind) for determinism.
func sortEdges(edges []*Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SourceID != edges[j].SourceID {
			return edges[i].SourceID < edges[j].SourceID
		}
		if edges[i].TargetID != edges[j].TargetID {
			return edges[i].TargetID < edges[j].TargetID
		}
		return edges[i].Kind < edges[j].Kind
	})
}
