// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

// ExportedNode is the visualization-facing shape of a service node.
type ExportedNode struct {
	// ID is the canonical node id.
	ID string `json:"id"`

	// Name is the display label.
	Name string `json:"name"`

	// Group is the visual grouping key (the owning repository by default).
	Group string `json:"group"`

	// Repo is the owning repository.
	Repo string `json:"repo"`

	// Language is the detected implementation language, if known.
	Language string `json:"language,omitempty"`

	// InDegree is the number of incoming edges within the exported set.
	InDegree int `json:"in_degree"`

	// OutDegree is the number of outgoing edges within the exported set.
	OutDegree int `json:"out_degree"`
}

// ExportedLink is the visualization-facing shape of an interaction edge.
type ExportedLink struct {
	// Source is the canonical source node id.
	Source string `json:"source"`

	// Target is the canonical target node id.
	Target string `json:"target"`

	// Kind is the canonical edge kind, "HTTP" or "KAFKA".
	Kind string `json:"kind"`

	// Bidirectional is true for an HTTP link whose reverse HTTP link also
	// exists, so the visualization can render a two-way arrow.
	Bidirectional bool `json:"bidirectional"`

	// Dual is true when the same ordered pair also carries an edge of the
	// other kind. This is a derived, read-only annotation: both edges are
	// retained and both are exported.
	Dual bool `json:"dual"`
}

// ExportedGraph is a full or filtered snapshot of the topology for the
// visualization and for external resolution components.
type ExportedGraph struct {
	Nodes []ExportedNode `json:"nodes"`
	Links []ExportedLink `json:"links"`
}

// DualPairs returns the ordered node pairs connected by both an HTTP and a
// Kafka edge.
//
// Pairs are returned in (source, target) ascending order for determinism.
func (g *Graph) DualPairs() [][2]string {
	kinds := make(map[[2]string]map[EdgeKind]bool)
	for _, e := range g.edges {
		pair := [2]string{e.SourceID, e.TargetID}
		if kinds[pair] == nil {
			kinds[pair] = make(map[EdgeKind]bool)
		}
		kinds[pair][e.Kind] = true
	}

	pairs := make([][2]string, 0)
	// Walk edges (already sorted) so output order is stable without a
	// second sort over map keys.
	seen := make(map[[2]string]bool)
	for _, e := range g.edges {
		pair := [2]string{e.SourceID, e.TargetID}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		if kinds[pair][EdgeKindHTTP] && kinds[pair][EdgeKindKafka] {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

// Export produces the external graph snapshot.
//
// Description:
//
//	When groups are given, only nodes whose Group or Repo matches one of
//	them are exported, along with the edges whose endpoints both survive
//	the filter. Degree counts are computed over the exported edge set so
//	the visualization's sizing reflects what is actually on screen.
//
//	HTTP links whose reverse HTTP link exists are flagged Bidirectional;
//	ordered pairs carrying both kinds are flagged Dual on each link.
//
// Side effects: none. Export is a pure function of the frozen graph.
func (g *Graph) Export(groups ...string) *ExportedGraph {
	groupSet := make(map[string]bool, len(groups))
	for _, grp := range groups {
		groupSet[grp] = true
	}
	keep := func(n *Node) bool {
		if len(groupSet) == 0 {
			return true
		}
		return groupSet[n.Group] || groupSet[n.Repo]
	}

	kept := make(map[string]bool, len(g.nodes))
	for _, id := range g.order {
		if keep(g.nodes[id]) {
			kept[id] = true
		}
	}

	httpPairs := make(map[[2]string]bool)
	kindsByPair := make(map[[2]string]map[EdgeKind]bool)
	var links []ExportedLink
	inDegree := make(map[string]int, len(kept))
	outDegree := make(map[string]int, len(kept))

	for _, e := range g.edges {
		if !kept[e.SourceID] || !kept[e.TargetID] {
			continue
		}
		pair := [2]string{e.SourceID, e.TargetID}
		if e.Kind == EdgeKindHTTP {
			httpPairs[pair] = true
		}
		if kindsByPair[pair] == nil {
			kindsByPair[pair] = make(map[EdgeKind]bool)
		}
		kindsByPair[pair][e.Kind] = true

		links = append(links, ExportedLink{
			Source: e.SourceID,
			Target: e.TargetID,
			Kind:   e.Kind.String(),
		})
		outDegree[e.SourceID]++
		inDegree[e.TargetID]++
	}

	for i := range links {
		pair := [2]string{links[i].Source, links[i].Target}
		reverse := [2]string{links[i].Target, links[i].Source}
		if links[i].Kind == EdgeKindHTTP.String() && httpPairs[reverse] {
			links[i].Bidirectional = true
		}
		links[i].Dual = kindsByPair[pair][EdgeKindHTTP] && kindsByPair[pair][EdgeKindKafka]
	}

	nodes := make([]ExportedNode, 0, len(kept))
	for _, id := range g.order {
		if !kept[id] {
			continue
		}
		n := g.nodes[id]
		nodes = append(nodes, ExportedNode{
			ID:        n.ID,
			Name:      n.Name,
			Group:     n.Group,
			Repo:      n.Repo,
			Language:  n.Language,
			InDegree:  inDegree[id],
			OutDegree: outDegree[id],
		})
	}

	if links == nil {
		links = make([]ExportedLink, 0)
	}
	return &ExportedGraph{Nodes: nodes, Links: links}
}
