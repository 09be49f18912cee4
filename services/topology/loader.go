// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package topology

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/AppLensAI/AppLens/services/topology/graph"
)

// TopologyDoc is the on-disk topology document produced by the scanner
// pipeline: a service map keyed by service name plus the detected
// interactions between them.
type TopologyDoc struct {
	Services     map[string]ServiceEntry `json:"services"`
	Interactions []InteractionEntry      `json:"interactions"`
}

// ServiceEntry describes one scanned service.
type ServiceEntry struct {
	Name         string `json:"name"`
	RepoFullName string `json:"repo_full_name"`
	Language     string `json:"language"`
	PathHint     string `json:"path_hint"`
}

// InteractionEntry describes one detected service-to-service interaction.
type InteractionEntry struct {
	SourceService string  `json:"source_service"`
	TargetService string  `json:"target_service"`
	Type          string  `json:"type"`
	Method        string  `json:"method,omitempty"`
	URL           string  `json:"url,omitempty"`
	Topic         string  `json:"topic,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
}

// LoadTopology reads and builds a frozen graph from a topology file.
//
// Outputs:
//
//	The built snapshot, or an error wrapping ErrTopologyRead,
//	ErrTopologyParse, or the Builder's validation errors.
func LoadTopology(path string) (*graph.Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTopologyRead, path, err)
	}

	var doc TopologyDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTopologyParse, path, err)
	}
	return BuildGraph(&doc)
}

// BuildGraph turns a topology document into a frozen graph snapshot.
//
// Description:
//
//	Every service entry becomes a node; the map key is the id when the
//	entry's own name is empty. Interactions with an unrecognized type
//	or an endpoint missing from the service map are skipped with a
//	warning rather than failing the whole load: one bad scanner finding
//	must not take the topology down.
func BuildGraph(doc *TopologyDoc) (*graph.Graph, error) {
	b := graph.NewBuilder()

	for key, entry := range doc.Services {
		id := entry.Name
		if id == "" {
			id = key
		}
		node := graph.Node{
			ID:       id,
			Name:     id,
			Repo:     entry.RepoFullName,
			Language: entry.Language,
		}
		if err := b.AddNode(node); err != nil {
			return nil, fmt.Errorf("service %q: %w", key, err)
		}
	}

	for _, in := range doc.Interactions {
		kind := graph.ParseEdgeKind(in.Type)
		if kind == graph.EdgeKindUnknown {
			slog.Warn("Skipping interaction with unknown type",
				"type", in.Type,
				"source", in.SourceService,
				"target", in.TargetService)
			continue
		}
		src := graph.CanonicalID(in.SourceService)
		dst := graph.CanonicalID(in.TargetService)
		if !b.HasNode(src) || !b.HasNode(dst) {
			slog.Warn("Skipping interaction with unknown endpoint",
				"source", in.SourceService,
				"target", in.TargetService)
			continue
		}
		err := b.AddEdge(graph.Edge{SourceID: src, TargetID: dst, Kind: kind})
		if err != nil {
			return nil, fmt.Errorf("interaction %s->%s: %w", src, dst, err)
		}
	}

	return b.Build()
}
