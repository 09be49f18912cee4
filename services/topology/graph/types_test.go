// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import "testing"

// buildTestGraph constructs the canonical test topology:
//
//	A -HTTP-> B, B -HTTP-> C, B -KAFKA-> D
func buildTestGraph(t *testing.T) *Graph {
	t.Helper()

	b := NewBuilder()
	for _, id := range []string{"A", "B", "C", "D"} {
		if err := b.AddNode(Node{ID: id, Name: id + "-service", Repo: "acme/" + id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	edges := []Edge{
		{SourceID: "A", TargetID: "B", Kind: EdgeKindHTTP},
		{SourceID: "B", TargetID: "C", Kind: EdgeKindHTTP},
		{SourceID: "B", TargetID: "D", Kind: EdgeKindKafka},
	}
	for _, e := range edges {
		if err := b.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%+v): %v", e, err)
		}
	}

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestEdgeKind_String(t *testing.T) {
	tests := []struct {
		kind     EdgeKind
		expected string
	}{
		{EdgeKindUnknown, "unknown"},
		{EdgeKindHTTP, "HTTP"},
		{EdgeKindKafka, "KAFKA"},
		{EdgeKind(99), "unknown"},
	}

	for _, tc := range tests {
		got := tc.kind.String()
		if got != tc.expected {
			t.Errorf("EdgeKind(%d).String() = %q, expected %q", tc.kind, got, tc.expected)
		}
	}
}

func TestParseEdgeKind(t *testing.T) {
	tests := []struct {
		input    string
		expected EdgeKind
	}{
		{"HTTP", EdgeKindHTTP},
		{"http", EdgeKindHTTP},
		{"  Http ", EdgeKindHTTP},
		{"SYNCHRONOUS_CALL", EdgeKindHTTP},
		{"KAFKA", EdgeKindKafka},
		{"kafka", EdgeKindKafka},
		{"EVENT_PUBLISH", EdgeKindKafka},
		{"grpc", EdgeKindUnknown},
		{"", EdgeKindUnknown},
	}

	for _, tc := range tests {
		got := ParseEdgeKind(tc.input)
		if got != tc.expected {
			t.Errorf("ParseEdgeKind(%q) = %v, expected %v", tc.input, got, tc.expected)
		}
	}
}

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Order-Service", "order-service"},
		{"  user-service  ", "user-service"},
		{"A", "a"},
		{"", ""},
	}

	for _, tc := range tests {
		got := CanonicalID(tc.input)
		if got != tc.expected {
			t.Errorf("CanonicalID(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestGraph_Accessors(t *testing.T) {
	g := buildTestGraph(t)

	if g.NodeCount() != 4 {
		t.Errorf("NodeCount = %d, expected 4", g.NodeCount())
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount = %d, expected 3", g.EdgeCount())
	}

	// Lookup is canonical: mixed casing and whitespace resolve.
	if !g.HasNode(" A ") {
		t.Error("expected HasNode(\" A \") to be true")
	}
	n, ok := g.Node("B")
	if !ok {
		t.Fatal("expected node b to exist")
	}
	if n.ID != "b" {
		t.Errorf("node ID = %q, expected canonical %q", n.ID, "b")
	}

	ids := g.NodeIDs()
	expected := []string{"a", "b", "c", "d"}
	for i, id := range expected {
		if ids[i] != id {
			t.Errorf("NodeIDs[%d] = %q, expected %q", i, ids[i], id)
		}
	}

	out := g.Outgoing("b")
	if len(out) != 2 {
		t.Fatalf("Outgoing(b) = %d edges, expected 2", len(out))
	}
	in := g.Incoming("d")
	if len(in) != 1 || in[0].Kind != EdgeKindKafka {
		t.Errorf("Incoming(d) = %+v, expected one KAFKA edge", in)
	}
	if g.Outgoing("does-not-exist") != nil {
		t.Error("expected nil Outgoing for unknown node")
	}
}
