// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package impact

import (
	"context"
	"reflect"
	"testing"

	"github.com/AppLensAI/AppLens/services/topology/graph"
)

// buildCascadeGraph builds the canonical cascade fixture:
//
//	a -> b (HTTP), b -> c (HTTP), b -> d (KAFKA)
func buildCascadeGraph(t *testing.T) *graph.Graph {
	t.Helper()

	b := graph.NewBuilder()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := b.AddNode(graph.Node{ID: id, Name: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	edges := []graph.Edge{
		{SourceID: "a", TargetID: "b", Kind: graph.EdgeKindHTTP},
		{SourceID: "b", TargetID: "c", Kind: graph.EdgeKindHTTP},
		{SourceID: "b", TargetID: "d", Kind: graph.EdgeKindKafka},
	}
	for _, e := range edges {
		if err := b.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestAnalyzeErrorCascadesDownstream(t *testing.T) {
	a := NewAnalyzer(buildCascadeGraph(t))

	imp, err := a.AnalyzeError(context.Background(), "A")
	if err != nil {
		t.Fatalf("AnalyzeError: %v", err)
	}
	if !imp.OriginFound {
		t.Fatal("expected origin to be found")
	}
	if imp.Origin != "a" {
		t.Errorf("Origin = %q, want canonical %q", imp.Origin, "a")
	}

	wantNodes := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(imp.AffectedNodes, wantNodes) {
		t.Errorf("AffectedNodes = %v, want %v", imp.AffectedNodes, wantNodes)
	}
	if len(imp.AffectedEdges) != 3 {
		t.Fatalf("AffectedEdges = %d, want 3", len(imp.AffectedEdges))
	}
	// The kafka edge propagates the same as the http ones.
	foundKafka := false
	for _, e := range imp.AffectedEdges {
		if e.SourceID == "b" && e.TargetID == "d" && e.Kind == graph.EdgeKindKafka {
			foundKafka = true
		}
	}
	if !foundKafka {
		t.Error("expected b->d kafka edge in the propagation path")
	}
}

func TestAnalyzeErrorLeafOrigin(t *testing.T) {
	a := NewAnalyzer(buildCascadeGraph(t))

	imp, err := a.AnalyzeError(context.Background(), "c")
	if err != nil {
		t.Fatalf("AnalyzeError: %v", err)
	}
	if want := []string{"c"}; !reflect.DeepEqual(imp.AffectedNodes, want) {
		t.Errorf("AffectedNodes = %v, want %v", imp.AffectedNodes, want)
	}
	if len(imp.AffectedEdges) != 0 {
		t.Errorf("AffectedEdges = %v, want none", imp.AffectedEdges)
	}
}

func TestAnalyzeErrorUnknownOrigin(t *testing.T) {
	a := NewAnalyzer(buildCascadeGraph(t))

	imp, err := a.AnalyzeError(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("AnalyzeError: %v", err)
	}
	if imp.OriginFound {
		t.Error("expected OriginFound=false for unknown origin")
	}
	if imp.Origin != "ghost" {
		t.Errorf("Origin = %q, want echoed %q", imp.Origin, "ghost")
	}
	if len(imp.AffectedNodes) != 0 || len(imp.AffectedEdges) != 0 || len(imp.RiskHotspots) != 0 {
		t.Errorf("expected empty result, got %+v", imp)
	}
	if imp.AffectedNodes == nil || imp.AffectedEdges == nil || imp.RiskHotspots == nil {
		t.Error("empty result slices must be non-nil for stable serialization")
	}
}

func TestAnalyzeErrorDeterministic(t *testing.T) {
	a := NewAnalyzer(buildCascadeGraph(t))

	first, err := a.AnalyzeError(context.Background(), "a")
	if err != nil {
		t.Fatalf("AnalyzeError: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := a.AnalyzeError(context.Background(), "a")
		if err != nil {
			t.Fatalf("AnalyzeError run %d: %v", i, err)
		}
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, again, first)
		}
	}
}

func TestAnalyzeWhatIfLeafChange(t *testing.T) {
	a := NewAnalyzer(buildCascadeGraph(t))

	imp, err := a.AnalyzeWhatIf(context.Background(), []string{"c"})
	if err != nil {
		t.Fatalf("AnalyzeWhatIf: %v", err)
	}
	if want := []string{"c"}; !reflect.DeepEqual(imp.BlastRadiusNodes, want) {
		t.Errorf("BlastRadiusNodes = %v, want %v", imp.BlastRadiusNodes, want)
	}
	if len(imp.BlastRadiusEdges) != 0 {
		t.Errorf("BlastRadiusEdges = %v, want none", imp.BlastRadiusEdges)
	}
}

func TestAnalyzeWhatIfMergesOverlappingRadii(t *testing.T) {
	a := NewAnalyzer(buildCascadeGraph(t))

	imp, err := a.AnalyzeWhatIf(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("AnalyzeWhatIf: %v", err)
	}
	wantNodes := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(imp.BlastRadiusNodes, wantNodes) {
		t.Errorf("BlastRadiusNodes = %v, want %v", imp.BlastRadiusNodes, wantNodes)
	}
	for i, id := range imp.BlastRadiusNodes {
		for j := i + 1; j < len(imp.BlastRadiusNodes); j++ {
			if imp.BlastRadiusNodes[j] == id {
				t.Errorf("duplicate node %q in merged radius", id)
			}
		}
	}
}

func TestAnalyzeWhatIfDeduplicatesRequest(t *testing.T) {
	a := NewAnalyzer(buildCascadeGraph(t))

	imp, err := a.AnalyzeWhatIf(context.Background(), []string{"B", "b", " b "})
	if err != nil {
		t.Fatalf("AnalyzeWhatIf: %v", err)
	}
	if want := []string{"b"}; !reflect.DeepEqual(imp.ChangedIDs, want) {
		t.Errorf("ChangedIDs = %v, want %v", imp.ChangedIDs, want)
	}
}

func TestAnalyzeWhatIfUnknownIDs(t *testing.T) {
	a := NewAnalyzer(buildCascadeGraph(t))

	imp, err := a.AnalyzeWhatIf(context.Background(), []string{"b", "ghost"})
	if err != nil {
		t.Fatalf("AnalyzeWhatIf: %v", err)
	}
	if want := []string{"b"}; !reflect.DeepEqual(imp.KnownIDs, want) {
		t.Errorf("KnownIDs = %v, want %v", imp.KnownIDs, want)
	}
	wantNodes := []string{"b", "c", "d"}
	if !reflect.DeepEqual(imp.BlastRadiusNodes, wantNodes) {
		t.Errorf("BlastRadiusNodes = %v, want %v", imp.BlastRadiusNodes, wantNodes)
	}
}

func TestAnalyzeWhatIfAllUnknown(t *testing.T) {
	a := NewAnalyzer(buildCascadeGraph(t))

	imp, err := a.AnalyzeWhatIf(context.Background(), []string{"ghost", "phantom"})
	if err != nil {
		t.Fatalf("AnalyzeWhatIf: %v", err)
	}
	if len(imp.KnownIDs) != 0 || len(imp.BlastRadiusNodes) != 0 || len(imp.BlastRadiusEdges) != 0 {
		t.Errorf("expected empty result, got %+v", imp)
	}
}

func TestAnalyzeWhatIfHotspots(t *testing.T) {
	// Three changed services all feed shared-db; its fan-in within the
	// radius is 3 and it must surface as a hotspot.
	b := graph.NewBuilder()
	for _, id := range []string{"api", "worker", "billing", "shared-db"} {
		if err := b.AddNode(graph.Node{ID: id, Name: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for _, src := range []string{"api", "worker", "billing"} {
		if err := b.AddEdge(graph.Edge{SourceID: src, TargetID: "shared-db", Kind: graph.EdgeKindHTTP}); err != nil {
			t.Fatalf("AddEdge(%q): %v", src, err)
		}
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	a := NewAnalyzer(g)
	imp, err := a.AnalyzeWhatIf(context.Background(), []string{"api", "worker", "billing"})
	if err != nil {
		t.Fatalf("AnalyzeWhatIf: %v", err)
	}
	if want := []string{"shared-db"}; !reflect.DeepEqual(imp.RiskHotspots, want) {
		t.Errorf("RiskHotspots = %v, want %v", imp.RiskHotspots, want)
	}
}

func TestAnalyzeWhatIfEdgeRestriction(t *testing.T) {
	// x -> y exists but x is outside the radius of changing c, so the
	// edge must not appear even though y is also outside. Changing b
	// must not pull in a -> b either: a is in nobody's radius.
	b := graph.NewBuilder()
	for _, id := range []string{"a", "b", "c", "x", "y"} {
		if err := b.AddNode(graph.Node{ID: id, Name: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	edges := []graph.Edge{
		{SourceID: "a", TargetID: "b", Kind: graph.EdgeKindHTTP},
		{SourceID: "b", TargetID: "c", Kind: graph.EdgeKindHTTP},
		{SourceID: "x", TargetID: "y", Kind: graph.EdgeKindHTTP},
	}
	for _, e := range edges {
		if err := b.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	a := NewAnalyzer(g)
	imp, err := a.AnalyzeWhatIf(context.Background(), []string{"b"})
	if err != nil {
		t.Fatalf("AnalyzeWhatIf: %v", err)
	}
	if len(imp.BlastRadiusEdges) != 1 {
		t.Fatalf("BlastRadiusEdges = %v, want exactly b->c", imp.BlastRadiusEdges)
	}
	e := imp.BlastRadiusEdges[0]
	if e.SourceID != "b" || e.TargetID != "c" {
		t.Errorf("edge = %s->%s, want b->c", e.SourceID, e.TargetID)
	}
}

func TestAnalyzerHotspotOptions(t *testing.T) {
	a := NewAnalyzer(buildCascadeGraph(t), WithHotspotThreshold(1))

	imp, err := a.AnalyzeError(context.Background(), "a")
	if err != nil {
		t.Fatalf("AnalyzeError: %v", err)
	}
	// With threshold 1 every node with any fan-in inside the radius
	// qualifies: b, c and d each have one in-edge.
	if len(imp.RiskHotspots) != 3 {
		t.Errorf("RiskHotspots = %v, want 3 entries at threshold 1", imp.RiskHotspots)
	}
}
