// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package impact

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/AppLensAI/AppLens/services/topology/graph"
)

func TestEdgeKey(t *testing.T) {
	tests := []struct {
		source, target string
		want           string
	}{
		{"a", "b", "a-b"},
		{"B", "A", "b-a"},
		{" Payments ", "Ledger", "payments-ledger"},
	}
	for _, tt := range tests {
		if got := EdgeKey(tt.source, tt.target); got != tt.want {
			t.Errorf("EdgeKey(%q, %q) = %q, want %q", tt.source, tt.target, got, tt.want)
		}
	}
}

func TestMatchEdgeKey(t *testing.T) {
	tests := []struct {
		name              string
		key               string
		source, target    string
		directionAgnostic bool
		want              bool
	}{
		{"forward", "a-b", "a", "b", false, true},
		{"reverse rejected when directional", "b-a", "a", "b", false, false},
		{"reverse matches when agnostic", "b-a", "a", "b", true, true},
		{"forward still matches when agnostic", "a-b", "a", "b", true, true},
		{"unrelated", "c-d", "a", "b", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEdgeKey(tt.key, tt.source, tt.target, tt.directionAgnostic)
			if got != tt.want {
				t.Errorf("MatchEdgeKey(%q, %q, %q, %v) = %v, want %v",
					tt.key, tt.source, tt.target, tt.directionAgnostic, got, tt.want)
			}
		})
	}
}

func TestAssembleError(t *testing.T) {
	imp := &ErrorImpact{
		Origin:      "a",
		OriginFound: true,
		AffectedNodes: []string{
			"a", "b", "c",
		},
		AffectedEdges: []*graph.Edge{
			{SourceID: "a", TargetID: "b", Kind: graph.EdgeKindHTTP},
			{SourceID: "b", TargetID: "c", Kind: graph.EdgeKindKafka},
		},
		RiskHotspots: []string{"b"},
	}

	res := AssembleError(imp)
	if res.SourceNode != "a" || !res.OriginFound {
		t.Errorf("header fields = (%q, %v), want (a, true)", res.SourceNode, res.OriginFound)
	}
	wantEdges := []EdgeRef{
		{Source: "a", Target: "b", Kind: "HTTP"},
		{Source: "b", Target: "c", Kind: "KAFKA"},
	}
	if !reflect.DeepEqual(res.AffectedEdges, wantEdges) {
		t.Errorf("AffectedEdges = %v, want %v", res.AffectedEdges, wantEdges)
	}

	// The result must be detached from the impact it was built from.
	res.AffectedNodes[0] = "mutated"
	if imp.AffectedNodes[0] != "a" {
		t.Error("assembled result shares backing storage with the impact")
	}
}

func TestAssembleErrorJSONContract(t *testing.T) {
	res := AssembleError(&ErrorImpact{
		Origin:        "a",
		OriginFound:   true,
		AffectedNodes: []string{"a"},
		AffectedEdges: []*graph.Edge{},
		RiskHotspots:  []string{},
	})
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	body := string(raw)
	for _, field := range []string{
		`"source_node"`, `"origin_found"`, `"affected_nodes"`,
		`"affected_edges"`, `"risk_hotspot_nodes"`,
	} {
		if !strings.Contains(body, field) {
			t.Errorf("serialized result missing field %s: %s", field, body)
		}
	}
	if strings.Contains(body, "null") {
		t.Errorf("empty collections must serialize as [], got %s", body)
	}
}

func TestAssembleWhatIf(t *testing.T) {
	imp := &WhatIfImpact{
		ChangedIDs:       []string{"a", "ghost"},
		KnownIDs:         []string{"a"},
		BlastRadiusNodes: []string{"a", "b"},
		BlastRadiusEdges: []*graph.Edge{
			{SourceID: "a", TargetID: "b", Kind: graph.EdgeKindHTTP},
		},
		RiskHotspots: []string{},
	}

	res := AssembleWhatIf(imp)
	if want := []string{"a", "ghost"}; !reflect.DeepEqual(res.ChangedServiceIDs, want) {
		t.Errorf("ChangedServiceIDs = %v, want %v", res.ChangedServiceIDs, want)
	}
	if want := []string{"ghost"}; !reflect.DeepEqual(res.UnknownServiceIDs, want) {
		t.Errorf("UnknownServiceIDs = %v, want %v", res.UnknownServiceIDs, want)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(res.BlastRadiusNodes, want) {
		t.Errorf("BlastRadiusNodes = %v, want %v", res.BlastRadiusNodes, want)
	}
}

func TestAssembleWhatIfJSONContract(t *testing.T) {
	res := AssembleWhatIf(&WhatIfImpact{
		ChangedIDs:       []string{"a"},
		KnownIDs:         []string{"a"},
		BlastRadiusNodes: []string{"a"},
		BlastRadiusEdges: []*graph.Edge{},
		RiskHotspots:     []string{},
	})
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	body := string(raw)
	for _, field := range []string{
		`"changed_service_ids"`, `"blast_radius_nodes"`,
		`"blast_radius_edges"`, `"risk_hotspot_nodes"`,
	} {
		if !strings.Contains(body, field) {
			t.Errorf("serialized result missing field %s: %s", field, body)
		}
	}
	// No unknown ids: the field is omitted entirely.
	if strings.Contains(body, "unknown_service_ids") {
		t.Errorf("unknown_service_ids should be omitted when empty: %s", body)
	}
}

func TestEdgeRefsDeduplicate(t *testing.T) {
	imp := &ErrorImpact{
		Origin:        "a",
		OriginFound:   true,
		AffectedNodes: []string{"a", "b"},
		AffectedEdges: []*graph.Edge{
			{SourceID: "a", TargetID: "b", Kind: graph.EdgeKindHTTP},
			{SourceID: "a", TargetID: "b", Kind: graph.EdgeKindHTTP},
			{SourceID: "a", TargetID: "b", Kind: graph.EdgeKindKafka},
		},
		RiskHotspots: []string{},
	}
	res := AssembleError(imp)
	if len(res.AffectedEdges) != 2 {
		t.Errorf("AffectedEdges = %v, want http+kafka deduplicated to 2", res.AffectedEdges)
	}
}
