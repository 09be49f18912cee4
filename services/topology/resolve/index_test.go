// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/AppLensAI/AppLens/services/topology/graph"
)

func TestNormalizeServiceName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Payment_Service", "payment"},
		{"payment-service", "payment"},
		{"svc-auth", "auth"},
		{"service-orders", "orders"},
		{"billing-svc", "billing"},
		{"  Billing  ", "billing"},
		{"gateway", "gateway"},
	}
	for _, tt := range tests {
		if got := NormalizeServiceName(tt.in); got != tt.want {
			t.Errorf("NormalizeServiceName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func buildResolverGraph(t *testing.T) *graph.Graph {
	t.Helper()

	b := graph.NewBuilder()
	for _, id := range []string{"order-service", "payment-service", "user-service", "gateway"} {
		if err := b.AddNode(graph.Node{ID: id, Name: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestIndexResolver(t *testing.T) {
	r := NewIndexResolver(buildResolverGraph(t))
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"exact id", "order-service", "order-service"},
		{"case and whitespace", "  Order-Service  ", "order-service"},
		{"underscores", "order_service", "order-service"},
		{"normalized base", "order", "order-service"},
		{"plural token", "orders", "order-service"},
		{"plain id", "gateway", "gateway"},
		{"log line", "ERROR timeout calling payment-service after 3 retries", "payment-service"},
		{"log line with base form", "connection refused: payment upstream unavailable", "payment-service"},
		{"log line with plural", "failed to validate users", "user-service"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, tt.text)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIndexResolverNoMatch(t *testing.T) {
	r := NewIndexResolver(buildResolverGraph(t))

	for _, text := range []string{"", "   ", "zz qq xx"} {
		if _, err := r.Resolve(context.Background(), text); !errors.Is(err, ErrNoMatch) {
			t.Errorf("Resolve(%q) err = %v, want ErrNoMatch", text, err)
		}
	}
}

func TestIndexResolverDeterministicTieBreak(t *testing.T) {
	// Two services share the base form overlap "order"; the sorted-first
	// id must win every time.
	b := graph.NewBuilder()
	for _, id := range []string{"order-service", "preorder-service"} {
		if err := b.AddNode(graph.Node{ID: id, Name: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := NewIndexResolver(g)

	for i := 0; i < 10; i++ {
		got, err := r.Resolve(context.Background(), "order")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got != "order-service" {
			t.Fatalf("Resolve = %q, want order-service on every run", got)
		}
	}
}

func TestIndexResolverIDsDetached(t *testing.T) {
	r := NewIndexResolver(buildResolverGraph(t))

	ids := r.IDs()
	ids[0] = "mutated"
	if again := r.IDs(); again[0] == "mutated" {
		t.Error("IDs shares backing storage with the resolver")
	}
}
