// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolve

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/AppLensAI/AppLens/services/topology/graph"
)

var (
	namePrefixRe = regexp.MustCompile(`^(service-|svc-)`)
	nameSuffixRe = regexp.MustCompile(`(-service|-svc)$`)
	tokenSplitRe = regexp.MustCompile(`[^a-z0-9_-]+`)
)

// NormalizeServiceName reduces a service name to its comparable base
// form: lowercase, underscores to hyphens, and the conventional
// service-/svc- prefixes and -service/-svc suffixes stripped.
//
// Example:
//
//	NormalizeServiceName("Payment_Service") // "payment-service" -> "payment"
func NormalizeServiceName(name string) string {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	n = namePrefixRe.ReplaceAllString(n, "")
	n = nameSuffixRe.ReplaceAllString(n, "")
	return n
}

// IndexResolver resolves text against the snapshot's own id set with
// purely lexical rules. It is deterministic, needs no network, and is
// the fallback behind any smarter resolver.
type IndexResolver struct {
	// ids holds canonical snapshot ids, sorted, so ties between several
	// plausible matches always break the same way.
	ids []string

	// byNormalized maps the normalized base form back to the shortest
	// canonical id carrying it.
	byNormalized map[string]string

	idSet map[string]bool
}

// NewIndexResolver builds a lexical resolver over the snapshot's nodes.
func NewIndexResolver(g *graph.Graph) *IndexResolver {
	ids := g.NodeIDs()
	sort.Strings(ids)

	r := &IndexResolver{
		ids:          ids,
		byNormalized: make(map[string]string, len(ids)),
		idSet:        make(map[string]bool, len(ids)),
	}
	for _, id := range ids {
		r.idSet[id] = true
		base := NormalizeServiceName(id)
		if base == "" {
			continue
		}
		// First writer wins; ids are sorted so this is stable.
		if _, ok := r.byNormalized[base]; !ok {
			r.byNormalized[base] = id
		}
	}
	return r
}

// IDs returns the candidate id set the resolver was built over.
func (r *IndexResolver) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Resolve maps text to a snapshot id.
//
// Description:
//
//	Tries the whole text as an id first, then scans word tokens. Each
//	candidate is tried in order of decreasing strictness: exact id,
//	normalized base form, plural-to-singular, then substring overlap
//	with a base form ("orders" matching "order-service"). The first
//	hit wins; token order in the text decides between tokens, sorted
//	id order decides between services.
//
// Outputs:
//
//	The canonical id, or ErrNoMatch when nothing in the snapshot fits.
func (r *IndexResolver) Resolve(_ context.Context, text string) (string, error) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return "", ErrNoMatch
	}

	if id, ok := r.lookup(lowered); ok {
		return id, nil
	}
	for _, token := range tokenSplitRe.Split(lowered, -1) {
		if len(token) < 2 {
			continue
		}
		if id, ok := r.lookup(token); ok {
			return id, nil
		}
	}
	return "", ErrNoMatch
}

func (r *IndexResolver) lookup(candidate string) (string, bool) {
	candidate = strings.ReplaceAll(candidate, "_", "-")
	if r.idSet[candidate] {
		return candidate, true
	}

	base := NormalizeServiceName(candidate)
	if base == "" {
		return "", false
	}
	if id, ok := r.byNormalized[base]; ok {
		return id, true
	}

	// Plural tokens frequently name singular services: "orders" for the
	// order service.
	if strings.HasSuffix(base, "s") && len(base) > 1 {
		if id, ok := r.byNormalized[base[:len(base)-1]]; ok {
			return id, true
		}
	}

	// Last resort: substring overlap against each base form, in sorted
	// id order.
	for _, id := range r.ids {
		idBase := NormalizeServiceName(id)
		if idBase == "" {
			continue
		}
		if strings.Contains(idBase, base) || strings.Contains(base, idBase) {
			return id, true
		}
	}
	return "", false
}
