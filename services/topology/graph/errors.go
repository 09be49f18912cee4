// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import "errors"

// Sentinel errors for graph construction.
//
// These only surface at build time; a frozen Graph can never fail
// mid-query because every query is pure math over validated data.
var (
	// ErrDanglingEdge indicates an edge references a node id that was
	// never added to the builder.
	ErrDanglingEdge = errors.New("edge references unknown node")

	// ErrEmptyNodeID indicates a node was added with a blank id.
	ErrEmptyNodeID = errors.New("node id must not be empty")

	// ErrEmptyEndpoint indicates an edge was added with a blank endpoint.
	ErrEmptyEndpoint = errors.New("edge endpoints must not be empty")
)
