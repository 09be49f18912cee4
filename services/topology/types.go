// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package topology

// ServiceVersion is the topology service version.
const ServiceVersion = "0.1.0"

// ErrorAnalysisRequest is the request body for POST /v1/topology/analyze/error.
//
// Exactly one of OriginNodeID or LogText should be set. When both are
// present the explicit id wins and the log text is ignored.
type ErrorAnalysisRequest struct {
	// OriginNodeID names the failing service directly.
	OriginNodeID string `json:"origin_node_id"`

	// LogText is a free-form log excerpt to resolve to a service.
	LogText string `json:"log_text"`
}

// WhatIfRequest is the request body for POST /v1/topology/analyze/whatif.
type WhatIfRequest struct {
	// ChangedNodeIDs names the services under proposed change.
	ChangedNodeIDs []string `json:"changed_node_ids" binding:"required,min=1"`
}

// ErrorResponse is the standard error response shape.
type ErrorResponse struct {
	// Error is a human-readable message.
	Error string `json:"error"`

	// Code is a machine-readable error code.
	Code string `json:"code"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is returned by GET /ready once a snapshot is live.
type ReadyResponse struct {
	Status       string `json:"status"`
	Nodes        int    `json:"nodes"`
	Edges        int    `json:"edges"`
	BuiltAtMilli int64  `json:"built_at_milli"`
}

// ReloadResponse is returned by POST /v1/topology/reload.
type ReloadResponse struct {
	Nodes      int   `json:"nodes"`
	Edges      int   `json:"edges"`
	DurationMs int64 `json:"duration_ms"`
}
