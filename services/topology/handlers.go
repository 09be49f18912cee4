// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package topology

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handlers contains the HTTP handlers for the topology service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleAnalyzeError handles POST /v1/topology/analyze/error.
//
// Description:
//
//	Resolves the request to an origin service and returns the full
//	downstream error cascade with risk hotspots.
//
// Request Body:
//
//	ErrorAnalysisRequest
//
// Response:
//
//	200 OK: impact.ErrorAnalysisResult (origin_found=false when the
//	        origin is not in the topology)
//	400 Bad Request: Validation error
//	404 Not Found: Log text matched no service
//	503 Service Unavailable: No snapshot loaded yet
func (h *Handlers) HandleAnalyzeError(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyzeError")

	var req ErrorAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	resp, err := h.svc.AnalyzeError(c.Request.Context(), &req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "ANALYSIS_FAILED"

		if errors.Is(err, ErrNoOrigin) {
			statusCode = http.StatusBadRequest
			errCode = "NO_ORIGIN"
		} else if errors.Is(err, ErrOriginUnresolved) {
			statusCode = http.StatusNotFound
			errCode = "ORIGIN_UNRESOLVED"
		} else if errors.Is(err, ErrSnapshotNotLoaded) {
			statusCode = http.StatusServiceUnavailable
			errCode = "SNAPSHOT_NOT_LOADED"
		}

		logger.Error("Error analysis failed", "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("Error analysis complete",
		"origin", resp.SourceNode,
		"origin_found", resp.OriginFound,
		"affected_nodes", len(resp.AffectedNodes),
		"risk_hotspots", len(resp.RiskHotspotNodes))

	c.JSON(http.StatusOK, resp)
}

// HandleAnalyzeWhatIf handles POST /v1/topology/analyze/whatif.
//
// Request Body:
//
//	WhatIfRequest
//
// Response:
//
//	200 OK: impact.WhatIfAnalysisResult
//	400 Bad Request: Validation error
//	503 Service Unavailable: No snapshot loaded yet
func (h *Handlers) HandleAnalyzeWhatIf(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyzeWhatIf")

	var req WhatIfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	resp, err := h.svc.AnalyzeWhatIf(c.Request.Context(), &req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "ANALYSIS_FAILED"

		if errors.Is(err, ErrSnapshotNotLoaded) {
			statusCode = http.StatusServiceUnavailable
			errCode = "SNAPSHOT_NOT_LOADED"
		}

		logger.Error("What-if analysis failed", "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("What-if analysis complete",
		"changed", len(resp.ChangedServiceIDs),
		"blast_radius", len(resp.BlastRadiusNodes),
		"risk_hotspots", len(resp.RiskHotspotNodes))

	c.JSON(http.StatusOK, resp)
}

// HandleGraphExport handles GET /v1/topology/graph.
//
// Query Parameters:
//
//	repos - Optional comma-separated repo or group filter.
//
// Response:
//
//	200 OK: graph.ExportedGraph
//	503 Service Unavailable: No snapshot loaded yet
func (h *Handlers) HandleGraphExport(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGraphExport")

	var repos []string
	if raw := c.Query("repos"); raw != "" {
		for _, r := range strings.Split(raw, ",") {
			if r = strings.TrimSpace(r); r != "" {
				repos = append(repos, r)
			}
		}
	}

	exported, err := h.svc.Export(repos...)
	if err != nil {
		logger.Error("Graph export failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: err.Error(),
			Code:  "SNAPSHOT_NOT_LOADED",
		})
		return
	}

	logger.Info("Graph exported",
		"nodes", len(exported.Nodes),
		"links", len(exported.Links),
		"repos_filter", len(repos))

	c.JSON(http.StatusOK, exported)
}

// HandleReload handles POST /v1/topology/reload.
//
// Response:
//
//	200 OK: ReloadResponse
//	500 Internal Server Error: Load or validation failure (the previous
//	    snapshot stays live)
func (h *Handlers) HandleReload(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleReload")

	start := time.Now()
	g, err := h.svc.Reload(c.Request.Context())
	if err != nil {
		logger.Error("Reload failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "RELOAD_FAILED",
		})
		return
	}

	logger.Info("Topology reloaded", "nodes", g.NodeCount(), "edges", g.EdgeCount())

	c.JSON(http.StatusOK, ReloadResponse{
		Nodes:      g.NodeCount(),
		Edges:      g.EdgeCount(),
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /ready.
//
// Readiness requires a live snapshot: a topology service with nothing
// loaded can answer health checks but not queries.
func (h *Handlers) HandleReady(c *gin.Context) {
	g, err := h.svc.Snapshot()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: err.Error(),
			Code:  "SNAPSHOT_NOT_LOADED",
		})
		return
	}
	c.JSON(http.StatusOK, ReadyResponse{
		Status:       "ready",
		Nodes:        g.NodeCount(),
		Edges:        g.EdgeCount(),
		BuiltAtMilli: g.BuiltAtMilli,
	})
}

// getOrCreateRequestID returns the X-Request-ID header, generating one
// when absent, and echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
