// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package topology

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all topology routes with the router.
//
// Description:
//
//	Registers the /v1/topology/* endpoints with the given Gin router
//	group plus the root-level health probes. The router group should
//	already have any required middleware applied.
//
// Endpoints:
//
//	POST /v1/topology/analyze/error - Error propagation analysis
//	POST /v1/topology/analyze/whatif - What-if blast radius analysis
//	GET  /v1/topology/graph - Visualization-ready graph export
//	POST /v1/topology/reload - Force a topology reload
//
// Probes:
//
//	GET /health - Liveness
//	GET /ready - Readiness (requires a live snapshot)
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	v1 := router.Group("/v1/topology")
	{
		v1.POST("/analyze/error", h.HandleAnalyzeError)
		v1.POST("/analyze/whatif", h.HandleAnalyzeWhatIf)
		v1.GET("/graph", h.HandleGraphExport)
		v1.POST("/reload", h.HandleReload)
	}

	router.GET("/health", h.HandleHealth)
	router.GET("/ready", h.HandleReady)
}
