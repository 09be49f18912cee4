// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command graphd starts the AppLens topology API server.
//
// graphd serves dependency-impact analysis over a scanned microservice
// topology:
//   - Error propagation: which services a failure can cascade into
//   - What-if blast radius: what breaks if a set of services changes
//   - Risk hotspots: structurally exposed services inside a radius
//   - Graph export for the dependency visualization
//
// Usage:
//
//	go run ./cmd/graphd -topology ./topology.json
//	go run ./cmd/graphd -topology ./topology.json -port 9090
//
// With LLM origin resolution (maps raw log text to a service):
//
//	OPENAI_API_KEY=sk-... go run ./cmd/graphd -topology ./topology.json
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/health
//
//	# Error propagation from a known service
//	curl -X POST http://localhost:8080/v1/topology/analyze/error \
//	  -H "Content-Type: application/json" \
//	  -d '{"origin_node_id": "order-service"}'
//
//	# What-if blast radius
//	curl -X POST http://localhost:8080/v1/topology/analyze/whatif \
//	  -H "Content-Type: application/json" \
//	  -d '{"changed_node_ids": ["user-service", "billing-service"]}'
//
//	# Visualization graph
//	curl http://localhost:8080/v1/topology/graph | jq
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/AppLensAI/AppLens/pkg/logging"
	"github.com/AppLensAI/AppLens/services/topology"
	"github.com/AppLensAI/AppLens/services/topology/graph"
	"github.com/AppLensAI/AppLens/services/topology/observability"
	"github.com/AppLensAI/AppLens/services/topology/resolve"
	"github.com/AppLensAI/AppLens/services/topology/telemetry"
)

func main() {
	port := flag.Int("port", envInt("GRAPHD_PORT", 8080), "Port to listen on")
	topologyFile := flag.String("topology", os.Getenv("TOPOLOGY_FILE"), "Path to the topology JSON file")
	logDir := flag.String("log-dir", os.Getenv("GRAPHD_LOG_DIR"), "Directory for JSON log files (optional)")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	level := logging.LevelInfo
	if *debug {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  *logDir,
		Service: "graphd",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	if *topologyFile == "" {
		slog.Error("No topology file configured; set -topology or TOPOLOGY_FILE")
		os.Exit(1)
	}

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.DefaultConfig())
	if err != nil {
		slog.Warn("Telemetry disabled", "error", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("Telemetry shutdown incomplete", "error", err)
		}
	}()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	svc := topology.NewService(*topologyFile,
		topology.WithMetrics(metrics),
		topology.WithResolverFactory(resolverFactory()),
	)
	if _, err := svc.Reload(ctx); err != nil {
		// Start degraded: /ready stays 503 until a successful reload.
		slog.Warn("Initial topology load failed, serving degraded", "error", err)
	}

	watcher, err := topology.NewTopologyWatcher(svc, *topologyFile)
	if err != nil {
		slog.Error("Failed to create topology watcher", "error", err)
		os.Exit(1)
	}
	if err := watcher.Start(ctx); err != nil {
		slog.Warn("Topology watcher not started; use POST /v1/topology/reload", "error", err)
	}
	defer watcher.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("graphd"))
	if *debug {
		router.Use(gin.Logger())
	}

	handlers := topology.NewHandlers(svc)
	topology.RegisterRoutes(router, handlers)

	if mh := telemetry.MetricsHandler(); mh != nil {
		router.GET("/metrics", gin.WrapH(mh))
	}

	printBanner(*port, *topologyFile)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting graphd server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down graphd server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

// resolverFactory picks the origin resolver built on each snapshot
// swap: the OpenAI resolver when an API key is configured, otherwise
// the lexical index. Both validate against the snapshot's id set.
func resolverFactory() topology.ResolverFactory {
	return func(g *graph.Graph) resolve.Resolver {
		index := resolve.NewIndexResolver(g)
		if os.Getenv("OPENAI_API_KEY") == "" {
			return index
		}
		r, err := resolve.NewOpenAIResolver(index)
		if err != nil {
			slog.Warn("OpenAI resolver unavailable, using lexical index", "error", err)
			return index
		}
		slog.Info("OpenAI origin resolver enabled")
		return r
	}
}

// envInt reads an integer environment variable with a fallback.
func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func printBanner(port int, topologyFile string) {
	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                       APPLENS GRAPHD SERVER                       ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Dependency-impact analysis over your service topology.           ║
║  Topology: %-54s ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/health                           │  ║
║  │                                                             │  ║
║  │ # Error propagation from a service                          │  ║
║  │ curl -X POST \                                              │  ║
║  │   http://localhost:%d/v1/topology/analyze/error \         │  ║
║  │   -d '{"origin_node_id": "order-service"}'                  │  ║
║  │                                                             │  ║
║  │ # What-if blast radius                                      │  ║
║  │ curl -X POST \                                              │  ║
║  │   http://localhost:%d/v1/topology/analyze/whatif \        │  ║
║  │   -d '{"changed_node_ids": ["user-service"]}'               │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── POST /v1/topology/analyze/error                              ║
║  ├── POST /v1/topology/analyze/whatif                             ║
║  ├── GET  /v1/topology/graph                                      ║
║  ├── POST /v1/topology/reload                                     ║
║  └── GET  /metrics, /health, /ready                               ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, topologyFile, port, port, port)
}
