/*
Package monitoring provides Prometheus-based metrics for the bridge.

# Overview

Tracks dispatched filesystem requests (count, duration, failure kind),
watch subscriptions and change notifications, HTTP traffic on the server
surface, and WebSocket connections.

# Usage

	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record a dispatched request
	metrics.RecordRequest("filesystem/stat", "ok", duration)

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
