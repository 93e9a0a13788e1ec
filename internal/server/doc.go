// Package server exposes the filesystem bridge over HTTP.
//
// It wires the middleware stack (CORS, rate limiting, recovery, metrics)
// onto a Gin router and upgrades clients on /fs to the WebSocket-carried
// protocol, one rpc connection and one notification channel per client.
// /health and /metrics serve liveness and Prometheus scraping.
package server
