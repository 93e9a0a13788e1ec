// Package main is the entry point for the filesystem bridge server.
//
// The server exposes URI-addressed filesystems over an asynchronous JSON
// protocol. A client issues filesystem/* requests (stat, readDirectory,
// readFile, writeFile, delete, rename, createDirectory, watch) and receives
// filesystem/onDidChangeFile notifications for locations it watches. File
// content crosses the wire base64-encoded.
//
// Transports:
//   - stdio: one client over newline-delimited JSON on stdin/stdout
//     (logs go to stderr so the protocol stream stays clean)
//   - ws: WebSocket endpoint at /fs, plus /health and /metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Serve a single client on stdin/stdout
//	./server -transport stdio
//
//	# Serve WebSocket clients
//	./server -transport ws -port 8000
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
