// Package server exposes the routing decision engine over HTTP.
//
// The server carries the public REST surface (route, simulate, strategies,
// recent routes, health) plus the MCP JSON-RPC endpoint for agent
// frameworks and a Prometheus metrics endpoint. Handlers translate the
// routing error taxonomy into HTTP statuses; upstream Discovery API
// failures never surface as 5xx responses.
package server
