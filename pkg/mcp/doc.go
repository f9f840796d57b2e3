// Package mcp exposes the RouteNet decision engine to agent frameworks
// over MCP (JSON-RPC 2.0). It implements the initialize lifecycle, three
// tools (routenet_route, routenet_simulate, routenet_strategies), and the
// prompt and resource catalogs.
package mcp
