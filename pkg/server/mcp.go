package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rplryan/x402-routenet/pkg/mcp"
)

// handleMCP serves the Smithery-compatible MCP JSON-RPC 2.0 endpoint.
// Notifications get a 204 with no body.
func (s *Server) handleMCP(c *gin.Context) {
	var req mcp.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON-RPC request: " + err.Error()})
		return
	}

	resp := s.mcp.Handle(c.Request.Context(), &req)
	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleMCPInfo answers GET probes with MCP server info.
func (s *Server) handleMCPInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.mcp.ServerInfo())
}
