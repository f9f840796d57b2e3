package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rplryan/x402-routenet/pkg/routing"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "x402 RouteNet",
		"version":     s.version,
		"description": "Smart routing infrastructure for the x402 ecosystem",
		"endpoints": gin.H{
			"POST /route":        "Route a capability request to the best x402 service",
			"GET /simulate":      "Dry-run routing decision",
			"GET /strategies":    "List available routing strategies",
			"GET /routes/recent": "Recent routing decisions",
			"GET /health":        "Service health",
			"POST /smithery":     "MCP JSON-RPC 2.0 endpoint",
		},
		"discovery_api": s.cfg.Discovery.APIURL,
		"github":        "https://github.com/rplryan/x402-routenet",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	var processed int64
	if s.history != nil {
		if err := s.history.HealthCheck(c.Request.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("route store health check failed")
			status = "degraded"
		}
		if n, err := s.history.CountRoutes(c.Request.Context()); err == nil {
			processed = n
		}
	}

	var wallet any
	if s.cfg.Pricing.Wallet != "" {
		wallet = s.cfg.Pricing.Wallet
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"version":       s.version,
		"discovery_api": s.cfg.Discovery.APIURL,
		"pricing_model": gin.H{
			"version":              3,
			"flat_routing_fee_usd": routing.RoutingFeeUSD,
			"settlement_pct":       routing.SettlementPct * 100,
			"collection_enabled":   s.cfg.Pricing.Wallet != "",
			"wallet":               wallet,
		},
		"routes_processed": processed,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRoute makes a full routing decision. The decision is returned with
// execution mode "simulation"; actual x402 payment calls come in v2.
func (s *Server) handleRoute(c *gin.Context) {
	var req routing.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	decision, err := s.engine.Route(c.Request.Context(), &req)
	if err != nil {
		s.writeRouteError(c, &req, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// writeRouteError maps the routing error taxonomy onto HTTP statuses.
// Caller errors are 400, empty outcomes 404; nothing maps to 5xx.
func (s *Server) writeRouteError(c *gin.Context, req *routing.RouteRequest, err error) {
	var re *routing.RouteError
	if !errors.As(err, &re) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	switch re.Class {
	case routing.ErrorClassUnknownStrategy:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    re.Message,
			"strategy": re.Strategy,
		})
	case routing.ErrorClassNoEligible:
		var filter any
		if req != nil && req.Filter != nil {
			filter = req.Filter
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error":              re.Message,
			"candidates_checked": re.CandidatesChecked,
			"strategy":           re.Strategy,
			"filter":             filter,
		})
	default:
		c.JSON(http.StatusNotFound, gin.H{
			"error":      re.Message,
			"capability": re.Capability,
		})
	}
}

// handleSimulate runs a dry-run routing decision: which service would be
// selected and why, without executing anything.
func (s *Server) handleSimulate(c *gin.Context) {
	capability := c.Query("capability")
	if capability == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "capability query parameter is required"})
		return
	}
	strategy := routing.Strategy(c.DefaultQuery("strategy", string(routing.StrategyBest)))

	sim, err := s.engine.Simulate(c.Request.Context(), capability, strategy)
	if err != nil {
		if routing.IsUnknownStrategy(err) {
			var re *routing.RouteError
			errors.As(err, &re)
			c.JSON(http.StatusBadRequest, gin.H{"error": re.Message, "strategy": strategy})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "No services found for: " + strconv.Quote(capability)})
		return
	}
	c.JSON(http.StatusOK, sim)
}

func (s *Server) handleStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"strategies": routing.Strategies(),
		"default":    routing.StrategyBest,
		"pricing_model": gin.H{
			"version":              3,
			"description":          "Flat routing fee + settlement percentage",
			"flat_routing_fee_usd": routing.RoutingFeeUSD,
			"settlement_pct":       routing.SettlementPct * 100,
			"note":                 "exact values subject to change before v2 launch",
		},
	})
}

func (s *Server) handleRecentRoutes(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	routes := []routing.RouteRecord{}
	if s.history != nil {
		recs, err := s.history.RecentRoutes(c.Request.Context(), limit)
		if err != nil {
			s.logger.Warn().Err(err).Msg("recent routes query failed")
		} else {
			routes = recs
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(routes),
		"routes": routes,
	})
}
