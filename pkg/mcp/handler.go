package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rplryan/x402-routenet/pkg/routing"
)

// Handler serves MCP JSON-RPC 2.0 requests against the decision engine.
type Handler struct {
	engine  *routing.Engine
	version string
	logger  zerolog.Logger
}

// NewHandler creates an MCP handler over a decision engine.
func NewHandler(engine *routing.Engine, version string, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:  engine,
		version: version,
		logger:  logger.With().Str("component", "mcp").Logger(),
	}
}

// ServerInfo returns the info payload served on GET requests.
func (h *Handler) ServerInfo() map[string]any {
	return map[string]any{
		"name":        "x402-routenet",
		"version":     h.version,
		"description": "Smart routing infrastructure for x402 services",
		"tools":       []string{"routenet_route", "routenet_simulate", "routenet_strategies"},
		"mcp_url":     "/smithery",
	}
}

// Handle processes one JSON-RPC request. The returned response is nil for
// notifications, which expect no reply.
func (h *Handler) Handle(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return h.ok(req, map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"prompts":   map[string]any{},
				"resources": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    "x402-routenet",
				"version": h.version,
			},
		})

	case "notifications/initialized":
		return nil

	case "tools/list":
		return h.ok(req, map[string]any{"tools": toolCatalog()})

	case "tools/call":
		return h.callTool(ctx, req)

	case "prompts/list":
		return h.ok(req, map[string]any{"prompts": promptCatalog()})

	case "prompts/get":
		return h.getPrompt(req)

	case "resources/list":
		return h.ok(req, map[string]any{"resources": []Resource{
			{
				URI:         "routenet://strategies",
				Name:        "Routing Strategies",
				Description: "All routing strategies with formulas",
				MimeType:    "application/json",
			},
			{
				URI:         "routenet://pricing",
				Name:        "Pricing Model 3",
				Description: "Fee structure: $0.0002 flat + 0.5% settlement",
				MimeType:    "application/json",
			},
		}})

	case "resources/read":
		return h.readResource(req)

	default:
		return h.err(req, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

// toolCallParams is the params shape of tools/call.
type toolCallParams struct {
	Name      string   `json:"name"`
	Arguments toolArgs `json:"arguments"`
}

// toolArgs is the union of every tool's arguments.
type toolArgs struct {
	Capability string           `json:"capability"`
	Strategy   routing.Strategy `json:"strategy"`
	MaxPrice   *float64         `json:"max_price"`
	Category   string           `json:"category"`
	MinUptime  *float64         `json:"min_uptime"`
}

func (h *Handler) callTool(ctx context.Context, req *Request) *Response {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return h.err(req, CodeInvalidParams, "invalid tools/call params")
	}

	switch params.Name {
	case "routenet_route":
		return h.toolRoute(ctx, req, params.Arguments)
	case "routenet_simulate":
		return h.toolSimulate(ctx, req, params.Arguments)
	case "routenet_strategies":
		return h.toolStrategies(req)
	default:
		return h.err(req, CodeMethodNotFound, fmt.Sprintf("Unknown tool: %s", params.Name))
	}
}

func (h *Handler) toolRoute(ctx context.Context, req *Request, args toolArgs) *Response {
	if args.Capability == "" {
		return h.err(req, CodeInvalidParams, "'capability' is required")
	}

	var filter *routing.RouteFilter
	if args.MaxPrice != nil || args.Category != "" || args.MinUptime != nil {
		filter = &routing.RouteFilter{
			MaxPrice:  args.MaxPrice,
			Category:  args.Category,
			MinUptime: args.MinUptime,
		}
	}

	decision, err := h.engine.Route(ctx, &routing.RouteRequest{
		Capability: args.Capability,
		Strategy:   args.Strategy,
		Filter:     filter,
	})
	if err != nil {
		// Routing failures are tool output, not protocol errors.
		return h.okText(req, routeErrorMessage(err))
	}

	result := map[string]any{
		"routed_to":       decision.RoutedTo,
		"service_url":     decision.ServiceURL,
		"strategy_used":   decision.StrategyUsed,
		"execution_mode":  decision.ExecutionMode,
		"routing_reason":  decision.RoutingReason,
		"cost_breakdown":  decision.Cost,
		"quality_signals": decision.Quality,
	}
	return h.okJSON(req, result)
}

func (h *Handler) toolSimulate(ctx context.Context, req *Request, args toolArgs) *Response {
	if args.Capability == "" {
		return h.err(req, CodeInvalidParams, "'capability' is required")
	}

	sim, err := h.engine.Simulate(ctx, args.Capability, args.Strategy)
	if err != nil {
		return h.okText(req, routeErrorMessage(err))
	}
	return h.okJSON(req, sim)
}

func (h *Handler) toolStrategies(req *Request) *Response {
	result := map[string]any{
		"strategies": routing.Strategies(),
		"default":    routing.DefaultStrategy,
		"pricing_model": map[string]any{
			"version":              3,
			"flat_routing_fee_usd": routing.RoutingFeeUSD,
			"settlement_pct":       routing.SettlementPct * 100,
		},
	}
	return h.okJSON(req, result)
}

func (h *Handler) getPrompt(req *Request) *Response {
	var params struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return h.err(req, CodeInvalidParams, "invalid prompts/get params")
	}

	switch params.Name {
	case "route_capability_request":
		return h.ok(req, map[string]any{
			"description": "Route a capability request",
			"messages": []PromptMessage{{
				Role: "user",
				Content: Content{
					Type: "text",
					Text: "What x402 service do you need? (e.g. 'web scraping', 'LLM inference', 'image generation') Describe it and I'll find the best service.",
				},
			}},
		})
	case "compare_routing_strategies":
		return h.ok(req, map[string]any{
			"description": "Compare strategies",
			"messages": []PromptMessage{{
				Role: "user",
				Content: Content{
					Type: "text",
					Text: "What capability do you want to compare strategies for? I'll show you best vs cheapest vs fastest routing decisions.",
				},
			}},
		})
	default:
		return h.err(req, CodeInvalidParams, fmt.Sprintf("Unknown prompt: %s", params.Name))
	}
}

func (h *Handler) readResource(req *Request) *Response {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return h.err(req, CodeInvalidParams, "invalid resources/read params")
	}

	switch params.URI {
	case "routenet://strategies":
		text, _ := json.Marshal(routing.Strategies())
		return h.ok(req, map[string]any{
			"contents": []ResourceContent{{
				URI:      params.URI,
				MimeType: "application/json",
				Text:     string(text),
			}},
		})
	case "routenet://pricing":
		text, _ := json.Marshal(map[string]any{
			"model":                3,
			"flat_routing_fee_usd": routing.RoutingFeeUSD,
			"settlement_pct":       routing.SettlementPct * 100,
		})
		return h.ok(req, map[string]any{
			"contents": []ResourceContent{{
				URI:      params.URI,
				MimeType: "application/json",
				Text:     string(text),
			}},
		})
	default:
		return h.err(req, CodeInvalidParams, fmt.Sprintf("Unknown resource: %s", params.URI))
	}
}

func (h *Handler) ok(req *Request, result any) *Response {
	if req.IsNotification() {
		return nil
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

// okJSON wraps a result as a single pretty-printed text content block.
func (h *Handler) okJSON(req *Request, result any) *Response {
	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return h.err(req, CodeInvalidParams, "failed to encode result")
	}
	return h.okText(req, string(text))
}

func (h *Handler) okText(req *Request, text string) *Response {
	return h.ok(req, ToolResult{Content: []Content{{Type: "text", Text: text}}})
}

func (h *Handler) err(req *Request, code int, message string) *Response {
	if req.IsNotification() {
		return nil
	}
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Error:   &ResponseError{Code: code, Message: message},
	}
}

// routeErrorMessage extracts the human-readable message from a routing
// failure for tool output.
func routeErrorMessage(err error) string {
	var re *routing.RouteError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
