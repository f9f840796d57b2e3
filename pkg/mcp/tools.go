package mcp

// toolCatalog returns the static tool schemas advertised by tools/list.
func toolCatalog() []Tool {
	return []Tool{
		{
			Name:        "routenet_route",
			Description: "Route a capability request to the best available x402 service. Returns routing decision, cost breakdown, and quality signals.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"capability": map[string]any{
						"type":        "string",
						"description": "What you need, e.g. 'web scraping', 'image generation'",
					},
					"strategy": map[string]any{
						"type":    "string",
						"enum":    []string{"best", "cheapest", "fastest", "custom"},
						"default": "best",
					},
					"max_price": map[string]any{
						"type":        "number",
						"description": "Max service price in USD (optional)",
					},
					"category": map[string]any{
						"type":        "string",
						"description": "Service category filter (optional)",
					},
					"min_uptime": map[string]any{
						"type":        "number",
						"description": "Min uptime % required (optional)",
					},
				},
				"required": []string{"capability"},
			},
			Annotations: map[string]any{
				"readOnlyHint":   false,
				"idempotentHint": false,
				"openWorldHint":  true,
				"title":          "Route to Best x402 Service",
			},
		},
		{
			Name:        "routenet_simulate",
			Description: "Dry-run routing decision. Preview which x402 service would be selected and why, with top-5 candidates. Free, no execution.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"capability": map[string]any{
						"type":        "string",
						"description": "What you need, e.g. 'web scraping'",
					},
					"strategy": map[string]any{
						"type":    "string",
						"enum":    []string{"best", "cheapest", "fastest", "custom"},
						"default": "best",
					},
				},
				"required": []string{"capability"},
			},
			Annotations: map[string]any{
				"readOnlyHint":   true,
				"idempotentHint": true,
				"openWorldHint":  true,
				"title":          "Simulate Routing Decision",
			},
		},
		{
			Name:        "routenet_strategies",
			Description: "List all routing strategies (best, cheapest, fastest, custom) with scoring formulas and use cases.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Annotations: map[string]any{
				"readOnlyHint":   true,
				"idempotentHint": true,
				"openWorldHint":  false,
				"title":          "List Routing Strategies",
			},
		},
	}
}

// promptCatalog returns the guided workflows advertised by prompts/list.
func promptCatalog() []Prompt {
	return []Prompt{
		{
			Name:        "route_capability_request",
			Description: "Guided workflow: describe what you need, RouteNet finds the best x402 service.",
		},
		{
			Name:        "compare_routing_strategies",
			Description: "Compare best vs cheapest vs fastest strategies for a capability.",
		},
	}
}
