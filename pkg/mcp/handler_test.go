package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rplryan/x402-routenet/pkg/routing"
)

func fptr(v float64) *float64 { return &v }

type staticDiscoverer []*routing.Candidate

func (s staticDiscoverer) Discover(_ context.Context, _ string, _ int) []*routing.Candidate {
	return s
}

func testHandler(candidates ...*routing.Candidate) *Handler {
	engine := routing.NewEngine(staticDiscoverer(candidates), routing.EngineOptions{})
	return NewHandler(engine, "1.0.0", zerolog.New(nil).Level(zerolog.Disabled))
}

func request(t *testing.T, id, method, params string) *Request {
	t.Helper()
	req := &Request{JSONRPC: "2.0", Method: method}
	if id != "" {
		req.ID = json.RawMessage(id)
	}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return req
}

// toolText extracts the single text content block from a tool response.
func toolText(t *testing.T, resp *Response) string {
	t.Helper()
	result, ok := resp.Result.(ToolResult)
	if !ok {
		t.Fatalf("Result is %T, want ToolResult", resp.Result)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" {
		t.Fatalf("unexpected content: %+v", result.Content)
	}
	return result.Content[0].Text
}

func healthyCandidate() *routing.Candidate {
	return &routing.Candidate{
		Name:         "scraper-pro",
		URL:          "https://scraper.example",
		PriceUSD:     fptr(0.002),
		UptimePct:    fptr(99),
		AvgLatencyMS: fptr(150),
	}
}

func TestHandleInitialize(t *testing.T) {
	h := testHandler()
	resp := h.Handle(context.Background(), request(t, "1", "initialize", ""))
	if resp == nil || resp.Error != nil {
		t.Fatalf("initialize failed: %+v", resp)
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("Result is %T", resp.Result)
	}
	if result["protocolVersion"] != ProtocolVersion {
		t.Errorf("protocolVersion = %v", result["protocolVersion"])
	}
	info, ok := result["serverInfo"].(map[string]any)
	if !ok || info["name"] != "x402-routenet" || info["version"] != "1.0.0" {
		t.Errorf("serverInfo = %v", result["serverInfo"])
	}
}

func TestHandleInitializedNotification(t *testing.T) {
	h := testHandler()
	resp := h.Handle(context.Background(), request(t, "", "notifications/initialized", ""))
	if resp != nil {
		t.Errorf("notification got a response: %+v", resp)
	}
}

func TestHandleToolsList(t *testing.T) {
	h := testHandler()
	resp := h.Handle(context.Background(), request(t, "2", "tools/list", ""))
	result := resp.Result.(map[string]any)
	tools := result["tools"].([]Tool)
	if len(tools) != 3 {
		t.Fatalf("tools/list returned %d tools, want 3", len(tools))
	}
	want := map[string]bool{
		"routenet_route":      false,
		"routenet_simulate":   false,
		"routenet_strategies": false,
	}
	for _, tool := range tools {
		want[tool.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %s missing from catalog", name)
		}
	}
}

func TestHandleToolRoute(t *testing.T) {
	h := testHandler(healthyCandidate())
	resp := h.Handle(context.Background(), request(t, "3", "tools/call",
		`{"name": "routenet_route", "arguments": {"capability": "web scraping", "strategy": "cheapest"}}`))
	if resp.Error != nil {
		t.Fatalf("tools/call error: %+v", resp.Error)
	}

	text := toolText(t, resp)
	if !strings.Contains(text, `"routed_to": "scraper-pro"`) {
		t.Errorf("tool output missing winner: %s", text)
	}
	if !strings.Contains(text, `"execution_mode": "simulation"`) {
		t.Errorf("tool output missing execution mode: %s", text)
	}
}

func TestHandleToolRouteMissingCapability(t *testing.T) {
	h := testHandler(healthyCandidate())
	resp := h.Handle(context.Background(), request(t, "4", "tools/call",
		`{"name": "routenet_route", "arguments": {}}`))
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Fatalf("expected invalid params error, got %+v", resp)
	}
}

func TestHandleToolRouteFailureIsToolOutput(t *testing.T) {
	h := testHandler() // no services discoverable
	resp := h.Handle(context.Background(), request(t, "5", "tools/call",
		`{"name": "routenet_route", "arguments": {"capability": "nope"}}`))
	// A routing failure is reported as tool text, not as a JSON-RPC error.
	if resp.Error != nil {
		t.Fatalf("routing failure surfaced as protocol error: %+v", resp.Error)
	}
	text := toolText(t, resp)
	if !strings.Contains(text, "No x402 services found") {
		t.Errorf("tool output = %q", text)
	}
}

func TestHandleToolSimulate(t *testing.T) {
	h := testHandler(healthyCandidate())
	resp := h.Handle(context.Background(), request(t, "6", "tools/call",
		`{"name": "routenet_simulate", "arguments": {"capability": "web scraping"}}`))
	if resp.Error != nil {
		t.Fatalf("tools/call error: %+v", resp.Error)
	}
	text := toolText(t, resp)
	if !strings.Contains(text, `"winner": "scraper-pro"`) {
		t.Errorf("tool output = %q", text)
	}
}

func TestHandleToolStrategies(t *testing.T) {
	h := testHandler()
	resp := h.Handle(context.Background(), request(t, "7", "tools/call",
		`{"name": "routenet_strategies", "arguments": {}}`))
	text := toolText(t, resp)
	for _, name := range []string{"best", "cheapest", "fastest", "custom"} {
		if !strings.Contains(text, name) {
			t.Errorf("strategies output missing %q", name)
		}
	}
}

func TestHandleUnknownTool(t *testing.T) {
	h := testHandler()
	resp := h.Handle(context.Background(), request(t, "8", "tools/call",
		`{"name": "routenet_teleport", "arguments": {}}`))
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp)
	}
}

func TestHandleUnknownMethod(t *testing.T) {
	h := testHandler()
	resp := h.Handle(context.Background(), request(t, "9", "bogus/method", ""))
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp)
	}
	if resp.Error.Message != "Method not found: bogus/method" {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

func TestHandlePromptsAndResources(t *testing.T) {
	h := testHandler()

	resp := h.Handle(context.Background(), request(t, "10", "prompts/list", ""))
	prompts := resp.Result.(map[string]any)["prompts"].([]Prompt)
	if len(prompts) != 2 {
		t.Errorf("prompts/list returned %d prompts, want 2", len(prompts))
	}

	resp = h.Handle(context.Background(), request(t, "11", "prompts/get",
		`{"name": "route_capability_request"}`))
	if resp.Error != nil {
		t.Errorf("prompts/get error: %+v", resp.Error)
	}

	resp = h.Handle(context.Background(), request(t, "12", "resources/read",
		`{"uri": "routenet://pricing"}`))
	if resp.Error != nil {
		t.Fatalf("resources/read error: %+v", resp.Error)
	}
	contents := resp.Result.(map[string]any)["contents"].([]ResourceContent)
	if len(contents) != 1 || !strings.Contains(contents[0].Text, "flat_routing_fee_usd") {
		t.Errorf("resources/read contents = %+v", contents)
	}

	resp = h.Handle(context.Background(), request(t, "13", "resources/read",
		`{"uri": "routenet://nope"}`))
	if resp.Error == nil {
		t.Error("expected an error for an unknown resource")
	}
}
