package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rplryan/x402-routenet/pkg/config"
	"github.com/rplryan/x402-routenet/pkg/mcp"
	"github.com/rplryan/x402-routenet/pkg/routing"
)

func fptr(v float64) *float64 { return &v }

type staticDiscoverer []*routing.Candidate

func (s staticDiscoverer) Discover(_ context.Context, _ string, _ int) []*routing.Candidate {
	return s
}

// fakeHistory serves canned records for the read endpoints.
type fakeHistory struct {
	records   []routing.RouteRecord
	healthErr error
}

func (f *fakeHistory) RecentRoutes(_ context.Context, limit int) ([]routing.RouteRecord, error) {
	if limit > len(f.records) {
		limit = len(f.records)
	}
	return f.records[:limit], nil
}

func (f *fakeHistory) CountRoutes(_ context.Context) (int64, error) {
	return int64(len(f.records)), nil
}

func (f *fakeHistory) HealthCheck(_ context.Context) error {
	return f.healthErr
}

func testServer(t *testing.T, history History, candidates ...*routing.Candidate) *Server {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	engine := routing.NewEngine(staticDiscoverer(candidates), routing.EngineOptions{
		Logger: logger,
	})
	return New(Options{
		Config:  config.Default(),
		Engine:  engine,
		History: history,
		MCP:     mcp.NewHandler(engine, "1.0.0", logger),
		Logger:  logger,
		Version: "1.0.0",
	})
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return body
}

func healthyCandidates() []*routing.Candidate {
	return []*routing.Candidate{
		{
			Name:         "scraper-pro",
			URL:          "https://scraper.example",
			Category:     "data",
			PriceUSD:     fptr(0.002),
			UptimePct:    fptr(99),
			AvgLatencyMS: fptr(150),
		},
		{
			Name:      "scraper-budget",
			URL:       "https://budget.example",
			Category:  "data",
			PriceUSD:  fptr(0.0005),
			UptimePct: fptr(85),
		},
	}
}

func TestRouteEndpoint(t *testing.T) {
	srv := testServer(t, &fakeHistory{}, healthyCandidates()...)

	w := doRequest(t, srv, http.MethodPost, "/route",
		`{"capability": "web scraping", "strategy": "cheapest"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["routed_to"] != "scraper-budget" {
		t.Errorf("routed_to = %v", body["routed_to"])
	}
	if body["execution_mode"] != "simulation" {
		t.Errorf("execution_mode = %v", body["execution_mode"])
	}
	cost := body["cost_breakdown"].(map[string]any)
	if cost["routing_fee_usd"] != 0.0002 {
		t.Errorf("routing_fee_usd = %v", cost["routing_fee_usd"])
	}
	if body["decision_id"] == "" || body["decision_id"] == nil {
		t.Error("decision_id missing")
	}
}

func TestRouteEndpointNotFound(t *testing.T) {
	srv := testServer(t, &fakeHistory{})

	w := doRequest(t, srv, http.MethodPost, "/route", `{"capability": "nothing"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decodeBody(t, w)
	if body["capability"] != "nothing" {
		t.Errorf("capability = %v", body["capability"])
	}
	if !strings.Contains(body["error"].(string), "No x402 services found") {
		t.Errorf("error = %v", body["error"])
	}
}

func TestRouteEndpointNoEligible(t *testing.T) {
	srv := testServer(t, &fakeHistory{}, healthyCandidates()...)

	w := doRequest(t, srv, http.MethodPost, "/route",
		`{"capability": "web scraping", "filter": {"max_price": 0.0000001}}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decodeBody(t, w)
	if body["candidates_checked"] != float64(2) {
		t.Errorf("candidates_checked = %v", body["candidates_checked"])
	}
	if body["filter"] == nil {
		t.Error("filter should be echoed back")
	}
}

func TestRouteEndpointUnknownStrategy(t *testing.T) {
	srv := testServer(t, &fakeHistory{}, healthyCandidates()...)

	w := doRequest(t, srv, http.MethodPost, "/route",
		`{"capability": "x", "strategy": "turbo"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != `Unknown strategy: "turbo"` {
		t.Errorf("error = %v", body["error"])
	}
}

func TestRouteEndpointMalformedBody(t *testing.T) {
	srv := testServer(t, &fakeHistory{})
	w := doRequest(t, srv, http.MethodPost, "/route", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSimulateEndpoint(t *testing.T) {
	srv := testServer(t, &fakeHistory{}, healthyCandidates()...)

	w := doRequest(t, srv, http.MethodGet, "/simulate?capability=web+scraping&strategy=cheapest", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["winner"] != "scraper-budget" {
		t.Errorf("winner = %v", body["winner"])
	}
	top := body["top_5"].([]any)
	if len(top) != 2 {
		t.Errorf("top_5 has %d entries, want 2", len(top))
	}
}

func TestSimulateEndpointRequiresCapability(t *testing.T) {
	srv := testServer(t, &fakeHistory{})
	w := doRequest(t, srv, http.MethodGet, "/simulate", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSimulateEndpointNoServices(t *testing.T) {
	srv := testServer(t, &fakeHistory{})
	w := doRequest(t, srv, http.MethodGet, "/simulate?capability=nothing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != `No services found for: "nothing"` {
		t.Errorf("error = %v", body["error"])
	}
}

func TestStrategiesEndpoint(t *testing.T) {
	srv := testServer(t, &fakeHistory{})
	w := doRequest(t, srv, http.MethodGet, "/strategies", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["default"] != "best" {
		t.Errorf("default = %v", body["default"])
	}
	strategies := body["strategies"].([]any)
	if len(strategies) != 4 {
		t.Errorf("strategies count = %d, want 4", len(strategies))
	}
	pricing := body["pricing_model"].(map[string]any)
	if pricing["settlement_pct"] != 0.5 {
		t.Errorf("settlement_pct = %v, want 0.5", pricing["settlement_pct"])
	}
}

func TestRecentRoutesEndpoint(t *testing.T) {
	history := &fakeHistory{records: []routing.RouteRecord{
		{ID: "a", Capability: "x", Strategy: routing.StrategyBest, RoutedTo: "svc", TotalUSD: 0.005225, Timestamp: time.Now()},
		{ID: "b", Capability: "y", Strategy: routing.StrategyCheapest, RoutedTo: "svc2", TotalUSD: 0.0007, Timestamp: time.Now()},
	}}
	srv := testServer(t, history)

	w := doRequest(t, srv, http.MethodGet, "/routes/recent?limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["count"] != float64(1) {
		t.Errorf("count = %v", body["count"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, &fakeHistory{records: make([]routing.RouteRecord, 7)})

	w := doRequest(t, srv, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
	if body["routes_processed"] != float64(7) {
		t.Errorf("routes_processed = %v", body["routes_processed"])
	}
	pricing := body["pricing_model"].(map[string]any)
	if pricing["collection_enabled"] != false {
		t.Errorf("collection_enabled = %v for an empty wallet", pricing["collection_enabled"])
	}
	if pricing["wallet"] != nil {
		t.Errorf("wallet = %v, want null", pricing["wallet"])
	}
	if pricing["flat_routing_fee_usd"] != 0.0002 {
		t.Errorf("flat_routing_fee_usd = %v", pricing["flat_routing_fee_usd"])
	}
}

func TestHealthEndpointDegraded(t *testing.T) {
	srv := testServer(t, &fakeHistory{healthErr: context.DeadlineExceeded})
	w := doRequest(t, srv, http.MethodGet, "/health", "")
	body := decodeBody(t, w)
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
}

func TestRootEndpoint(t *testing.T) {
	srv := testServer(t, &fakeHistory{})
	w := doRequest(t, srv, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["service"] != "x402 RouteNet" {
		t.Errorf("service = %v", body["service"])
	}
}

func TestMCPEndpoint(t *testing.T) {
	srv := testServer(t, &fakeHistory{}, healthyCandidates()...)

	w := doRequest(t, srv, http.MethodPost, "/smithery",
		`{"jsonrpc": "2.0", "id": 1, "method": "initialize"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["jsonrpc"] != "2.0" {
		t.Errorf("jsonrpc = %v", body["jsonrpc"])
	}

	// Notifications get 204 with no body.
	w = doRequest(t, srv, http.MethodPost, "/smithery",
		`{"jsonrpc": "2.0", "method": "notifications/initialized"}`)
	if w.Code != http.StatusNoContent {
		t.Errorf("notification status = %d, want 204", w.Code)
	}

	// GET probes get server info.
	w = doRequest(t, srv, http.MethodGet, "/smithery", "")
	body = decodeBody(t, w)
	if body["name"] != "x402-routenet" {
		t.Errorf("name = %v", body["name"])
	}
}

func TestRunGracefulShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	engine := routing.NewEngine(staticDiscoverer(nil), routing.EngineOptions{Logger: logger})
	srv := New(Options{
		Config:  cfg,
		Engine:  engine,
		Logger:  logger,
		Version: "test",
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
