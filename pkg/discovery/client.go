package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/rplryan/x402-routenet/pkg/routing"
	"github.com/rplryan/x402-routenet/pkg/telemetry"
)

// DefaultAPIURL is the public x402 Service Discovery API.
const DefaultAPIURL = "https://x402-discovery-api.onrender.com"

// RequestTimeout bounds every call to the Discovery API. A slower answer
// is treated as a failed fetch and routed down the fallback chain.
const RequestTimeout = 10 * time.Second

// ErrPaymentRequired signals an HTTP 402 from the primary search endpoint.
// The caller treats it identically to an unavailable primary source.
var ErrPaymentRequired = errors.New("discovery: payment required")

// maxResponseBytes caps how much of a Discovery API response is read.
const maxResponseBytes = 4 << 20

// Client is an HTTP client for the Discovery API's search and catalog
// endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *telemetry.Metrics
}

// ClientOptions configures optional client collaborators.
type ClientOptions struct {
	// Timeout overrides RequestTimeout when positive.
	Timeout time.Duration

	// Logger is the client's structured logger.
	Logger zerolog.Logger

	// Metrics receives per-request counters.
	Metrics *telemetry.Metrics
}

// NewClient creates a Discovery API client. An empty baseURL selects the
// public API.
func NewClient(baseURL string, opts ClientOptions) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = RequestTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     opts.Logger.With().Str("component", "discovery-client").Logger(),
		metrics:    opts.Metrics,
	}
}

// Search queries the primary search endpoint with a free-text capability
// and a result-count bound. Returns ErrPaymentRequired on HTTP 402.
func (c *Client) Search(ctx context.Context, capability string, limit int) ([]*routing.Candidate, error) {
	endpoint := fmt.Sprintf("%s/discover?q=%s&limit=%s",
		c.baseURL, url.QueryEscape(capability), strconv.Itoa(limit))

	payload, err := c.get(ctx, "discover", endpoint)
	if err != nil {
		return nil, err
	}

	candidates, err := extractCandidates(payload, searchShapeFields)
	if err != nil {
		c.metrics.RecordDiscoveryRequest("discover", "malformed")
		return nil, fmt.Errorf("discovery: malformed search response: %w", err)
	}
	return candidates, nil
}

// Catalog fetches the full service catalog from the fallback endpoint.
func (c *Client) Catalog(ctx context.Context) ([]*routing.Candidate, error) {
	payload, err := c.get(ctx, "catalog", c.baseURL+"/catalog")
	if err != nil {
		return nil, err
	}

	candidates, err := extractCandidates(payload, catalogShapeFields)
	if err != nil {
		c.metrics.RecordDiscoveryRequest("catalog", "malformed")
		return nil, fmt.Errorf("discovery: malformed catalog response: %w", err)
	}
	return candidates, nil
}

func (c *Client) get(ctx context.Context, name, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordDiscoveryRequest(name, "error")
		return nil, fmt.Errorf("discovery: %s request failed: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		c.metrics.RecordDiscoveryRequest(name, "payment_required")
		return nil, ErrPaymentRequired
	case resp.StatusCode != http.StatusOK:
		c.metrics.RecordDiscoveryRequest(name, "error")
		return nil, fmt.Errorf("discovery: %s returned status %d", name, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.RecordDiscoveryRequest(name, "error")
		return nil, fmt.Errorf("discovery: read %s response: %w", name, err)
	}

	c.metrics.RecordDiscoveryRequest(name, "ok")
	return payload, nil
}
