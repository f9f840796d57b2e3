package routing

import (
	"strings"
	"time"
)

// Strategy is a named routing policy selecting how candidates are ordered.
type Strategy string

const (
	// StrategyBest ranks by the composite quality score. Recommended default.
	StrategyBest Strategy = "best"

	// StrategyCheapest ranks by ascending service price.
	StrategyCheapest Strategy = "cheapest"

	// StrategyFastest ranks by ascending average latency.
	StrategyFastest Strategy = "fastest"

	// StrategyCustom applies only the explicit request filters, then the
	// composite score. No implicit health filtering.
	StrategyCustom Strategy = "custom"
)

// DefaultStrategy is used when a request does not name a strategy.
const DefaultStrategy = StrategyBest

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyBest, StrategyCheapest, StrategyFastest, StrategyCustom:
		return true
	}
	return false
}

// appliesHealthRule reports whether the default uptime threshold is
// enforced for this strategy when no min_uptime filter is present.
func (s Strategy) appliesHealthRule() bool {
	return s == StrategyBest || s == StrategyCheapest || s == StrategyFastest
}

// HealthStatus values reported by the Discovery API.
const (
	HealthStatusHealthy    = "healthy"
	HealthStatusUnhealthy  = "unhealthy"
	HealthStatusUnverified = "unverified"
)

// Candidate is one discoverable x402 service record returned by the
// Discovery API. Optional numeric fields are pointers so that "absent" is
// distinguishable from zero; the engine never mutates a Candidate, it only
// reads and re-orders.
type Candidate struct {
	// Name is the service display name.
	Name string `json:"name"`

	// URL is the service invocation endpoint.
	URL string `json:"url"`

	// Category is a free-text classification (data, compute, research, ...).
	Category string `json:"category,omitempty"`

	// Description is free text used only for keyword matching.
	Description string `json:"description,omitempty"`

	// PriceUSD is the unit cost per invocation. Absent prices sort last
	// under the cheapest strategy and default to 0 in filters.
	PriceUSD *float64 `json:"price_usd,omitempty"`

	// UptimePct is the reported uptime percentage (0-100).
	UptimePct *float64 `json:"uptime_pct,omitempty"`

	// AvgLatencyMS is the reported average latency in milliseconds.
	AvgLatencyMS *float64 `json:"avg_latency_ms,omitempty"`

	// TrustScore is the ERC-8004 trust score (0-100).
	TrustScore *float64 `json:"trust_score,omitempty"`

	// ReputationScore is an alternative source field for the trust score.
	// When present it takes precedence over TrustScore.
	ReputationScore *float64 `json:"erc8004_reputation_score,omitempty"`

	// HealthStatus is one of healthy, unhealthy, unverified. Absent is
	// treated as unverified.
	HealthStatus string `json:"health_status,omitempty"`

	// ERC8004Verified marks on-chain provenance of the service identity.
	ERC8004Verified bool `json:"erc8004_verified,omitempty"`

	// CapabilityTags and Tags are free-text labels used only for keyword
	// matching on the discovery fallback path.
	CapabilityTags []string `json:"capability_tags,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// Trust returns the effective trust score, reading the ERC-8004 reputation
// field first and falling back to the plain trust score. Nil when neither
// source field is present.
func (c *Candidate) Trust() *float64 {
	if c.ReputationScore != nil {
		return c.ReputationScore
	}
	return c.TrustScore
}

// SearchText returns the lower-cased concatenation of every free-text field,
// the haystack for keyword matching on the catalog fallback path.
func (c *Candidate) SearchText() string {
	parts := []string{
		c.Name,
		c.Description,
		strings.Join(c.CapabilityTags, " "),
		strings.Join(c.Tags, " "),
		c.Category,
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// RouteFilter is an optional predicate bundle applied before ranking.
// Absent fields impose no constraint.
type RouteFilter struct {
	// MaxPrice keeps candidates priced at or below the bound (absent
	// prices count as 0).
	MaxPrice *float64 `json:"max_price,omitempty"`

	// MinUptime replaces the default 80% threshold in the health rule.
	MinUptime *float64 `json:"min_uptime,omitempty"`

	// Category requires an exact, case-insensitive category match.
	Category string `json:"category,omitempty"`

	// MinTrustScore keeps candidates whose trust score meets the bound
	// (absent scores count as 0).
	MinTrustScore *float64 `json:"min_trust_score,omitempty"`
}

// RouteRequest is a capability routing request as received by the adapters.
type RouteRequest struct {
	// Capability describes what the caller needs, e.g. "web scraping".
	Capability string `json:"capability" binding:"required"`

	// Input is an opaque payload to forward to the winning service.
	// Routing only records it; execution is deferred to v2.
	Input map[string]any `json:"input,omitempty"`

	// Strategy selects the ranking policy. Empty means "best".
	Strategy Strategy `json:"strategy,omitempty"`

	// Filter optionally constrains the candidate set before ranking.
	Filter *RouteFilter `json:"filter,omitempty"`
}

// CostBreakdown is the Pricing Model 3 fee arithmetic for one decision.
// Fees are computed and surfaced but not collected.
type CostBreakdown struct {
	ServicePriceUSD  float64 `json:"service_price_usd"`
	RoutingFeeUSD    float64 `json:"routing_fee_usd"`
	SettlementFeeUSD float64 `json:"settlement_fee_usd"`
	TotalUSD         float64 `json:"total_usd"`
}

// QualitySignals are the winner's quality fields as reported by the
// Discovery API; they are trusted inputs, not verified by RouteNet.
type QualitySignals struct {
	UptimePct       *float64 `json:"uptime_pct"`
	AvgLatencyMS    *float64 `json:"avg_latency_ms"`
	TrustScore      *float64 `json:"trust_score"`
	HealthStatus    string   `json:"health_status"`
	ERC8004Verified bool     `json:"erc8004_verified"`
}

// ExtractQuality reads the quality signals from a candidate record.
func ExtractQuality(c *Candidate) QualitySignals {
	status := c.HealthStatus
	if status == "" {
		status = HealthStatusUnverified
	}
	return QualitySignals{
		UptimePct:       c.UptimePct,
		AvgLatencyMS:    c.AvgLatencyMS,
		TrustScore:      c.Trust(),
		HealthStatus:    status,
		ERC8004Verified: c.ERC8004Verified,
	}
}

// Decision is the assembled routing decision returned to adapters.
type Decision struct {
	// ID uniquely identifies this decision for the route history.
	ID string `json:"decision_id"`

	// ExecutionMode is always "simulation" in v1; actual x402 payment
	// calls come in v2.
	ExecutionMode string `json:"execution_mode"`

	Capability          string         `json:"capability"`
	RoutedTo            string         `json:"routed_to"`
	ServiceURL          string         `json:"service_url"`
	ServiceCategory     string         `json:"service_category"`
	StrategyUsed        Strategy       `json:"strategy_used"`
	CandidatesEvaluated int            `json:"candidates_evaluated"`
	RoutingReason       string         `json:"routing_reason"`
	Cost                CostBreakdown  `json:"cost_breakdown"`
	Quality             QualitySignals `json:"quality_signals"`

	// InputForwarded echoes the request input; v2 will POST it to the
	// service URL.
	InputForwarded map[string]any `json:"input_forwarded,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// SimulatedCandidate is one row of a dry-run's top-candidate table.
type SimulatedCandidate struct {
	Rank         int      `json:"rank"`
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	PriceUSD     *float64 `json:"price_usd"`
	UptimePct    *float64 `json:"uptime_pct"`
	AvgLatencyMS *float64 `json:"avg_latency_ms"`
	Category     string   `json:"category"`
	HealthStatus string   `json:"health_status"`
	TrustScore   *float64 `json:"trust_score"`
	TotalCostUSD float64  `json:"total_cost_usd"`
}

// Simulation is a dry-run routing decision: which service would win and
// why, with the top candidates, without executing anything.
type Simulation struct {
	Capability          string               `json:"capability"`
	Strategy            Strategy             `json:"strategy"`
	Winner              string               `json:"winner"`
	WinnerURL           string               `json:"winner_url"`
	RoutingReason       string               `json:"routing_reason"`
	CandidatesEvaluated int                  `json:"candidates_evaluated"`
	Top                 []SimulatedCandidate `json:"top_5"`
}
