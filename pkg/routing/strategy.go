package routing

import (
	"fmt"
	"sort"
)

// NoMatchReason is the justification returned when filtering leaves no
// eligible candidate, regardless of the requested strategy.
const NoMatchReason = "No services match the criteria"

// Rank filters and orders candidates by strategy. It returns the ranked
// list (best first) and a human-readable justification naming the winner
// and the metric that decided it. An empty list is a valid result meaning
// "no eligible candidate"; an unknown strategy also yields an empty list
// with an explanatory reason.
func Rank(candidates []*Candidate, strategy Strategy, f *RouteFilter) ([]*Candidate, string) {
	eligible := Filter(candidates, f, strategy)
	// The empty-after-filter case wins over an unknown strategy: callers
	// always get the "no match" reason when nothing survived filtering.
	if len(eligible) == 0 {
		return nil, NoMatchReason
	}

	switch strategy {
	case StrategyCheapest:
		sort.SliceStable(eligible, func(i, j int) bool {
			return lessOptional(eligible[i].PriceUSD, eligible[j].PriceUSD)
		})
		winner := eligible[0]
		return eligible, fmt.Sprintf("Cheapest healthy service: %s at $%.4f/call",
			winner.Name, orZero(winner.PriceUSD))

	case StrategyFastest:
		sort.SliceStable(eligible, func(i, j int) bool {
			return lessOptional(eligible[i].AvgLatencyMS, eligible[j].AvgLatencyMS)
		})
		winner := eligible[0]
		return eligible, fmt.Sprintf("Fastest healthy service: %s at %.0fms avg",
			winner.Name, orZero(winner.AvgLatencyMS))

	case StrategyBest, StrategyCustom:
		sort.SliceStable(eligible, func(i, j int) bool {
			return CompositeScore(eligible[i]) > CompositeScore(eligible[j])
		})
		winner := eligible[0]
		return eligible, fmt.Sprintf("Best composite score %.3f: %s (uptime=%s%%, latency=%sms)",
			CompositeScore(winner), winner.Name,
			formatOptional(winner.UptimePct), formatOptional(winner.AvgLatencyMS))

	default:
		return nil, fmt.Sprintf("Unknown strategy: %q", string(strategy))
	}
}

// lessOptional orders a present value before an absent one, so candidates
// missing a price or latency sort last without a magic sentinel constant.
func lessOptional(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%g", *v)
}

// StrategyInfo describes one routing strategy for the read-only catalog
// exposed at GET /strategies and via the routenet_strategies MCP tool.
type StrategyInfo struct {
	Name        Strategy `json:"name"`
	Description string   `json:"description"`
	Formula     string   `json:"formula"`
	UseCase     string   `json:"use_case"`
}

// Strategies returns the static strategy catalog. The returned slice is a
// fresh copy; callers may not mutate shared state through it.
func Strategies() []StrategyInfo {
	return []StrategyInfo{
		{
			Name:        StrategyBest,
			Description: "Composite quality score: uptime (40%) + speed (30%) + ERC-8004 trust (30%)",
			Formula:     "(uptime_pct/100)*0.4 + (1 - min(latency_ms/1000,1))*0.3 + (trust_score/100 if available else 0.5)*0.3",
			UseCase:     "Best overall reliability. Recommended default.",
		},
		{
			Name:        StrategyCheapest,
			Description: "Lowest service price among healthy services (uptime > 80%)",
			Formula:     "sort by price_usd ascending; filter uptime > 80%",
			UseCase:     "Cost-sensitive agents running at scale.",
		},
		{
			Name:        StrategyFastest,
			Description: "Lowest average latency among healthy services",
			Formula:     "sort by avg_latency_ms ascending; filter uptime > 80%",
			UseCase:     "Latency-sensitive real-time applications.",
		},
		{
			Name:        StrategyCustom,
			Description: "Filter by max_price, min_uptime, category, min_trust_score; then apply best composite scoring",
			Formula:     "apply filters, then best composite on remaining",
			UseCase:     "Fine-grained control over service selection criteria.",
		},
	}
}
