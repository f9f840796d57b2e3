package routing

import "math"

// Pricing Model 3 constants. Fees are tracked in every response but not
// collected until a settlement wallet is configured.
const (
	// RoutingFeeUSD is the flat fee per routing decision.
	RoutingFeeUSD = 0.0002

	// SettlementPct is the settlement fee on the service price.
	SettlementPct = 0.005

	// DefaultServicePriceUSD is assumed when the winning candidate does
	// not advertise a price.
	DefaultServicePriceUSD = 0.005
)

// ComputeCost calculates the Pricing Model 3 cost breakdown for a service
// price. Pure and deterministic; all monetary values are rounded to 8
// decimal places to avoid floating-point drift in repeated display.
func ComputeCost(servicePriceUSD float64) CostBreakdown {
	settlement := round8(servicePriceUSD * SettlementPct)
	return CostBreakdown{
		ServicePriceUSD:  round8(servicePriceUSD),
		RoutingFeeUSD:    RoutingFeeUSD,
		SettlementFeeUSD: settlement,
		TotalUSD:         round8(servicePriceUSD + RoutingFeeUSD + settlement),
	}
}

func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}
