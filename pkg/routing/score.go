package routing

// Composite score weights and normalization constants. Fixed per Pricing
// Model 3, not configurable per request.
const (
	WeightUptime  = 0.4
	WeightLatency = 0.3
	WeightTrust   = 0.3

	// MaxLatencyNorm caps latency normalization: anything at or above
	// 1000ms contributes zero to the speed component.
	MaxLatencyNorm = 1000.0

	// MinHealthyUptime is the default uptime threshold below which a
	// service is excluded from routing.
	MinHealthyUptime = 80.0

	// Defaults applied when a candidate omits a quality field.
	defaultUptimePct    = 70.0
	defaultLatencyMS    = 500.0
	defaultTrustNormed = 0.5
)

// CompositeScore computes the "best" strategy quality score:
// uptime (40%) + inverse latency (30%) + ERC-8004 trust (30%).
// Missing fields fall back to neutral defaults rather than disqualifying
// the candidate.
func CompositeScore(c *Candidate) float64 {
	uptime := defaultUptimePct
	if c.UptimePct != nil {
		uptime = *c.UptimePct
	}
	latency := defaultLatencyMS
	if c.AvgLatencyMS != nil {
		latency = *c.AvgLatencyMS
	}
	trust := defaultTrustNormed
	if t := c.Trust(); t != nil {
		trust = *t / 100.0
	}

	latencyNorm := latency / MaxLatencyNorm
	if latencyNorm > 1 {
		latencyNorm = 1
	}

	return (uptime/100.0)*WeightUptime + (1.0-latencyNorm)*WeightLatency + trust*WeightTrust
}

// IsHealthy applies the health rule: unhealthy status always fails, an
// absent uptime passes (benefit of the doubt for unverified services),
// otherwise the uptime must meet the threshold.
func IsHealthy(c *Candidate, minUptime float64) bool {
	if c.HealthStatus == HealthStatusUnhealthy {
		return false
	}
	if c.UptimePct == nil {
		return true
	}
	return *c.UptimePct >= minUptime
}
