package routing

import "strings"

// Filter applies the optional predicate bundle to a candidate list. It is a
// deterministic, order-preserving subset selection; ranking happens later.
//
// When no filter is supplied at all, the default health rule still applies
// for the cheapest/fastest/best strategies. The custom strategy relies
// solely on explicit filter fields plus the composite score.
func Filter(candidates []*Candidate, f *RouteFilter, strategy Strategy) []*Candidate {
	kept := make([]*Candidate, 0, len(candidates))
	kept = append(kept, candidates...)

	if f == nil {
		if strategy.appliesHealthRule() {
			kept = keep(kept, func(c *Candidate) bool { return IsHealthy(c, MinHealthyUptime) })
		}
		return kept
	}

	if f.MaxPrice != nil {
		kept = keep(kept, func(c *Candidate) bool {
			price := 0.0
			if c.PriceUSD != nil {
				price = *c.PriceUSD
			}
			return price <= *f.MaxPrice
		})
	}

	if f.MinUptime != nil {
		minUptime := *f.MinUptime
		kept = keep(kept, func(c *Candidate) bool { return IsHealthy(c, minUptime) })
	} else if strategy.appliesHealthRule() {
		kept = keep(kept, func(c *Candidate) bool { return IsHealthy(c, MinHealthyUptime) })
	}

	if f.Category != "" {
		want := strings.ToLower(f.Category)
		kept = keep(kept, func(c *Candidate) bool { return strings.ToLower(c.Category) == want })
	}

	if f.MinTrustScore != nil {
		kept = keep(kept, func(c *Candidate) bool {
			trust := 0.0
			if t := c.Trust(); t != nil {
				trust = *t
			}
			return trust >= *f.MinTrustScore
		})
	}

	return kept
}

func keep(candidates []*Candidate, pred func(*Candidate) bool) []*Candidate {
	out := candidates[:0]
	for _, c := range candidates {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}
