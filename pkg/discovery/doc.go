// Package discovery fetches x402 service candidates from the Discovery API
// and memoizes lookups in a TTL cache with degraded-fallback semantics.
//
// A lookup walks a fixed fallback chain and never fails:
//
//	fresh cache entry -> primary search -> catalog keyword fallback ->
//	stale cache entry -> empty list
//
// A payment-required response from the primary endpoint is an expected
// steady-state condition (the Discovery API is itself a paid endpoint) and
// routes to the catalog fallback like any other unavailable primary.
package discovery
