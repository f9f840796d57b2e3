// Package routing implements the RouteNet decision engine: strategy-driven
// candidate filtering and ranking, composite quality scoring, the Pricing
// Model 3 cost breakdown, and the decision assembler that turns a capability
// request into a routing decision with a transparent justification.
package routing
