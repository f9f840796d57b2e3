package routing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rplryan/x402-routenet/pkg/telemetry"
)

// Discoverer supplies candidate services for a capability. Implementations
// never fail: degraded lookups return a best-effort (possibly empty) list.
type Discoverer interface {
	Discover(ctx context.Context, capability string, limit int) []*Candidate
}

// Admitter is an optional admission policy evaluated over the discovered
// candidates before ranking. It returns the admitted subset.
type Admitter interface {
	Admit(ctx context.Context, candidates []*Candidate) ([]*Candidate, error)
}

// Recorder persists routing decisions for the recent-routes history.
type Recorder interface {
	RecordRoute(ctx context.Context, rec *RouteRecord) error
}

// RouteRecord is the compact history entry kept per routing decision.
type RouteRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Capability string    `json:"capability"`
	Strategy   Strategy  `json:"strategy"`
	RoutedTo   string    `json:"routed_to"`
	TotalUSD   float64   `json:"total_usd"`
}

// ExecutionModeSimulation marks decisions that were made but not executed.
const ExecutionModeSimulation = "simulation"

// DefaultDiscoveryLimit bounds how many candidates a decision evaluates.
const DefaultDiscoveryLimit = 10

// EngineOptions configures optional engine collaborators. The zero value is
// usable: no admission policy, no history, no metrics.
type EngineOptions struct {
	// Admitter applies the pluggable admission policy before ranking.
	Admitter Admitter

	// Recorder receives one RouteRecord per successful decision.
	Recorder Recorder

	// Metrics receives decision counters and latency observations.
	Metrics *telemetry.Metrics

	// Logger is the engine's structured logger.
	Logger zerolog.Logger

	// DiscoveryLimit overrides DefaultDiscoveryLimit when positive.
	DiscoveryLimit int
}

// Engine assembles routing decisions: discovery, admission, ranking, cost.
type Engine struct {
	discoverer Discoverer
	admitter   Admitter
	recorder   Recorder
	metrics    *telemetry.Metrics
	logger     zerolog.Logger
	limit      int
	now        func() time.Time
}

// NewEngine creates a decision engine around a Discoverer.
func NewEngine(d Discoverer, opts EngineOptions) *Engine {
	limit := opts.DiscoveryLimit
	if limit <= 0 {
		limit = DefaultDiscoveryLimit
	}
	return &Engine{
		discoverer: d,
		admitter:   opts.Admitter,
		recorder:   opts.Recorder,
		metrics:    opts.Metrics,
		logger:     opts.Logger.With().Str("component", "routing-engine").Logger(),
		limit:      limit,
		now:        time.Now,
	}
}

// Route makes a full routing decision for a capability request. Failures
// are always *RouteError values from the taxonomy in errors.go.
func (e *Engine) Route(ctx context.Context, req *RouteRequest) (*Decision, error) {
	start := e.now()
	strategy := req.Strategy
	if strategy == "" {
		strategy = DefaultStrategy
	}
	if !strategy.Valid() {
		return nil, NewUnknownStrategyError(req.Capability, strategy)
	}

	candidates := e.discoverer.Discover(ctx, req.Capability, e.limit)
	if len(candidates) == 0 {
		e.metrics.RecordRouteDecision(string(strategy), "not_found")
		return nil, NewNotFoundError(req.Capability)
	}
	evaluated := len(candidates)

	candidates = e.admit(ctx, candidates)
	ranked, reason := Rank(candidates, strategy, req.Filter)
	if len(ranked) == 0 {
		e.metrics.RecordRouteDecision(string(strategy), "no_eligible")
		return nil, NewNoEligibleError(req.Capability, strategy, evaluated)
	}

	winner := ranked[0]
	price := DefaultServicePriceUSD
	if winner.PriceUSD != nil {
		price = *winner.PriceUSD
	}
	cost := ComputeCost(price)

	decision := &Decision{
		ID:                  uuid.NewString(),
		ExecutionMode:       ExecutionModeSimulation,
		Capability:          req.Capability,
		RoutedTo:            winner.Name,
		ServiceURL:          winner.URL,
		ServiceCategory:     winner.Category,
		StrategyUsed:        strategy,
		CandidatesEvaluated: evaluated,
		RoutingReason:       reason,
		Cost:                cost,
		Quality:             ExtractQuality(winner),
		InputForwarded:      req.Input,
		Timestamp:           e.now().UTC(),
	}

	e.record(ctx, decision)
	e.metrics.RecordRouteDecision(string(strategy), "routed")
	e.metrics.ObserveDecisionDuration(string(strategy), e.now().Sub(start))
	e.logger.Info().
		Str("capability", req.Capability).
		Str("strategy", string(strategy)).
		Str("routed_to", winner.Name).
		Float64("total_usd", cost.TotalUSD).
		Int("candidates", evaluated).
		Msg("Routing decision made")

	return decision, nil
}

// Simulate makes a dry-run decision: which service would win and why, with
// the top five candidates and their total cost, without recording history.
func (e *Engine) Simulate(ctx context.Context, capability string, strategy Strategy) (*Simulation, error) {
	if strategy == "" {
		strategy = DefaultStrategy
	}
	if !strategy.Valid() {
		return nil, NewUnknownStrategyError(capability, strategy)
	}

	candidates := e.discoverer.Discover(ctx, capability, e.limit)
	if len(candidates) == 0 {
		return nil, NewNotFoundError(capability)
	}
	evaluated := len(candidates)

	candidates = e.admit(ctx, candidates)
	ranked, reason := Rank(candidates, strategy, nil)
	if len(ranked) == 0 {
		return nil, NewNoEligibleError(capability, strategy, evaluated)
	}

	top := make([]SimulatedCandidate, 0, 5)
	for i, c := range ranked {
		if i == 5 {
			break
		}
		price := DefaultServicePriceUSD
		if c.PriceUSD != nil {
			price = *c.PriceUSD
		}
		status := c.HealthStatus
		if status == "" {
			status = HealthStatusUnverified
		}
		top = append(top, SimulatedCandidate{
			Rank:         i + 1,
			Name:         c.Name,
			URL:          c.URL,
			PriceUSD:     c.PriceUSD,
			UptimePct:    c.UptimePct,
			AvgLatencyMS: c.AvgLatencyMS,
			Category:     c.Category,
			HealthStatus: status,
			TrustScore:   c.Trust(),
			TotalCostUSD: ComputeCost(price).TotalUSD,
		})
	}

	return &Simulation{
		Capability:          capability,
		Strategy:            strategy,
		Winner:              ranked[0].Name,
		WinnerURL:           ranked[0].URL,
		RoutingReason:       reason,
		CandidatesEvaluated: evaluated,
		Top:                 top,
	}, nil
}

// admit runs the admission policy when configured. A policy evaluation
// failure keeps the unfiltered candidate set: admission is advisory and
// must not turn a routable request into a failure.
func (e *Engine) admit(ctx context.Context, candidates []*Candidate) []*Candidate {
	if e.admitter == nil {
		return candidates
	}
	admitted, err := e.admitter.Admit(ctx, candidates)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Admission policy evaluation failed, keeping all candidates")
		return candidates
	}
	return admitted
}

// record writes the decision to the history recorder when configured.
func (e *Engine) record(ctx context.Context, d *Decision) {
	if e.recorder == nil {
		return
	}
	rec := &RouteRecord{
		ID:         d.ID,
		Timestamp:  d.Timestamp,
		Capability: d.Capability,
		Strategy:   d.StrategyUsed,
		RoutedTo:   d.RoutedTo,
		TotalUSD:   d.Cost.TotalUSD,
	}
	if err := e.recorder.RecordRoute(ctx, rec); err != nil {
		e.logger.Warn().Err(err).Str("decision_id", d.ID).Msg("Failed to record route history")
	}
}
