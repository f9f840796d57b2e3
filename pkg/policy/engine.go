package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage"
	"github.com/open-policy-agent/opa/storage/inmem"
	"github.com/rs/zerolog"

	"github.com/rplryan/x402-routenet/pkg/routing"
	"github.com/rplryan/x402-routenet/pkg/telemetry"
)

// Engine evaluates admission policies over discovered candidates. It
// implements routing.Admitter.
type Engine struct {
	mu              sync.RWMutex
	policies        map[string]*compiledPolicy
	store           storage.Store
	logger          zerolog.Logger
	metrics         *telemetry.Metrics
	builtinPolicies []Policy
}

// compiledPolicy represents a compiled Rego policy.
type compiledPolicy struct {
	policy   *Policy
	module   *ast.Module
	compiled time.Time
}

// NewEngine creates a new policy engine with the built-in policies loaded.
func NewEngine(logger zerolog.Logger, metrics *telemetry.Metrics) (*Engine, error) {
	e := &Engine{
		policies:        make(map[string]*compiledPolicy),
		store:           inmem.New(),
		logger:          logger.With().Str("component", "policy-engine").Logger(),
		metrics:         metrics,
		builtinPolicies: GetBuiltinPolicies(),
	}

	if err := e.loadBuiltinPolicies(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load built-in policies: %w", err)
	}

	return e, nil
}

// Admit evaluates every enabled policy against every candidate and returns
// the candidates without denying violations. Warning-severity violations
// are logged and counted but do not exclude a candidate.
func (e *Engine) Admit(ctx context.Context, candidates []*routing.Candidate) ([]*routing.Candidate, error) {
	start := time.Now()
	e.mu.RLock()
	defer e.mu.RUnlock()

	admitted := make([]*routing.Candidate, 0, len(candidates))
	denied := 0

	for _, candidate := range candidates {
		violations, err := e.evaluateCandidate(ctx, candidate)
		if err != nil {
			return nil, err
		}

		deny := false
		for i := range violations {
			v := &violations[i]
			if v.Severity.denies() {
				deny = true
				e.metrics.RecordPolicyDenial(v.Policy)
				e.logger.Info().
					Str("policy", v.Policy).
					Str("candidate", candidate.Name).
					Str("severity", string(v.Severity)).
					Msg(v.Message)
			} else {
				e.logger.Debug().
					Str("policy", v.Policy).
					Str("candidate", candidate.Name).
					Str("severity", string(v.Severity)).
					Msg(v.Message)
			}
		}

		if deny {
			denied++
			continue
		}
		admitted = append(admitted, candidate)
	}

	e.logger.Debug().
		Int("candidates", len(candidates)).
		Int("denied", denied).
		Dur("duration", time.Since(start)).
		Msg("Admission policy evaluation completed")

	return admitted, nil
}

// EvaluateCandidate evaluates every enabled policy against one candidate
// and returns all violations, denying or not.
func (e *Engine) EvaluateCandidate(ctx context.Context, candidate *routing.Candidate) ([]Violation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.evaluateCandidate(ctx, candidate)
}

func (e *Engine) evaluateCandidate(ctx context.Context, candidate *routing.Candidate) ([]Violation, error) {
	input, err := candidateInput(candidate)
	if err != nil {
		return nil, err
	}

	var all []Violation
	for _, cp := range e.policies {
		if !cp.policy.Enabled {
			continue
		}
		violations, err := e.evaluatePolicy(ctx, cp, input)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", cp.policy.Name, err)
		}
		all = append(all, violations...)
	}
	return all, nil
}

// evaluatePolicy evaluates a single compiled policy against an input.
func (e *Engine) evaluatePolicy(ctx context.Context, cp *compiledPolicy, input *Input) ([]Violation, error) {
	packageName := extractPackageName(cp.policy.Rego)
	query := fmt.Sprintf("data.%s.deny", packageName)

	r := rego.New(
		rego.Module(cp.policy.Name, cp.policy.Rego),
		rego.Query(query),
		rego.Input(input),
		rego.Store(e.store),
	)

	results, err := r.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy evaluation error: %w", err)
	}

	var violations []Violation
	for _, result := range results {
		if len(result.Expressions) == 0 {
			continue
		}
		denySet, ok := result.Expressions[0].Value.([]interface{})
		if !ok {
			continue
		}
		for _, d := range denySet {
			violations = append(violations, e.createViolation(cp.policy, d))
		}
	}
	return violations, nil
}

// createViolation builds a Violation from a policy deny result.
func (e *Engine) createViolation(policy *Policy, result interface{}) Violation {
	violation := Violation{
		Policy:     policy.Name,
		Severity:   policy.Severity,
		DetectedAt: time.Now(),
	}

	switch v := result.(type) {
	case string:
		violation.Message = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			violation.Message = msg
		}
		if sev, ok := v["severity"].(string); ok {
			violation.Severity = Severity(sev)
		}
		if name, ok := v["candidate"].(string); ok {
			violation.Candidate = name
		}
	default:
		violation.Message = fmt.Sprintf("%v", result)
	}

	return violation
}

// AddPolicy compiles and registers a policy, replacing any policy of the
// same name.
func (e *Engine) AddPolicy(ctx context.Context, policy Policy) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.compileAndStorePolicy(ctx, &policy)
}

// SetPolicyEnabled toggles a registered policy.
func (e *Engine) SetPolicyEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp, ok := e.policies[name]
	if !ok {
		return fmt.Errorf("unknown policy: %s", name)
	}
	cp.policy.Enabled = enabled
	cp.policy.UpdatedAt = time.Now()
	return nil
}

// ListPolicies returns all registered policies.
func (e *Engine) ListPolicies() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Policy, 0, len(e.policies))
	for _, cp := range e.policies {
		out = append(out, *cp.policy)
	}
	return out
}

// compileAndStorePolicy compiles a policy and stores it.
func (e *Engine) compileAndStorePolicy(ctx context.Context, policy *Policy) error {
	module, err := ast.ParseModule(policy.Name, policy.Rego)
	if err != nil {
		return fmt.Errorf("failed to parse policy: %w", err)
	}

	// Compile eagerly so bad policies fail at load time, not per request.
	r := rego.New(
		rego.Module(policy.Name, policy.Rego),
		rego.Store(e.store),
		rego.Query("data"),
	)
	if _, err := r.PrepareForEval(ctx); err != nil {
		return fmt.Errorf("failed to prepare query: %w", err)
	}

	e.policies[policy.Name] = &compiledPolicy{
		policy:   policy,
		module:   module,
		compiled: time.Now(),
	}

	e.logger.Debug().
		Str("policy", policy.Name).
		Msg("Policy compiled successfully")

	return nil
}

// loadBuiltinPolicies loads the built-in policies.
func (e *Engine) loadBuiltinPolicies(ctx context.Context) error {
	for i := range e.builtinPolicies {
		if err := e.compileAndStorePolicy(ctx, &e.builtinPolicies[i]); err != nil {
			return fmt.Errorf("failed to compile built-in policy %s: %w", e.builtinPolicies[i].Name, err)
		}
	}

	e.logger.Info().
		Int("count", len(e.builtinPolicies)).
		Msg("Built-in policies loaded")

	return nil
}

// candidateInput converts a candidate to its JSON wire shape for Rego.
func candidateInput(candidate *routing.Candidate) (*Input, error) {
	raw, err := json.Marshal(candidate)
	if err != nil {
		return nil, fmt.Errorf("marshal candidate: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal candidate: %w", err)
	}
	return &Input{Candidate: m, Timestamp: time.Now()}, nil
}

// extractPackageName extracts the package name from Rego code.
func extractPackageName(regoCode string) string {
	for _, line := range strings.Split(regoCode, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				return parts[1]
			}
		}
	}
	return "routenet.policies"
}
