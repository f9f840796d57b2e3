package routing

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a routing failure for the adapters. Every input,
// including malformed upstream payloads, resolves to one of these classes
// or a successful decision; the engine never surfaces an unhandled fault.
type ErrorClass string

const (
	// ErrorClassNotFound indicates discovery produced no candidates for
	// the capability after all fallbacks.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassNoEligible indicates discovery succeeded but every
	// candidate was excluded by filters or the health rule.
	ErrorClassNoEligible ErrorClass = "no_eligible"

	// ErrorClassUnknownStrategy indicates a caller error: the requested
	// strategy is not in the catalog.
	ErrorClassUnknownStrategy ErrorClass = "unknown_strategy"
)

// RouteError is a classified routing failure with request context.
type RouteError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Capability is the capability that was requested.
	Capability string `json:"capability,omitempty"`

	// Strategy is the strategy that was requested, if relevant.
	Strategy Strategy `json:"strategy,omitempty"`

	// CandidatesChecked is how many raw candidates were evaluated before
	// filtering excluded them all. Only set for no_eligible errors.
	CandidatesChecked int `json:"candidates_checked,omitempty"`
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Class, e.Message)
}

// NewNotFoundError reports that no services were discovered for a capability.
func NewNotFoundError(capability string) *RouteError {
	return &RouteError{
		Class:      ErrorClassNotFound,
		Message:    fmt.Sprintf("No x402 services found for: %q", capability),
		Capability: capability,
	}
}

// NewNoEligibleError reports that filtering excluded every candidate.
func NewNoEligibleError(capability string, strategy Strategy, checked int) *RouteError {
	return &RouteError{
		Class:             ErrorClassNoEligible,
		Message:           "No services match the given filters",
		Capability:        capability,
		Strategy:          strategy,
		CandidatesChecked: checked,
	}
}

// NewUnknownStrategyError reports a caller error naming the invalid value.
func NewUnknownStrategyError(capability string, strategy Strategy) *RouteError {
	return &RouteError{
		Class:      ErrorClassUnknownStrategy,
		Message:    fmt.Sprintf("Unknown strategy: %q", string(strategy)),
		Capability: capability,
		Strategy:   strategy,
	}
}

// IsNotFound reports whether err is a not_found routing error.
func IsNotFound(err error) bool {
	return hasClass(err, ErrorClassNotFound)
}

// IsNoEligible reports whether err is a no_eligible routing error.
func IsNoEligible(err error) bool {
	return hasClass(err, ErrorClassNoEligible)
}

// IsUnknownStrategy reports whether err is an unknown_strategy routing error.
func IsUnknownStrategy(err error) bool {
	return hasClass(err, ErrorClassUnknownStrategy)
}

func hasClass(err error, class ErrorClass) bool {
	var re *RouteError
	if errors.As(err, &re) {
		return re.Class == class
	}
	return false
}
