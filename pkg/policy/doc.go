// Package policy implements the pluggable admission layer of the decision
// engine: Rego policies evaluated against each discovered candidate before
// ranking. Candidates with error-severity violations are excluded from
// routing; warning-severity violations are logged and counted only.
//
// Built-in policies cover pricing sanity and provenance checks. Operators
// can load additional .rego policies from disk.
package policy
