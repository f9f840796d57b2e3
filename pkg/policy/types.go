package policy

import "time"

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for findings that should be reviewed but do not
	// exclude a candidate from routing.
	SeverityWarning Severity = "warning"

	// SeverityError excludes the candidate from routing.
	SeverityError Severity = "error"

	// SeverityCritical also excludes the candidate; reserved for
	// violations that should page someone.
	SeverityCritical Severity = "critical"
)

// denies reports whether a violation of this severity excludes a candidate.
func (s Severity) denies() bool {
	return s == SeverityError || s == SeverityCritical
}

// Policy represents an admission rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code. The policy package must expose
	// a "deny" set of violation objects.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// CreatedAt is when the policy was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the policy was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Violation represents a single policy violation against a candidate.
type Violation struct {
	// Policy is the name of the violated policy.
	Policy string `json:"policy"`

	// Candidate is the name of the candidate that violated the policy.
	Candidate string `json:"candidate,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`

	// DetectedAt is when the violation was detected.
	DetectedAt time.Time `json:"detected_at"`
}

// Input is the document handed to Rego evaluation, one candidate at a time.
type Input struct {
	// Candidate is the service record under evaluation, in its JSON
	// wire shape.
	Candidate map[string]any `json:"candidate"`

	// Timestamp is when the evaluation ran.
	Timestamp time.Time `json:"timestamp"`
}
