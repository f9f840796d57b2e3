package policy

import "time"

// GetBuiltinPolicies returns all built-in admission policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		priceCeilingPolicy(),
		missingEndpointPolicy(),
		unverifiedProvenancePolicy(),
		categoryAllowlistPolicy(),
	}
}

// priceCeilingPolicy rejects implausibly priced services. A unit price over
// $100 in a catalog of sub-cent API calls is a listing error or an attack.
func priceCeilingPolicy() Policy {
	return Policy{
		Name:        "price-ceiling",
		Description: "Rejects candidates priced above $100 per call",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"pricing", "sanity"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package routenet.policies.pricing

import rego.v1

deny contains violation if {
	input.candidate.price_usd > 100
	violation := {
		"message": sprintf("Service '%s' priced at $%v per call exceeds the $100 ceiling", [input.candidate.name, input.candidate.price_usd]),
		"severity": "error",
		"candidate": input.candidate.name,
	}
}
`,
	}
}

// missingEndpointPolicy rejects candidates that cannot be invoked.
func missingEndpointPolicy() Policy {
	return Policy{
		Name:        "missing-endpoint",
		Description: "Rejects candidates without an invocation URL",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"sanity"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package routenet.policies.endpoint

import rego.v1

deny contains violation if {
	not input.candidate.url
	violation := {
		"message": sprintf("Service '%s' has no invocation URL", [input.candidate.name]),
		"severity": "error",
		"candidate": input.candidate.name,
	}
}

deny contains violation if {
	input.candidate.url == ""
	violation := {
		"message": sprintf("Service '%s' has no invocation URL", [input.candidate.name]),
		"severity": "error",
		"candidate": input.candidate.name,
	}
}
`,
	}
}

// unverifiedProvenancePolicy flags candidates without on-chain provenance.
// Warning severity: flagged and counted, never excluded.
func unverifiedProvenancePolicy() Policy {
	return Policy{
		Name:        "unverified-provenance",
		Description: "Flags candidates without ERC-8004 verified provenance",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"provenance", "erc8004"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package routenet.policies.provenance

import rego.v1

deny contains violation if {
	not input.candidate.erc8004_verified
	violation := {
		"message": sprintf("Service '%s' is not ERC-8004 verified", [input.candidate.name]),
		"severity": "warning",
		"candidate": input.candidate.name,
	}
}
`,
	}
}

// categoryAllowlistPolicy restricts routing to the known category set.
// Disabled by default; operators enable it for locked-down deployments.
func categoryAllowlistPolicy() Policy {
	return Policy{
		Name:        "category-allowlist",
		Description: "Restricts routing to the known service categories",
		Severity:    SeverityError,
		Enabled:     false,
		Tags:        []string{"category"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package routenet.policies.category

import rego.v1

allowed_categories := {"data", "compute", "research", "agent", "utility"}

deny contains violation if {
	category := lower(object.get(input.candidate, "category", ""))
	not allowed_categories[category]
	violation := {
		"message": sprintf("Service '%s' category %q is not in the allowlist", [input.candidate.name, category]),
		"severity": "error",
		"candidate": input.candidate.name,
	}
}
`,
	}
}
