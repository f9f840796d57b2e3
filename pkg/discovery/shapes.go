package discovery

import (
	"encoding/json"

	"github.com/rplryan/x402-routenet/pkg/routing"
)

// Accepted candidate-list field names, in fallback order, for each
// Discovery API endpoint. The API has shipped several response shapes over
// time; adapters are tried in sequence and the first non-empty match wins.
var (
	searchShapeFields  = []string{"services", "results", "endpoints"}
	catalogShapeFields = []string{"endpoints", "services", "catalog", "results"}
)

// extractCandidates decodes a Discovery API payload into a candidate list.
// The payload is either an object holding the list under one of the given
// field names, or a bare list. Returns nil when no adapter matches.
func extractCandidates(payload []byte, fields []string) ([]*routing.Candidate, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err == nil {
		for _, field := range fields {
			raw, ok := obj[field]
			if !ok {
				continue
			}
			var candidates []*routing.Candidate
			if err := json.Unmarshal(raw, &candidates); err != nil {
				continue
			}
			if len(candidates) > 0 {
				return candidates, nil
			}
		}
		return nil, nil
	}

	// Not an object: accept an already-bare list.
	var candidates []*routing.Candidate
	if err := json.Unmarshal(payload, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}
