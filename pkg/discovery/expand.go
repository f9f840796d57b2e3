package discovery

import (
	"strings"
	"sync"
)

// defaultSynonyms maps known capability phrases to broader search terms for
// the catalog keyword fallback. Operators can replace the table from a YAML
// file at runtime; the replacement swaps the whole table, entries are never
// mutated in place.
var defaultSynonyms = map[string][]string{
	"web scraping":       {"scrape", "scraping", "crawl", "crawler", "extract", "html", "spider"},
	"image generation":   {"image", "img", "picture", "art", "render", "diffusion", "generate"},
	"llm inference":      {"llm", "inference", "completion", "chat", "gpt", "model"},
	"text to speech":     {"tts", "speech", "voice", "audio", "speak"},
	"speech to text":     {"stt", "transcribe", "transcription", "whisper", "audio"},
	"translation":        {"translate", "translation", "language", "locale"},
	"sentiment analysis": {"sentiment", "emotion", "opinion", "nlp"},
	"summarization":      {"summary", "summarize", "tldr", "digest"},
	"stock":              {"stock", "equity", "ticker", "market", "finance", "quote"},
	"crypto price":       {"crypto", "price", "token", "coin", "exchange", "market"},
	"weather":            {"weather", "forecast", "temperature", "climate"},
	"search":             {"search", "query", "lookup", "find", "retrieval"},
	"email":              {"email", "mail", "smtp", "inbox", "send"},
	"pdf":                {"pdf", "document", "extract", "parse", "ocr"},
	"geocoding":          {"geocode", "geocoding", "address", "coordinates", "location", "map"},
}

// Expander widens a free-text capability into a set of search terms using
// a synonym table. The zero table falls back to the built-in defaults.
type Expander struct {
	mu    sync.RWMutex
	table map[string][]string
}

// NewExpander creates an expander over the built-in synonym table.
func NewExpander() *Expander {
	return &Expander{table: defaultSynonyms}
}

// Replace swaps the synonym table wholesale. A nil or empty table restores
// the built-in defaults.
func (e *Expander) Replace(table map[string][]string) {
	if len(table) == 0 {
		table = defaultSynonyms
	}
	e.mu.Lock()
	e.table = table
	e.mu.Unlock()
}

// Expand maps a capability string to a non-empty set of search terms.
// Lookup order: exact table match, then partial match (key is a substring
// of the input or vice versa, with every matching key contributing terms),
// then the input's own words longer than 2 characters, then the whole
// lowered input as a last resort.
//
// Partial matching can attach unrelated broad terms when a short capability
// overlaps an unrelated key. That looseness is intentional: the fallback
// path prefers over-matching the catalog to returning nothing.
func (e *Expander) Expand(capability string) []string {
	input := strings.ToLower(strings.TrimSpace(capability))

	e.mu.RLock()
	table := e.table
	e.mu.RUnlock()

	if terms, ok := table[input]; ok {
		return dedupe(terms)
	}

	var partial []string
	for key, terms := range table {
		if strings.Contains(input, key) || strings.Contains(key, input) {
			partial = append(partial, terms...)
		}
	}
	if len(partial) > 0 {
		return dedupe(partial)
	}

	var words []string
	for _, w := range strings.Fields(input) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	if len(words) > 0 {
		return dedupe(words)
	}

	return []string{input}
}

func dedupe(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
