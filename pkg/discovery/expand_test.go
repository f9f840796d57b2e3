package discovery

import (
	"testing"
)

func contains(terms []string, want string) bool {
	for _, t := range terms {
		if t == want {
			return true
		}
	}
	return false
}

func TestExpandExactMatch(t *testing.T) {
	e := NewExpander()
	terms := e.Expand("Web Scraping")
	if !contains(terms, "crawl") || !contains(terms, "scrape") {
		t.Errorf("Expand(web scraping) = %v, want crawl and scrape", terms)
	}
}

func TestExpandPartialMatch(t *testing.T) {
	e := NewExpander()

	// Key is a substring of the input.
	terms := e.Expand("fast web scraping service")
	if !contains(terms, "crawl") {
		t.Errorf("Expand() = %v, want crawl from partial key match", terms)
	}

	// Input is a substring of the key.
	terms = e.Expand("scraping")
	if !contains(terms, "spider") {
		t.Errorf("Expand(scraping) = %v, want spider", terms)
	}
}

func TestExpandWordFallback(t *testing.T) {
	e := NewExpander()
	terms := e.Expand("quantum flux capacitors")
	want := []string{"quantum", "flux", "capacitors"}
	if len(terms) != len(want) {
		t.Fatalf("Expand() = %v, want %v", terms, want)
	}
	for i, w := range want {
		if terms[i] != w {
			t.Errorf("Expand()[%d] = %q, want %q", i, terms[i], w)
		}
	}
}

func TestExpandShortWordsDropped(t *testing.T) {
	e := NewExpander()
	terms := e.Expand("ai ok probability")
	if contains(terms, "ai") || contains(terms, "ok") {
		t.Errorf("Expand() = %v, words of <=2 chars should be dropped", terms)
	}
	if !contains(terms, "probability") {
		t.Errorf("Expand() = %v, want probability", terms)
	}
}

func TestExpandNeverEmpty(t *testing.T) {
	e := NewExpander()
	for _, input := range []string{"", "  ", "xy", "ab cd", "web scraping", "no such capability"} {
		terms := e.Expand(input)
		if len(terms) == 0 {
			t.Errorf("Expand(%q) returned no terms", input)
		}
	}
}

func TestExpandWholeInputLastResort(t *testing.T) {
	e := NewExpander()
	terms := e.Expand("xy")
	if len(terms) != 1 || terms[0] != "xy" {
		t.Errorf("Expand(xy) = %v, want [xy]", terms)
	}
}

func TestExpandDedupes(t *testing.T) {
	e := NewExpander()
	e.Replace(map[string][]string{
		"alpha": {"one", "two", "one"},
	})
	terms := e.Expand("alpha")
	if len(terms) != 2 {
		t.Errorf("Expand() = %v, want deduplicated [one two]", terms)
	}
}

func TestExpanderReplace(t *testing.T) {
	e := NewExpander()
	e.Replace(map[string][]string{"custom": {"special"}})

	if terms := e.Expand("custom"); !contains(terms, "special") {
		t.Errorf("Expand(custom) = %v after Replace", terms)
	}
	// The built-in table is gone.
	if terms := e.Expand("web scraping"); contains(terms, "crawl") {
		t.Errorf("Expand(web scraping) = %v, built-in table should be replaced", terms)
	}

	// Empty replacement restores the defaults.
	e.Replace(nil)
	if terms := e.Expand("web scraping"); !contains(terms, "crawl") {
		t.Errorf("Expand(web scraping) = %v after restoring defaults", terms)
	}
}
