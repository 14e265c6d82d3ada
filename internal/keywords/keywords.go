// Package keywords loads the lowercase keyword set used for relevance scoring.
package keywords

import (
	"bufio"
	"bytes"
	"os"
	"sort"
	"strings"
)

// Origin tells where a keyword set was loaded from
type Origin string

const (
	OriginFile    Origin = "file"
	OriginBuiltin Origin = "builtin"
)

// Builtin is the fallback list used when no keyword file exists
var Builtin = []string{
	"software", "web", "website", "mobile", "app", "android", "ios", "erp", "crm", "api",
	"devops", "security", "cybersecurity", "waf", "pam", "observability", "itsm",
	"integration", "database", "ai", "machine learning", "cloud", "portal", "digital", "ict",
}

// Set is an immutable set of lowercase keywords
type Set struct {
	words  []string
	origin Origin
}

// New builds a set from raw words: trimmed, lowercased, blanks and duplicates dropped
func New(words []string, origin Origin) *Set {
	seen := make(map[string]bool, len(words))
	normalized := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		normalized = append(normalized, w)
	}
	sort.Strings(normalized)
	return &Set{words: normalized, origin: origin}
}

// Load reads one keyword per line from path. A missing or unreadable file
// yields the builtin list; Load never fails.
func Load(path string) *Set {
	data, err := os.ReadFile(path)
	if err != nil {
		return New(Builtin, OriginBuiltin)
	}

	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	return New(words, OriginFile)
}

// Words returns the keywords in sorted order
func (s *Set) Words() []string {
	return append([]string(nil), s.words...)
}

// Len returns the number of keywords
func (s *Set) Len() int {
	return len(s.words)
}

// Origin returns where the set came from
func (s *Set) Origin() Origin {
	return s.origin
}
