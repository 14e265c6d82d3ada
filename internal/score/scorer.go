// Package score computes keyword relevance for scraped listings.
package score

import (
	"strings"

	"github.com/ppiankov/tenderwatch/internal/keywords"
)

// Threshold is the minimum score for a listing to count as relevant
const Threshold = 1

// Scorer counts keyword hits in free text.
// Matching is plain substring containment, so "erp" also matches inside "superpower".
type Scorer struct {
	words []string
}

// NewScorer creates a scorer over the given keyword set
func NewScorer(set *keywords.Set) *Scorer {
	return &Scorer{words: set.Words()}
}

// Score returns how many distinct keywords occur in text, case-insensitively
func (s *Scorer) Score(text string) int {
	return len(s.Matches(text))
}

// Matches returns the keywords found in text, in keyword order
func (s *Scorer) Matches(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, w := range s.words {
		if strings.Contains(lower, w) {
			hits = append(hits, w)
		}
	}
	return hits
}

// Relevant reports whether text reaches the threshold
func (s *Scorer) Relevant(text string) bool {
	return s.Score(text) >= Threshold
}
