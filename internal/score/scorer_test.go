package score

import (
	"testing"

	"github.com/ppiankov/tenderwatch/internal/keywords"
)

func newScorer(words ...string) *Scorer {
	return NewScorer(keywords.New(words, keywords.OriginBuiltin))
}

func TestScorer_Score(t *testing.T) {
	scorer := newScorer("erp", "web", "machine learning")

	tests := []struct {
		text string
		want int
	}{
		{"Office Chairs", 0},
		{"", 0},
		{"ERP System Tender", 1},
		{"Web-based ERP rollout", 2},
		{"Superpower generators", 1}, // "erp" inside "superpower"
		{"erp erp erp", 1},           // distinct keywords, not occurrences
		{"MACHINE LEARNING platform for the web", 2},
		{"machine-learning", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := scorer.Score(tt.text); got != tt.want {
				t.Errorf("Score(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestScorer_Relevant(t *testing.T) {
	scorer := newScorer("erp", "web")

	if !scorer.Relevant("ERP System Tender http://x/1") {
		t.Error("Expected ERP notice to be relevant")
	}
	if scorer.Relevant("Office Chairs http://x/2") {
		t.Error("Expected chairs notice to be irrelevant")
	}
	// URL text counts too
	if !scorer.Relevant("Notice 42 http://x/web-portal") {
		t.Error("Expected keyword in URL to make the notice relevant")
	}
}

func TestScorer_EmptyKeywordSet(t *testing.T) {
	scorer := newScorer()
	if scorer.Score("software web erp") != 0 {
		t.Error("Expected zero score with no keywords")
	}
}

func TestScorer_Matches(t *testing.T) {
	scorer := newScorer("web", "api", "cloud")
	got := scorer.Matches("Cloud API gateway")

	if len(got) != 2 || got[0] != "api" || got[1] != "cloud" {
		t.Errorf("Unexpected matches: %v", got)
	}
}
