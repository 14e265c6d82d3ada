// Package validate probes configured sources without touching state or sending mail.
package validate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/tenderwatch/internal/extract"
	"github.com/ppiankov/tenderwatch/internal/extract/adapters"
	"github.com/ppiankov/tenderwatch/internal/model"
	"github.com/ppiankov/tenderwatch/internal/score"
)

// SourceReport is the health of one source page
type SourceReport struct {
	Name      string
	URL       string
	FinalURL  string
	Reachable bool
	Anchors   int // anchors matched by the selector
	Relevant  int // of those, anchors whose text matches a keyword
	Duration  time.Duration
	Error     string
}

// Healthy reports whether the page loaded and the selector still finds anchors.
// A reachable page with zero anchors usually means the site layout changed.
func (r SourceReport) Healthy() bool {
	return r.Reachable && r.Anchors > 0
}

// Prober checks sources concurrently
type Prober struct {
	fetcher    adapters.PageFetcher
	scorer     *score.Scorer
	maxWorkers int
}

// NewProber creates a new prober
func NewProber(fetcher adapters.PageFetcher, scorer *score.Scorer, maxWorkers int) *Prober {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &Prober{
		fetcher:    fetcher,
		scorer:     scorer,
		maxWorkers: maxWorkers,
	}
}

// Probe checks every source and returns one report per source, in input order
func (p *Prober) Probe(ctx context.Context, sources []model.SourceConfig) []SourceReport {
	reports := make([]SourceReport, len(sources))
	if len(sources) == 0 {
		return reports
	}

	var wg sync.WaitGroup

	// Create semaphore to limit concurrent requests
	semaphore := make(chan struct{}, p.maxWorkers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s model.SourceConfig) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				reports[idx] = SourceReport{
					Name:  s.Name,
					URL:   s.URL,
					Error: "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			reports[idx] = p.probeOne(ctx, s)
		}(i, src)
	}

	wg.Wait()
	return reports
}

func (p *Prober) probeOne(ctx context.Context, src model.SourceConfig) SourceReport {
	report := SourceReport{Name: src.Name, URL: src.URL}
	start := time.Now()

	body, finalURL, err := p.fetcher.FetchPage(ctx, src.URL)
	report.Duration = time.Since(start)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Reachable = true
	report.FinalURL = finalURL

	doc, err := extract.ParseHTML(body)
	if err != nil {
		report.Error = fmt.Sprintf("parse page: %v", err)
		return report
	}

	anchors, err := extract.Anchors(doc, finalURL, src.Selector)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Anchors = len(anchors)
	for _, a := range anchors {
		if p.scorer.Relevant(a.Text) {
			report.Relevant++
		}
	}
	return report
}
