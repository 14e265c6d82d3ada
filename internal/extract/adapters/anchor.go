package adapters

import (
	"context"
	"fmt"

	"github.com/ppiankov/tenderwatch/internal/extract"
	"github.com/ppiankov/tenderwatch/internal/logger"
	"github.com/ppiankov/tenderwatch/internal/model"
	"github.com/ppiankov/tenderwatch/internal/score"
)

// AnchorAdapter is a broad, selector-driven scraper: every matched link whose
// text hits at least one keyword becomes a notice. Buyer and deadline are not
// exposed by listing pages and stay nil.
type AnchorAdapter struct {
	name     string
	pageURL  string
	selector string
	fetcher  PageFetcher
	scorer   *score.Scorer
	log      logger.Logger
}

// NewAnchorAdapter creates an adapter for one listing page
func NewAnchorAdapter(name, pageURL, selector string, fetcher PageFetcher, scorer *score.Scorer, log logger.Logger) *AnchorAdapter {
	return &AnchorAdapter{
		name:     name,
		pageURL:  pageURL,
		selector: selector,
		fetcher:  fetcher,
		scorer:   scorer,
		log:      log.With(logger.String("source", name)),
	}
}

// Name returns the adapter name
func (a *AnchorAdapter) Name() string {
	return a.name
}

// FetchNotices fetches the page and scores each anchor's text
func (a *AnchorAdapter) FetchNotices(ctx context.Context) ([]model.Notice, error) {
	body, finalURL, err := a.fetcher.FetchPage(ctx, a.pageURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}
	if finalURL == "" {
		finalURL = a.pageURL
	}

	doc, err := extract.ParseHTML(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}

	anchors, err := extract.Anchors(doc, finalURL, a.selector)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}

	notices := make([]model.Notice, 0, len(anchors))
	for _, anchor := range anchors {
		if !a.scorer.Relevant(anchor.Text) {
			continue
		}
		notices = append(notices, model.Notice{
			Title:  anchor.Text,
			URL:    anchor.URL,
			Source: a.name,
		})
	}

	a.log.Debug("Scanned listing page",
		logger.String("url", finalURL),
		logger.Int("anchors", len(anchors)),
		logger.Int("candidates", len(notices)),
	)

	return notices, nil
}
