// Package adapters turns tender listing pages into notice candidates.
package adapters

import (
	"context"
	"fmt"

	"github.com/ppiankov/tenderwatch/internal/extract"
	"github.com/ppiankov/tenderwatch/internal/logger"
	"github.com/ppiankov/tenderwatch/internal/model"
	"github.com/ppiankov/tenderwatch/internal/score"
)

// Adapter scrapes one tender listing site
type Adapter interface {
	// Name returns the source tag stamped on every notice
	Name() string

	// FetchNotices fetches the listing page and returns relevant candidates in page order
	FetchNotices(ctx context.Context) ([]model.Notice, error)
}

// PageFetcher retrieves a page body
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (body []byte, finalURL string, err error)
}

// Registry holds the configured adapters in run order
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates an anchor adapter for every configured source
func NewRegistry(sources []model.SourceConfig, fetcher PageFetcher, scorer *score.Scorer, log logger.Logger) (*Registry, error) {
	registry := &Registry{}

	for i, src := range sources {
		if src.Name == "" || src.URL == "" {
			return nil, fmt.Errorf("source %d: name and url are required", i)
		}
		selector := src.Selector
		if selector == "" {
			selector = extract.DefaultSelector
		}
		if err := extract.ValidateSelector(selector); err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		registry.Register(NewAnchorAdapter(src.Name, src.URL, selector, fetcher, scorer, log))
	}

	return registry, nil
}

// Register appends an adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// Adapters returns the adapters in registration order
func (r *Registry) Adapters() []Adapter {
	return append([]Adapter(nil), r.adapters...)
}
