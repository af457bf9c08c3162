package crawler

import (
	"context"
	"log/slog"

	"capellawish/internal/domain"
)

// Crawler ties the fetch, parse and extract steps together
type Crawler struct {
	fetcher *Fetcher
	backend string
	logger  *slog.Logger
}

// New creates a crawler using the given fetcher and parser backend
func New(fetcher *Fetcher, backend string, logger *slog.Logger) *Crawler {
	if backend == "" {
		backend = DefaultBackend
	}
	return &Crawler{
		fetcher: fetcher,
		backend: backend,
		logger:  logger,
	}
}

// RetrieveData fetches a page and extracts its OpenGraph properties.
//
// Network failures during retrieval are swallowed and logged, yielding an
// empty map rather than an error: a missing page should not crash an
// enrichment run, only skip it. This policy is intentionally narrow; errors
// elsewhere in the pipeline still propagate.
func (c *Crawler) RetrieveData(ctx context.Context, url string) domain.PropertyMap {
	resp, err := c.fetcher.Fetch(ctx, url, nil)
	if err != nil {
		c.logger.Warn("Could not retrieve page", "url", url, "error", err)
		return domain.PropertyMap{}
	}

	doc := Parse(resp.Body, c.backend, c.logger)

	properties, err := ExtractOpenGraph(doc, nil)
	if err != nil {
		c.logger.Warn("Could not extract properties from page", "url", url, "error", err)
		return domain.PropertyMap{}
	}

	if len(properties) == 0 {
		c.logger.Info("No OpenGraph properties found in page", "url", url)
	}
	return properties
}
