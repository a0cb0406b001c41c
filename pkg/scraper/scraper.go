// Package scraper crawls listing sites into ordered catalogs. Each
// source declares its pagination strategy and selector fallback chains
// in configuration; the two strategies here implement classic /page/N/
// walking and AJAX load-more driving with a pagination fallback.
package scraper

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"plugindiff/models"
	"plugindiff/pkg/catalog"
	"plugindiff/pkg/fetcher"
)

// Scraper produces the catalog for one source. Implementations own
// their HTTP session and are not safe for concurrent use; build one per
// crawl execution.
type Scraper interface {
	FetchCatalog(maxPages int) (*catalog.Catalog, error)
}

// Options tunes crawl behavior shared by both strategies.
type Options struct {
	Delay    time.Duration
	MaxLoads int
}

// New builds the scraper for a source with a fresh HTTP session.
func New(cfg models.SourceConfig, opts Options, logger *slog.Logger) Scraper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxLoads < 1 {
		opts.MaxLoads = 5
	}
	b := base{cfg: cfg, opts: opts, fetch: fetcher.NewFetcher(), logger: logger}
	if cfg.Strategy == models.StrategyLoadMore {
		return &loadMoreScraper{base: b}
	}
	return &classicScraper{base: b}
}

type base struct {
	cfg    models.SourceConfig
	opts   Options
	fetch  *fetcher.Fetcher
	logger *slog.Logger
}

// pageURL builds the listing URL for a page number: the bare category
// URL for page 1, the /page/N/ form after that.
func pageURL(cfg models.SourceConfig, page int) string {
	base := strings.TrimSuffix(cfg.BaseURL, "/") + ensureSlashes(cfg.CategoryPath)
	if page == 1 {
		return base
	}
	return base + fmt.Sprintf("page/%d/", page)
}

func ensureSlashes(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}

func absolutize(baseURL, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(href, "/")
}
