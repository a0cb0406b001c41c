package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"plugindiff/pkg/catalog"
	"plugindiff/pkg/fetcher"
)

// Control selectors tried when a source configures none. JetEngine grids
// are the common case on the sites this was written for.
var defaultLoadMoreControls = []string{
	".jet-listing-grid__load-more",
	"a.load-more, button.load-more",
	"[data-load-more]",
}

// loadMoreScraper fetches the first listing page, then drives the
// site's load-more endpoint for additional batches. Without a
// detectable control it degrades to probing /page/N/ shapes.
type loadMoreScraper struct {
	base
}

func (s *loadMoreScraper) FetchCatalog(maxPages int) (*catalog.Catalog, error) {
	if maxPages < 1 {
		maxPages = 1
	}
	cat := catalog.New()

	doc, err := s.fetch.GetHtml(pageURL(s.cfg, 1))
	if err != nil {
		if errors.Is(err, fetcher.ErrNotFound) {
			s.logger.Info("listing page not found", "source", s.cfg.Name)
			return cat, nil
		}
		return cat, fmt.Errorf("failed to fetch first page of %s: %w", s.cfg.Name, err)
	}

	containers, added := collectRecords(doc, s.cfg, cat)
	if containers == 0 {
		s.logger.Info("no containers found", "source", s.cfg.Name)
		return cat, nil
	}
	s.logger.Info("page crawled", "source", s.cfg.Name, "page", 1, "containers", containers, "new", added)

	if s.hasLoadMoreControl(doc) && s.cfg.LoadMore.URLTemplate != "" {
		s.loadBatches(cat)
	} else {
		s.logger.Info("no load-more control, probing pages", "source", s.cfg.Name)
		s.probePages(cat, maxPages)
	}
	return cat, nil
}

func (s *loadMoreScraper) hasLoadMoreControl(doc *goquery.Document) bool {
	chain := s.cfg.LoadMore.Controls
	if len(chain) == 0 {
		chain = defaultLoadMoreControls
	}
	for _, sel := range chain {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// loadBatches issues follow-up requests from the configured URL
// template, batch 1 being page 2. Responses are either JSON-wrapped
// HTML or a raw fragment depending on content type. Stops at the load
// cap, on transport failure, on an unusable body, or when a batch
// brings nothing new.
func (s *loadMoreScraper) loadBatches(cat *catalog.Catalog) {
	for load := 1; load <= s.opts.MaxLoads; load++ {
		if load > 1 {
			time.Sleep(s.opts.Delay)
		}
		url := fmt.Sprintf(s.cfg.LoadMore.URLTemplate, load+1)
		body, contentType, err := s.fetch.GetBytes(url)
		if err != nil {
			s.logger.Warn("load-more request failed", "source", s.cfg.Name, "load", load, "error", err)
			return
		}

		fragment := string(body)
		if strings.Contains(contentType, "json") {
			unwrapped, ok := unwrapJSON(body)
			if !ok {
				s.logger.Warn("load-more response had no html payload", "source", s.cfg.Name, "load", load)
				return
			}
			fragment = unwrapped
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
		if err != nil {
			s.logger.Warn("failed to parse load-more fragment", "source", s.cfg.Name, "load", load, "error", err)
			return
		}
		_, added := collectRecords(doc, s.cfg, cat)
		if added == 0 {
			s.logger.Info("no new records", "source", s.cfg.Name, "load", load)
			return
		}
		s.logger.Info("batch loaded", "source", s.cfg.Name, "load", load, "new", added)
	}
}

// probePages is the classic fallback from page 2 on. Any fetch problem
// ends the probe quietly since page 1 already produced records.
func (s *loadMoreScraper) probePages(cat *catalog.Catalog, maxPages int) {
	for page := 2; page <= maxPages; page++ {
		time.Sleep(s.opts.Delay)
		doc, err := s.fetch.GetHtml(pageURL(s.cfg, page))
		if err != nil {
			s.logger.Info("probe stopped", "source", s.cfg.Name, "page", page, "error", err)
			return
		}
		containers, added := collectRecords(doc, s.cfg, cat)
		if containers == 0 || added == 0 {
			return
		}
		s.logger.Info("page crawled", "source", s.cfg.Name, "page", page, "containers", containers, "new", added)
	}
}

// unwrapJSON extracts the HTML payload from a JSON load-more response,
// accepting the content, html, and data.html shapes.
func unwrapJSON(body []byte) (string, bool) {
	var payload struct {
		Content string `json:"content"`
		HTML    string `json:"html"`
		Data    struct {
			HTML string `json:"html"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	switch {
	case payload.Content != "":
		return payload.Content, true
	case payload.HTML != "":
		return payload.HTML, true
	case payload.Data.HTML != "":
		return payload.Data.HTML, true
	}
	return "", false
}
