package scraper

import (
	"errors"
	"fmt"
	"time"

	"plugindiff/pkg/catalog"
	"plugindiff/pkg/fetcher"
)

// classicScraper walks numbered listing pages until the limit, a not
// found response, an empty page, or a page with nothing new.
type classicScraper struct {
	base
}

func (s *classicScraper) FetchCatalog(maxPages int) (*catalog.Catalog, error) {
	if maxPages < 1 {
		maxPages = 1
	}
	cat := catalog.New()

	for page := 1; page <= maxPages; page++ {
		url := pageURL(s.cfg, page)
		doc, err := s.fetch.GetHtml(url)
		if err != nil {
			if errors.Is(err, fetcher.ErrNotFound) {
				s.logger.Info("no more pages", "source", s.cfg.Name, "page", page)
				break
			}
			if page == 1 {
				return cat, fmt.Errorf("failed to fetch first page of %s: %w", s.cfg.Name, err)
			}
			s.logger.Warn("stopping pagination", "source", s.cfg.Name, "page", page, "error", err)
			break
		}

		containers, added := collectRecords(doc, s.cfg, cat)
		if containers == 0 {
			s.logger.Info("no containers found", "source", s.cfg.Name, "page", page)
			break
		}
		if added == 0 {
			s.logger.Info("no new records", "source", s.cfg.Name, "page", page)
			break
		}
		s.logger.Info("page crawled", "source", s.cfg.Name, "page", page, "containers", containers, "new", added)

		if page < maxPages {
			time.Sleep(s.opts.Delay)
		}
	}
	return cat, nil
}
