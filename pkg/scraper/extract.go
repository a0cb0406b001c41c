package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"plugindiff/models"
	"plugindiff/pkg/catalog"
	"plugindiff/pkg/normalize"
)

// Built-in fallback chains, used when a source configures none. The
// container chain runs from specific post markers to the generic
// article tag; titles prefer heading elements carrying a title class.
var (
	defaultContainers = []string{"article[class*=post]", "div.post-item", "article"}
	defaultTitles     = []string{"h2[class*=title], h3[class*=title], h4[class*=title]", "h2, h3, h4"}
	defaultLinks      = []string{"a[href]"}
)

func containerChain(cfg models.SourceConfig) []string {
	if len(cfg.Selectors.Containers) > 0 {
		return cfg.Selectors.Containers
	}
	return defaultContainers
}

func titleChain(cfg models.SourceConfig) []string {
	if len(cfg.Selectors.Titles) > 0 {
		return cfg.Selectors.Titles
	}
	return defaultTitles
}

func linkChain(cfg models.SourceConfig) []string {
	if len(cfg.Selectors.Links) > 0 {
		return cfg.Selectors.Links
	}
	return defaultLinks
}

// collectRecords extracts every container's record from doc into cat.
// It returns the container count of the winning selector and how many
// records were new to the catalog.
func collectRecords(doc *goquery.Document, cfg models.SourceConfig, cat *catalog.Catalog) (containers, added int) {
	var matched *goquery.Selection
	for _, sel := range containerChain(cfg) {
		if found := doc.Find(sel); found.Length() > 0 {
			matched = found
			break
		}
	}
	if matched == nil {
		return 0, 0
	}

	matched.Each(func(_ int, container *goquery.Selection) {
		rec, ok := extractRecord(container, cfg)
		if !ok {
			return
		}
		if cat.Add(rec) {
			added++
		}
	})
	return matched.Length(), added
}

// extractRecord pulls one record out of a listing container. Containers
// without a title element, with a title that cleans to nothing, or
// without a link when the source requires one are skipped.
func extractRecord(container *goquery.Selection, cfg models.SourceConfig) (models.Record, bool) {
	var title *goquery.Selection
	for _, sel := range titleChain(cfg) {
		if found := container.Find(sel); found.Length() > 0 {
			title = found.First()
			break
		}
	}
	if title == nil {
		return models.Record{}, false
	}

	rawTitle := strings.Join(strings.Fields(title.Text()), " ")
	name := normalize.CleanName(rawTitle)
	if name == "" {
		return models.Record{}, false
	}

	// A link inside the title element wins over the configured chain.
	href := ""
	if a := title.Find("a").First(); a.Length() > 0 {
		href, _ = a.Attr("href")
	} else {
		for _, sel := range linkChain(cfg) {
			if a := container.Find(sel).First(); a.Length() > 0 {
				href, _ = a.Attr("href")
				break
			}
		}
	}
	href = absolutize(cfg.BaseURL, href)
	if cfg.RequireURL && href == "" {
		return models.Record{}, false
	}

	return models.Record{
		Name:     name,
		Version:  normalize.ExtractVersion(rawTitle),
		URL:      href,
		RawTitle: rawTitle,
	}, true
}
