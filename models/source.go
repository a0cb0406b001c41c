package models

// Crawl strategies. A classic source walks /page/N/ URLs; a loadmore
// source drives an AJAX load-more control and falls back to classic
// pagination when no control is present on the first page.
const (
	StrategyClassic  = "classic"
	StrategyLoadMore = "loadmore"
)

// SelectorConfig holds ordered CSS selector fallback chains. The first
// Containers selector matching at least one element on a page wins; the
// Titles and Links chains are tried per container in order.
type SelectorConfig struct {
	Containers []string `yaml:"containers"`
	Titles     []string `yaml:"titles"`
	Links      []string `yaml:"links"`
}

// LoadMoreConfig describes the AJAX load-more behavior of a source.
// Controls is the selector chain that detects the control; URLTemplate
// carries one %d placeholder for the load index.
type LoadMoreConfig struct {
	Controls    []string `yaml:"controls"`
	URLTemplate string   `yaml:"url_template"`
}

// SourceConfig declares one crawlable listing site. Selector chains live
// in configuration so a new site layout needs no code change.
type SourceConfig struct {
	Name         string         `yaml:"name"`
	BaseURL      string         `yaml:"base_url"`
	CategoryPath string         `yaml:"category_path"`
	Strategy     string         `yaml:"strategy"`
	RequireURL   bool           `yaml:"require_url"`
	Selectors    SelectorConfig `yaml:"selectors"`
	LoadMore     LoadMoreConfig `yaml:"load_more"`
}

// PairConfig names a reference/candidate source pairing to reconcile.
// The reference side drives match order and freshness orientation.
type PairConfig struct {
	Kind string `yaml:"kind"`
	Ref  string `yaml:"ref"`
	Cand string `yaml:"cand"`
}
