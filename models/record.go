package models

// Record is one normalized catalog entry produced by a crawl.
// Name is cleaned and lowercased and never empty; Version and URL are
// empty strings when the listing carried neither.
type Record struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	URL      string `json:"url"`
	RawTitle string `json:"raw_title"`
}

// MatchClass classifies the outcome of matching one reference record
// against the candidate catalog.
type MatchClass string

const (
	MatchExact   MatchClass = "EXACT"
	MatchSimilar MatchClass = "SIMILAR"
	MatchMissing MatchClass = "MISSING"
)

// Freshness relates a reference version to its matched candidate version.
// UPDATED means the reference is ahead, OUTDATED means the reference is
// behind, UNKNOWN means one side had no parseable version.
type Freshness string

const (
	FreshnessUpdated  Freshness = "UPDATED"
	FreshnessOutdated Freshness = "OUTDATED"
	FreshnessSame     Freshness = "SAME"
	FreshnessUnknown  Freshness = "UNKNOWN"
)

// Match pairs one reference record with its best candidate, if any.
// Candidate fields are empty for MISSING matches. Once produced a Match
// is never mutated.
type Match struct {
	RefName        string     `json:"name_ref"`
	CandName       string     `json:"name_cand"`
	RefVersion     string     `json:"version_ref"`
	CandVersion    string     `json:"version_cand"`
	RefURL         string     `json:"url_ref"`
	CandURL        string     `json:"url_cand"`
	Similarity     float64    `json:"similarity"`
	Classification MatchClass `json:"classification"`
	Freshness      Freshness  `json:"freshness"`
}
