// Package matcher reconciles a reference catalog against a candidate
// catalog by greedy fuzzy name matching.
package matcher

import (
	"plugindiff/models"
	"plugindiff/pkg/catalog"
	"plugindiff/pkg/similarity"
	"plugindiff/pkg/version"
)

// DefaultThreshold is the minimum similarity for two names to count as
// the same item.
const DefaultThreshold = 0.80

type Matcher struct {
	Threshold float64
}

func New(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

// Match walks the reference catalog in order and pairs each record with
// its best not-yet-consumed candidate. A best score at or above the
// threshold consumes that candidate and yields EXACT (score 1.0) or
// SIMILAR; anything below leaves the reference record MISSING with no
// candidate fields and UNKNOWN freshness. Ties go to the first
// candidate reaching the maximum score; each candidate matches at most
// one reference record, first come first served in reference order.
// Returns matches in reference order plus the unconsumed candidates in
// candidate order.
func (m *Matcher) Match(ref, cand *catalog.Catalog) ([]models.Match, []models.Record) {
	candRecords := cand.Records()
	consumed := make([]bool, len(candRecords))

	matches := make([]models.Match, 0, ref.Len())
	for _, r := range ref.Records() {
		bestIdx := -1
		bestScore := 0.0
		for i, c := range candRecords {
			if consumed[i] {
				continue
			}
			if score := similarity.Ratio(r.Name, c.Name); score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx < 0 || bestScore < m.Threshold {
			matches = append(matches, models.Match{
				RefName:        r.Name,
				RefVersion:     r.Version,
				RefURL:         r.URL,
				Similarity:     bestScore,
				Classification: models.MatchMissing,
				Freshness:      models.FreshnessUnknown,
			})
			continue
		}

		consumed[bestIdx] = true
		c := candRecords[bestIdx]
		class := models.MatchSimilar
		if bestScore == 1.0 {
			class = models.MatchExact
		}
		matches = append(matches, models.Match{
			RefName:        r.Name,
			CandName:       c.Name,
			RefVersion:     r.Version,
			CandVersion:    c.Version,
			RefURL:         r.URL,
			CandURL:        c.URL,
			Similarity:     bestScore,
			Classification: class,
			Freshness:      version.Compare(r.Version, c.Version),
		})
	}

	var leftover []models.Record
	for i, c := range candRecords {
		if !consumed[i] {
			leftover = append(leftover, c)
		}
	}
	return matches, leftover
}
