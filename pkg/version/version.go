// Package version classifies dotted version strings by freshness.
package version

import (
	"strconv"
	"strings"

	"plugindiff/models"
)

// Compare relates a reference version to a candidate version: UPDATED
// when the reference is ahead, OUTDATED when it is behind. Either side
// empty yields UNKNOWN. Components are compared numerically after
// zero-padding the shorter side; versions with non-numeric components
// fall back to string equality (SAME or UNKNOWN).
func Compare(ref, cand string) models.Freshness {
	if ref == "" || cand == "" {
		return models.FreshnessUnknown
	}
	refParts, refOK := parseParts(ref)
	candParts, candOK := parseParts(cand)
	if !refOK || !candOK {
		if ref == cand {
			return models.FreshnessSame
		}
		return models.FreshnessUnknown
	}
	for len(refParts) < len(candParts) {
		refParts = append(refParts, 0)
	}
	for len(candParts) < len(refParts) {
		candParts = append(candParts, 0)
	}
	for i := range refParts {
		switch {
		case refParts[i] > candParts[i]:
			return models.FreshnessUpdated
		case refParts[i] < candParts[i]:
			return models.FreshnessOutdated
		}
	}
	return models.FreshnessSame
}

func parseParts(v string) ([]int, bool) {
	fields := strings.Split(v, ".")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, false
		}
		parts = append(parts, n)
	}
	return parts, true
}
