package matcher

import (
	"testing"

	"plugindiff/models"
	"plugindiff/pkg/catalog"
)

func buildCatalog(t *testing.T, recs ...models.Record) *catalog.Catalog {
	t.Helper()
	return catalog.FromRecords(recs)
}

func TestMatchExact(t *testing.T) {
	ref := buildCatalog(t, models.Record{Name: "akismet", Version: "5.3", URL: "https://ref/akismet"})
	cand := buildCatalog(t, models.Record{Name: "akismet", Version: "5.3", URL: "https://cand/akismet"})

	matches, leftover := New(0).Match(ref, cand)
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	m := matches[0]
	if m.Classification != models.MatchExact {
		t.Errorf("Classification = %v, want EXACT", m.Classification)
	}
	if m.Similarity != 1.0 {
		t.Errorf("Similarity = %v, want 1.0", m.Similarity)
	}
	if m.Freshness != models.FreshnessSame {
		t.Errorf("Freshness = %v, want SAME", m.Freshness)
	}
	if m.CandURL != "https://cand/akismet" {
		t.Errorf("CandURL = %q, want candidate url", m.CandURL)
	}
	if len(leftover) != 0 {
		t.Errorf("len(leftover) = %d, want 0", len(leftover))
	}
}

func TestMatchSimilar(t *testing.T) {
	ref := buildCatalog(t, models.Record{Name: "elementor", Version: "3.18.0"})
	cand := buildCatalog(t, models.Record{Name: "elementor pro", Version: "3.17.1"})

	matches, _ := New(0.80).Match(ref, cand)
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	m := matches[0]
	if m.Classification != models.MatchSimilar {
		t.Errorf("Classification = %v, want SIMILAR", m.Classification)
	}
	if m.Similarity < 0.80 || m.Similarity >= 1.0 {
		t.Errorf("Similarity = %v, want in [0.80, 1.0)", m.Similarity)
	}
	if m.Freshness != models.FreshnessUpdated {
		t.Errorf("Freshness = %v, want UPDATED", m.Freshness)
	}
}

func TestMatchMissing(t *testing.T) {
	ref := buildCatalog(t, models.Record{Name: "akismet", Version: "5.3"})
	cand := buildCatalog(t, models.Record{Name: "jetpack", Version: "13.0"})

	matches, leftover := New(0.80).Match(ref, cand)
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	m := matches[0]
	if m.Classification != models.MatchMissing {
		t.Errorf("Classification = %v, want MISSING", m.Classification)
	}
	if m.CandName != "" || m.CandVersion != "" {
		t.Errorf("candidate fields = (%q, %q), want empty", m.CandName, m.CandVersion)
	}
	if m.Freshness != models.FreshnessUnknown {
		t.Errorf("Freshness = %v, want UNKNOWN", m.Freshness)
	}
	if len(leftover) != 1 || leftover[0].Name != "jetpack" {
		t.Errorf("leftover = %v, want [jetpack]", leftover)
	}
}

func TestMatchConsumesCandidateOnce(t *testing.T) {
	ref := buildCatalog(t,
		models.Record{Name: "wordfence"},
		models.Record{Name: "wordfence security"},
	)
	cand := buildCatalog(t, models.Record{Name: "wordfence"})

	matches, _ := New(0.80).Match(ref, cand)
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Classification != models.MatchExact {
		t.Errorf("matches[0].Classification = %v, want EXACT", matches[0].Classification)
	}
	if matches[1].Classification != models.MatchMissing {
		t.Errorf("matches[1].Classification = %v, want MISSING", matches[1].Classification)
	}
}

func TestMatchGreedyFirstReferenceWins(t *testing.T) {
	// elementor grabs "elementor pro" before the exact-name reference
	// record gets a look in; later records see only what is left.
	ref := buildCatalog(t,
		models.Record{Name: "elementor"},
		models.Record{Name: "elementor pro"},
	)
	cand := buildCatalog(t, models.Record{Name: "elementor pro"})

	matches, _ := New(0.80).Match(ref, cand)
	if matches[0].Classification != models.MatchSimilar || matches[0].CandName != "elementor pro" {
		t.Errorf("matches[0] = %v %q, want SIMILAR elementor pro", matches[0].Classification, matches[0].CandName)
	}
	if matches[1].Classification != models.MatchMissing {
		t.Errorf("matches[1].Classification = %v, want MISSING", matches[1].Classification)
	}
}

func TestMatchFirstMaxWinsTies(t *testing.T) {
	// both candidates score 0.75 against abcd; the earlier one wins.
	ref := buildCatalog(t, models.Record{Name: "abcd"})
	cand := buildCatalog(t,
		models.Record{Name: "abcz"},
		models.Record{Name: "zbcd"},
	)

	matches, _ := New(0.70).Match(ref, cand)
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	if matches[0].CandName != "abcz" {
		t.Errorf("CandName = %q, want \"abcz\" (first of the tied pair)", matches[0].CandName)
	}
}

func TestMatchThresholdIsInclusive(t *testing.T) {
	ref := buildCatalog(t, models.Record{Name: "abcd"})
	cand := buildCatalog(t, models.Record{Name: "abcz"})

	matches, _ := New(0.75).Match(ref, cand)
	if matches[0].Classification != models.MatchSimilar {
		t.Errorf("Classification = %v, want SIMILAR at exactly the threshold", matches[0].Classification)
	}
}

func TestMatchEmptyCatalogs(t *testing.T) {
	empty := catalog.New()
	cand := buildCatalog(t, models.Record{Name: "akismet"})

	matches, leftover := New(0.80).Match(empty, cand)
	if len(matches) != 0 {
		t.Errorf("len(matches) = %d, want 0 for empty reference", len(matches))
	}
	if len(leftover) != 1 {
		t.Errorf("len(leftover) = %d, want 1", len(leftover))
	}

	ref := buildCatalog(t, models.Record{Name: "akismet"})
	matches, leftover = New(0.80).Match(ref, catalog.New())
	if len(matches) != 1 || matches[0].Classification != models.MatchMissing {
		t.Errorf("matches = %v, want one MISSING for empty candidate", matches)
	}
	if len(leftover) != 0 {
		t.Errorf("len(leftover) = %d, want 0", len(leftover))
	}
}

func TestMatchOutputInReferenceOrder(t *testing.T) {
	ref := buildCatalog(t,
		models.Record{Name: "zulu"},
		models.Record{Name: "alpha"},
		models.Record{Name: "mike"},
	)
	cand := buildCatalog(t,
		models.Record{Name: "alpha"},
		models.Record{Name: "zulu"},
	)

	matches, _ := New(0.80).Match(ref, cand)
	got := []string{matches[0].RefName, matches[1].RefName, matches[2].RefName}
	want := []string{"zulu", "alpha", "mike"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("matches[%d].RefName = %q, want %q", i, got[i], want[i])
		}
	}
}
