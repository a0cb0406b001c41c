// Package report reads and writes the CSV artifacts produced by crawls
// and catalog comparisons.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"plugindiff/models"
	"plugindiff/pkg/catalog"
)

// MissingNote annotates reference records that found no counterpart.
const MissingNote = "not found in candidate catalog"

var (
	catalogColumns = []string{"name", "version", "url", "raw_title"}
	matchColumns   = []string{"name_ref", "name_cand", "version_ref", "version_cand", "url_ref", "url_cand", "similarity", "freshness"}
	missingColumns = []string{"name_ref", "version_ref", "url_ref", "note"}
)

// WriteCatalog saves crawled records to path as CSV. The header row is
// written even when records is empty.
func WriteCatalog(path string, records []models.Record) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Name, r.Version, r.URL, r.RawTitle})
	}
	return writeCSV(path, catalogColumns, rows)
}

// ReadCatalog loads a catalog CSV previously written by WriteCatalog.
// Columns are located by header name, so column order does not matter;
// only the name column is mandatory.
func ReadCatalog(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	if _, ok := idx["name"]; !ok {
		return nil, fmt.Errorf("catalog file %s has no name column", path)
	}

	cat := catalog.New()
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row of %s: %w", path, err)
		}
		cat.Add(models.Record{
			Name:     field(row, idx, "name"),
			Version:  field(row, idx, "version"),
			URL:      field(row, idx, "url"),
			RawTitle: field(row, idx, "raw_title"),
		})
	}
	return cat, nil
}

// WriteMatches saves matched pairs to path as CSV with the similarity
// rendered as a percentage.
func WriteMatches(path string, matches []models.Match) error {
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{
			m.RefName,
			m.CandName,
			m.RefVersion,
			m.CandVersion,
			m.RefURL,
			m.CandURL,
			FormatSimilarity(m.Similarity),
			string(m.Freshness),
		})
	}
	return writeCSV(path, matchColumns, rows)
}

// WriteMissing saves reference records that matched nothing. Only the
// reference side is written since there is no candidate to report.
func WriteMissing(path string, matches []models.Match) error {
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{m.RefName, m.RefVersion, m.RefURL, MissingNote})
	}
	return writeCSV(path, missingColumns, rows)
}

// FormatSimilarity renders a ratio in [0,1] as a percentage with two
// decimals, e.g. 0.8182 becomes "81.82%".
func FormatSimilarity(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}

// Breakdown groups matches into the four report buckets.
type Breakdown struct {
	Exact    []models.Match
	Similar  []models.Match
	Outdated []models.Match
	Missing  []models.Match
}

// Split buckets matches by classification. Outdated holds the subset of
// exact and similar matches whose reference version lags the candidate,
// so its entries also appear in one of the other buckets.
func Split(matches []models.Match) Breakdown {
	var b Breakdown
	for _, m := range matches {
		switch m.Classification {
		case models.MatchExact:
			b.Exact = append(b.Exact, m)
		case models.MatchSimilar:
			b.Similar = append(b.Similar, m)
		case models.MatchMissing:
			b.Missing = append(b.Missing, m)
		}
		if m.Classification != models.MatchMissing && m.Freshness == models.FreshnessOutdated {
			b.Outdated = append(b.Outdated, m)
		}
	}
	return b
}

// WriteAll writes the four report files for a pair kind under dir,
// creating dir if needed, and returns the paths written.
func WriteAll(dir, kind string, b Breakdown) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	exact := filepath.Join(dir, kind+"_exact.csv")
	similar := filepath.Join(dir, kind+"_similar.csv")
	outdated := filepath.Join(dir, kind+"_outdated.csv")
	missing := filepath.Join(dir, kind+"_missing.csv")

	if err := WriteMatches(exact, b.Exact); err != nil {
		return nil, err
	}
	if err := WriteMatches(similar, b.Similar); err != nil {
		return nil, err
	}
	if err := WriteMatches(outdated, b.Outdated); err != nil {
		return nil, err
	}
	if err := WriteMissing(missing, b.Missing); err != nil {
		return nil, err
	}
	return []string{exact, similar, outdated, missing}, nil
}

func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}
