// Package catalog holds the ordered record set produced by one crawl.
package catalog

import "plugindiff/models"

// Catalog maps normalized names to records while preserving first
// insertion order. Re-adding an existing name overwrites its record in
// place without moving it.
type Catalog struct {
	names   []string
	records map[string]models.Record
}

func New() *Catalog {
	return &Catalog{records: make(map[string]models.Record)}
}

// FromRecords builds a catalog from records in slice order. Nameless
// records are dropped and duplicate names keep the last record seen.
func FromRecords(recs []models.Record) *Catalog {
	c := New()
	for _, r := range recs {
		c.Add(r)
	}
	return c
}

// Add inserts or overwrites the record under its name and reports
// whether the name was new. Records without a name are dropped.
func (c *Catalog) Add(rec models.Record) bool {
	if rec.Name == "" {
		return false
	}
	_, exists := c.records[rec.Name]
	if !exists {
		c.names = append(c.names, rec.Name)
	}
	c.records[rec.Name] = rec
	return !exists
}

func (c *Catalog) Get(name string) (models.Record, bool) {
	rec, ok := c.records[name]
	return rec, ok
}

func (c *Catalog) Len() int {
	return len(c.names)
}

// Names returns the record names in insertion order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Records returns the records in insertion order.
func (c *Catalog) Records() []models.Record {
	out := make([]models.Record, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, c.records[n])
	}
	return out
}
