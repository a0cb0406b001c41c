package catalog

import (
	"reflect"
	"testing"

	"plugindiff/models"
)

func TestAddPreservesOrder(t *testing.T) {
	c := New()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if !c.Add(models.Record{Name: name}) {
			t.Fatalf("Add(%q) = false, want true", name)
		}
	}

	want := []string{"charlie", "alpha", "bravo"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestAddOverwritesInPlace(t *testing.T) {
	c := New()
	c.Add(models.Record{Name: "alpha", Version: "1.0"})
	c.Add(models.Record{Name: "bravo", Version: "1.0"})

	if c.Add(models.Record{Name: "alpha", Version: "2.0"}) {
		t.Error("Add() = true for existing name, want false")
	}

	want := []string{"alpha", "bravo"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	rec, ok := c.Get("alpha")
	if !ok {
		t.Fatal("Get(\"alpha\") not found")
	}
	if rec.Version != "2.0" {
		t.Errorf("rec.Version = %q, want \"2.0\"", rec.Version)
	}
}

func TestAddDropsNameless(t *testing.T) {
	c := New()
	if c.Add(models.Record{Version: "1.0"}) {
		t.Error("Add() = true for nameless record, want false")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestFromRecords(t *testing.T) {
	c := FromRecords([]models.Record{
		{Name: "alpha", Version: "1.0"},
		{Name: ""},
		{Name: "bravo", Version: "1.0"},
		{Name: "alpha", Version: "3.0"},
	})

	want := []string{"alpha", "bravo"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	rec, _ := c.Get("alpha")
	if rec.Version != "3.0" {
		t.Errorf("alpha version = %q, want \"3.0\" (last writer wins)", rec.Version)
	}
}

func TestRecordsMatchesNameOrder(t *testing.T) {
	c := FromRecords([]models.Record{
		{Name: "bravo", Version: "2.0"},
		{Name: "alpha", Version: "1.0"},
	})

	recs := c.Records()
	if len(recs) != 2 {
		t.Fatalf("len(Records()) = %d, want 2", len(recs))
	}
	if recs[0].Name != "bravo" || recs[1].Name != "alpha" {
		t.Errorf("Records() order = [%s %s], want [bravo alpha]", recs[0].Name, recs[1].Name)
	}
}
