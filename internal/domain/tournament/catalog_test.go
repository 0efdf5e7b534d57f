package tournament

import (
	"slices"
	"testing"
)

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	c, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if c.SportID != 51 || c.LeagueID != 160 {
		t.Fatalf("unexpected provider ids: sport=%d league=%d", c.SportID, c.LeagueID)
	}
	if !slices.Equal(c.Years(), []int{2006, 2009, 2013, 2017, 2023, 2026}) {
		t.Fatalf("unexpected years: %v", c.Years())
	}
	if !slices.Equal(c.CompletedYears(), []int{2006, 2009, 2013, 2017, 2023}) {
		t.Fatalf("unexpected completed years: %v", c.CompletedYears())
	}

	e, ok := c.Edition(2013)
	if !ok || e.Champion != "Dominican Republic" || e.RunnerUp != "Puerto Rico" {
		t.Fatalf("unexpected 2013 edition: %+v", e)
	}
	if _, ok := c.Edition(2010); ok {
		t.Fatalf("2010 is not an edition")
	}
}

func TestCatalogIsNational(t *testing.T) {
	t.Parallel()

	c, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if !c.IsNational("Chinese Taipei") {
		t.Fatalf("expected Chinese Taipei to be national")
	}
	if c.IsNational("New York Yankees") {
		t.Fatalf("club team must not be national")
	}
}

func TestParseCatalogRejectsEmpty(t *testing.T) {
	t.Parallel()

	if _, err := ParseCatalog([]byte(`name = "x"`)); err == nil {
		t.Fatalf("expected error for catalog without editions")
	}
	if _, err := ParseCatalog([]byte(`not toml ===`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
