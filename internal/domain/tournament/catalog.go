package tournament

import (
	_ "embed"
	"fmt"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed catalog.toml
var catalogTOML []byte

type Edition struct {
	Year     int    `toml:"year"`
	Champion string `toml:"champion"`
	RunnerUp string `toml:"runner_up"`
}

// Completed reports whether the final has been played.
func (e Edition) Completed() bool {
	return e.Champion != ""
}

// Catalog is the static description of the tournament: its editions and the
// national teams whose games are tracked.
type Catalog struct {
	Name      string    `toml:"name"`
	SportID   int       `toml:"sport_id"`
	LeagueID  int       `toml:"league_id"`
	Countries []string  `toml:"countries"`
	Editions  []Edition `toml:"editions"`

	national map[string]struct{}
}

func LoadCatalog() (Catalog, error) {
	return ParseCatalog(catalogTOML)
}

func ParseCatalog(raw []byte) (Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode tournament catalog: %w", err)
	}
	if c.Name == "" {
		return Catalog{}, fmt.Errorf("tournament catalog name is required")
	}
	if len(c.Editions) == 0 {
		return Catalog{}, fmt.Errorf("tournament catalog has no editions")
	}

	slices.SortFunc(c.Editions, func(a, b Edition) int { return a.Year - b.Year })
	c.national = make(map[string]struct{}, len(c.Countries))
	for _, name := range c.Countries {
		c.national[name] = struct{}{}
	}
	return c, nil
}

// IsNational reports whether a team name is on the national-team allow-list.
func (c Catalog) IsNational(teamName string) bool {
	_, ok := c.national[teamName]
	return ok
}

func (c Catalog) Edition(year int) (Edition, bool) {
	for _, e := range c.Editions {
		if e.Year == year {
			return e, true
		}
	}
	return Edition{}, false
}

func (c Catalog) Years() []int {
	out := make([]int, 0, len(c.Editions))
	for _, e := range c.Editions {
		out = append(out, e.Year)
	}
	return out
}

// CompletedYears lists editions whose final has been played.
func (c Catalog) CompletedYears() []int {
	out := make([]int, 0, len(c.Editions))
	for _, e := range c.Editions {
		if e.Completed() {
			out = append(out, e.Year)
		}
	}
	return out
}
