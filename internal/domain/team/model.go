package team

import (
	"fmt"
	"strings"
)

// Team is a league club as known to the stats provider.
type Team struct {
	ID           int64
	ExternalID   *int64
	Abbreviation string
	FullName     string
	TeamName     string
	LocationName string
	Venue        string
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.FullName) == "" {
		return fmt.Errorf("team full name is required")
	}
	if t.Abbreviation == "" {
		return fmt.Errorf("team abbreviation is required")
	}
	if len(t.Abbreviation) > 5 {
		return fmt.Errorf("team abbreviation %q exceeds 5 characters", t.Abbreviation)
	}
	return nil
}

// HasExternalID reports whether games can be looked up for this team.
func (t Team) HasExternalID() bool {
	return t.ExternalID != nil && *t.ExternalID > 0
}
