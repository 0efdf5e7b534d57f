package player

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// TeamSetName is the placeholder owner of team-set cards.
const TeamSetName = "Team Set"

// Player is a card subject. ExternalID is the stats-provider id and, once
// set, is never reassigned.
type Player struct {
	ID                int64
	FullName          string
	FirstName         string
	LastName          string
	TeamID            *int64
	ExternalID        *int64
	Nationality       string
	Position          string
	IsActive          bool
	TournamentYears   []int
	TournamentCountry string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (p Player) Validate() error {
	if strings.TrimSpace(p.FullName) == "" {
		return fmt.Errorf("player full name is required")
	}
	if p.ExternalID != nil && *p.ExternalID <= 0 {
		return fmt.Errorf("player external id must be > 0")
	}
	return nil
}

// IsPlaceholder reports whether the player is a sentinel owner rather than a
// real person.
func (p Player) IsPlaceholder() bool {
	return strings.EqualFold(strings.TrimSpace(p.FullName), TeamSetName)
}

// SplitName takes the first token as the first name and the rest as the last.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// MergeYears returns the sorted union of both year lists.
func MergeYears(existing, add []int) []int {
	out := make([]int, 0, len(existing)+len(add))
	out = append(out, existing...)
	out = append(out, add...)
	slices.Sort(out)
	return slices.Compact(out)
}

var (
	// ErrExternalIDTaken means another player already holds the external id.
	ErrExternalIDTaken = errors.New("external id already assigned to another player")
	// ErrExternalIDImmutable means the player already has a different external id.
	ErrExternalIDImmutable = errors.New("player external id is already set")
)
