package card

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	SetName  = "Topps NOW"
	SetBrand = "Topps"

	teamSetPrefix = "TEAMSET-"
	hashedPrefix  = "SP-"
)

// Kind tells how a card's number was derived.
type Kind string

const (
	KindSequential Kind = "sequential"
	KindTeamSet    Kind = "team_set"
	KindHashed     Kind = "hashed"
)

// Identity is the natural key of a card within its set. Exactly one of
// Number, Team or Hash is meaningful, selected by Kind.
type Identity struct {
	Kind     Kind
	Number   string
	Team     string
	Hash     string
	Category string
}

func Sequential(number string) Identity {
	return Identity{Kind: KindSequential, Number: strings.ToUpper(strings.TrimSpace(number))}
}

func TeamSet(abbreviation string) Identity {
	return Identity{Kind: KindTeamSet, Team: strings.ToUpper(strings.TrimSpace(abbreviation))}
}

func Hashed(hash, category string) Identity {
	return Identity{Kind: KindHashed, Hash: strings.ToUpper(strings.TrimSpace(hash)), Category: category}
}

// CardNumber renders the identity as the stored card number.
func (i Identity) CardNumber() string {
	switch i.Kind {
	case KindTeamSet:
		return teamSetPrefix + i.Team
	case KindHashed:
		return hashedPrefix + i.Hash
	default:
		return i.Number
	}
}

func (i Identity) Validate() error {
	var value string
	switch i.Kind {
	case KindSequential:
		value = i.Number
	case KindTeamSet:
		value = i.Team
	case KindHashed:
		value = i.Hash
	default:
		return fmt.Errorf("invalid card identity kind: %q", i.Kind)
	}
	if value == "" {
		return fmt.Errorf("card identity %s has no value", i.Kind)
	}
	if i.Kind == KindSequential && ReservedNumber(value) {
		return fmt.Errorf("card number %q uses a reserved prefix", value)
	}
	if len(i.CardNumber()) > 20 {
		return fmt.Errorf("card number %q exceeds 20 characters", i.CardNumber())
	}
	return nil
}

// ReservedNumber reports whether a number falls in the team-set or hashed
// namespace. Sequential numbers never do.
func ReservedNumber(number string) bool {
	number = strings.ToUpper(strings.TrimSpace(number))
	return strings.HasPrefix(number, teamSetPrefix) || strings.HasPrefix(number, hashedPrefix)
}

// ParseCardNumber recovers the identity kind from a stored card number.
func ParseCardNumber(number string) Identity {
	number = strings.TrimSpace(number)
	switch {
	case strings.HasPrefix(number, teamSetPrefix):
		return TeamSet(strings.TrimPrefix(number, teamSetPrefix))
	case strings.HasPrefix(number, hashedPrefix):
		return Hashed(strings.TrimPrefix(number, hashedPrefix), "")
	default:
		return Sequential(number)
	}
}

type Set struct {
	ID    int64
	Year  int
	Name  string
	Brand string
	Slug  string
}

func SetSlug(year int) string {
	return "topps-now-" + strconv.Itoa(year)
}

// Card is the canonical record for a Topps NOW card.
type Card struct {
	ID             int64
	SetID          int64
	SetYear        int
	CardNumber     string
	Kind           Kind
	Category       string
	PlayerID       int64
	TeamID         *int64
	Title          string
	SourceTitle    string
	TotalPrint     *int
	ImageURL       string
	DetailURL      string
	ProductURL     string
	ProductURLLong string
	ReleaseDate    *time.Time
	GameID         *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Draft carries the scraped, mutable fields of a card. Upserting a draft
// never touches product URLs, release date or game linkage.
type Draft struct {
	SetID       int64
	Identity    Identity
	PlayerID    int64
	TeamID      *int64
	Title       string
	SourceTitle string
	TotalPrint  *int
	ImageURL    string
	DetailURL   string
}

func (d Draft) Validate() error {
	if d.SetID <= 0 {
		return fmt.Errorf("card set id is required")
	}
	if err := d.Identity.Validate(); err != nil {
		return err
	}
	if d.PlayerID <= 0 {
		return fmt.Errorf("card player id is required")
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("card title is required")
	}
	if d.TotalPrint != nil && *d.TotalPrint < 0 {
		return fmt.Errorf("card print run must be >= 0")
	}
	return nil
}

// RawExtract is what the extraction layer pulls out of one listing element
// before any normalization.
type RawExtract struct {
	Title          string
	CardNumberHint string
	PrintRunText   string
	ImageURL       string
	DetailURL      string
}

// URLs is the pair of synthesized product links. An empty Long leaves the
// stored long form unchanged.
type URLs struct {
	Short string
	Long  string
}
