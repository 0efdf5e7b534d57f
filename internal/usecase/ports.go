package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/playerstats"
)

// Capability names an optional runtime dependency a step needs.
type Capability string

const (
	CapabilityBrowser       Capability = "browser"
	CapabilityStatsProvider Capability = "stats-provider"
	CapabilityURLValidator  Capability = "url-validator"
)

type RenderOptions struct {
	// Scroll keeps scrolling until the page height stops growing.
	Scroll bool
	// DebugName, when set, names the screenshot taken if the page renders
	// without any listing.
	DebugName string
}

type RenderedPage struct {
	URL  string
	HTML string
}

// PageRenderer owns a browser session per Render call and always releases it.
type PageRenderer interface {
	Available() error
	Render(ctx context.Context, url string, opts RenderOptions) (RenderedPage, error)
}

// CatalogExtractor pulls raw fields out of rendered catalog markup.
type CatalogExtractor interface {
	ExtractListings(page RenderedPage) []card.RawExtract
	ExtractReleaseDate(page RenderedPage) (time.Time, bool)
	ExtractImageURL(page RenderedPage) (string, bool)
}

type URLValidator interface {
	// Exists reports whether the URL resolves. 200 and 403 both count.
	Exists(ctx context.Context, url string) (bool, int, error)
}

type ExternalPerson struct {
	ID              int64
	FullName        string
	FirstName       string
	LastName        string
	Active          bool
	CurrentTeamID   int64
	CurrentTeamName string
	BirthCountry    string
	Position        string
}

type ExternalGame struct {
	GamePk     int64
	GameDate   time.Time
	AwayTeam   string
	HomeTeam   string
	AwayTeamID int64
	HomeTeamID int64
	AwayScore  *int
	HomeScore  *int
	Status     string
}

type ExternalRosterPlayer struct {
	ID       int64
	FullName string
}

type ExternalBoxScore struct {
	GamePk   int64
	AwayTeam string
	HomeTeam string
	AwayRuns *int
	HomeRuns *int
	Away     []ExternalRosterPlayer
	Home     []ExternalRosterPlayer
	Raw      []byte
}

type ExternalTeam struct {
	ID           int64
	Abbreviation string
	Name         string
	TeamName     string
	LocationName string
	Venue        string
}

// ExternalStatBag is one provider stat split, keyed by provider field name.
// Values are strings or numbers depending on the field.
type ExternalStatBag map[string]any

type StatsProvider interface {
	Available() error
	SearchPeople(ctx context.Context, name string) ([]ExternalPerson, error)
	GetPerson(ctx context.Context, personID int64) (ExternalPerson, bool, error)
	SeasonStats(ctx context.Context, personID int64, kind playerstats.Kind, season int) (ExternalStatBag, bool, error)
	TeamSchedule(ctx context.Context, date time.Time, teamID int64) ([]ExternalGame, error)
	TournamentSchedule(ctx context.Context, season, sportID, leagueID int) ([]ExternalGame, error)
	BoxScore(ctx context.Context, gamePk int64) (ExternalBoxScore, error)
	Teams(ctx context.Context, season int) ([]ExternalTeam, error)
}
