package usecase

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/player"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/rawdata"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/tournament"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

const boxScoreSource = "mlbstats"

type TournamentInput struct {
	StepOptions
	// Year restricts the run to one edition.
	Year int
}

type TournamentService struct {
	catalog     tournament.Catalog
	tournaments tournament.Repository
	players     player.Repository
	raw         rawdata.Repository
	stats       StatsProvider
	logger      *logging.Logger
	now         func() time.Time
}

func NewTournamentService(
	catalog tournament.Catalog,
	tournaments tournament.Repository,
	players player.Repository,
	raw rawdata.Repository,
	stats StatsProvider,
	logger *logging.Logger,
) *TournamentService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TournamentService{
		catalog:     catalog,
		tournaments: tournaments,
		players:     players,
		raw:         raw,
		stats:       stats,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *TournamentService) Capabilities() []Capability {
	return []Capability{CapabilityStatsProvider}
}

type nationalGame struct {
	schedule ExternalGame
	box      ExternalBoxScore
}

type rosterKey struct {
	country  string
	playerID int64
}

// SyncData stores each edition, its national-team games and the roster of
// every national side that played.
func (s *TournamentService) SyncData(ctx context.Context, input TournamentInput) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.SyncData")
	defer span.End()

	report := newReport("tournaments", input.StepOptions)
	if s.stats == nil {
		return report, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, CapabilityStatsProvider)
	}
	years, err := s.years(input.Year, s.catalog.Years())
	if err != nil {
		return report, err
	}

	pacer := input.pacer()
	for _, year := range years {
		edition, _ := s.catalog.Edition(year)
		var stored tournament.Tournament
		if !input.DryRun {
			stored, err = s.tournaments.UpsertTournament(ctx, tournament.Tournament{
				Year:     year,
				Name:     s.catalog.Name,
				Champion: edition.Champion,
				RunnerUp: edition.RunnerUp,
			})
			if err != nil {
				return report, fmt.Errorf("upsert tournament year=%d: %w", year, err)
			}
		}

		roster := make(map[rosterKey]string)
		err := s.scanYear(ctx, year, pacer, &report, func(g nationalGame) {
			report.Counts.Inc("games")
			for _, side := range s.nationalSides(g.box) {
				for _, p := range side.players {
					key := rosterKey{country: side.country, playerID: p.ID}
					if _, ok := roster[key]; !ok {
						roster[key] = p.FullName
					}
				}
			}
			if input.DryRun {
				return
			}
			s.storeGame(ctx, stored.ID, g, &report)
		})
		if err != nil {
			report.Counts.Inc("years_failed")
			s.logger.WarnContext(ctx, "scan tournament year failed", "year", year, "error", err)
			continue
		}

		report.Counts.Add("roster_entries", len(roster))
		if input.DryRun || len(roster) == 0 {
			continue
		}
		if err := s.tournaments.UpsertRosterEntries(ctx, s.rosterEntries(ctx, stored.ID, roster)); err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "store tournament roster failed", "year", year, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "tournament sync finished", report.Counts.logArgs()...)
	return report, nil
}

type participation struct {
	years   []int
	country string
}

// SyncRosters merges tournament participation into local players that carry
// an external id. Years are unioned with any recorded before; the country
// is the one from the latest scanned edition.
func (s *TournamentService) SyncRosters(ctx context.Context, input TournamentInput) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.SyncRosters")
	defer span.End()

	report := newReport("tournament-rosters", input.StepOptions)
	if s.stats == nil {
		return report, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, CapabilityStatsProvider)
	}
	years, err := s.years(input.Year, s.catalog.CompletedYears())
	if err != nil {
		return report, err
	}

	seen := make(map[int64]*participation)
	pacer := input.pacer()
	for _, year := range years {
		err := s.scanYear(ctx, year, pacer, &report, func(g nationalGame) {
			for _, side := range s.nationalSides(g.box) {
				for _, p := range side.players {
					entry, ok := seen[p.ID]
					if !ok {
						entry = &participation{}
						seen[p.ID] = entry
					}
					if !slices.Contains(entry.years, year) {
						entry.years = append(entry.years, year)
					}
					entry.country = side.country
				}
			}
		})
		if err != nil {
			report.Counts.Inc("years_failed")
			s.logger.WarnContext(ctx, "scan tournament year failed", "year", year, "error", err)
		}
	}
	report.Counts.Add("detected", len(seen))

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, extID := range ids {
		local, ok, err := s.players.GetByExternalID(ctx, extID)
		if err != nil {
			report.Counts.Inc("failed")
			continue
		}
		if !ok {
			continue
		}
		report.Counts.Inc("matched")
		entry := seen[extID]
		if input.DryRun {
			s.logger.InfoContext(ctx, "would record participation", "player", local.FullName, "years", entry.years, "country", entry.country)
			continue
		}
		if err := s.players.MergeTournamentParticipation(ctx, local.ID, entry.years, entry.country); err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "store participation failed", "player_id", local.ID, "error", err)
			continue
		}
		report.Counts.Inc("updated")
	}

	s.logger.InfoContext(ctx, "tournament rosters finished", report.Counts.logArgs()...)
	return report, nil
}

func (s *TournamentService) years(requested int, defaults []int) ([]int, error) {
	if requested <= 0 {
		return defaults, nil
	}
	if _, ok := s.catalog.Edition(requested); !ok {
		return nil, fmt.Errorf("%w: year %d is not a %s edition", ErrInvalidInput, requested, s.catalog.Name)
	}
	return []int{requested}, nil
}

// scanYear walks the edition schedule and calls visit for every game with at
// least one national side, after fetching its box score.
func (s *TournamentService) scanYear(
	ctx context.Context,
	year int,
	pacer *resilience.Pacer,
	report *StepReport,
	visit func(nationalGame),
) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.scanYear", attribute.Int("tournament.year", year))
	defer span.End()

	games, err := s.stats.TournamentSchedule(ctx, year, s.catalog.SportID, s.catalog.LeagueID)
	if err != nil {
		return fmt.Errorf("fetch tournament schedule: %w", err)
	}

	for _, g := range games {
		if !s.catalog.IsNational(g.AwayTeam) && !s.catalog.IsNational(g.HomeTeam) {
			continue
		}
		if err := pacer.Wait(ctx); err != nil {
			return err
		}

		box, err := s.stats.BoxScore(ctx, g.GamePk)
		if err != nil {
			report.Counts.Inc("failed")
			s.logger.WarnContext(ctx, "fetch box score failed", "game_pk", g.GamePk, "error", err)
			continue
		}
		if box.AwayTeam == "" {
			box.AwayTeam = g.AwayTeam
		}
		if box.HomeTeam == "" {
			box.HomeTeam = g.HomeTeam
		}
		if !s.catalog.IsNational(box.AwayTeam) && !s.catalog.IsNational(box.HomeTeam) {
			continue
		}
		visit(nationalGame{schedule: g, box: box})
	}
	return nil
}

type nationalSide struct {
	country string
	players []ExternalRosterPlayer
}

func (s *TournamentService) nationalSides(box ExternalBoxScore) []nationalSide {
	out := make([]nationalSide, 0, 2)
	if s.catalog.IsNational(box.AwayTeam) {
		out = append(out, nationalSide{country: box.AwayTeam, players: box.Away})
	}
	if s.catalog.IsNational(box.HomeTeam) {
		out = append(out, nationalSide{country: box.HomeTeam, players: box.Home})
	}
	return out
}

func (s *TournamentService) storeGame(ctx context.Context, tournamentID int64, g nationalGame, report *StepReport) {
	away, home := g.box.AwayRuns, g.box.HomeRuns
	if away == nil {
		away = g.schedule.AwayScore
	}
	if home == nil {
		home = g.schedule.HomeScore
	}
	status := g.schedule.Status
	if status == "" {
		status = "Final"
	}

	err := s.tournaments.UpsertGame(ctx, tournament.Game{
		GamePk:       g.schedule.GamePk,
		TournamentID: tournamentID,
		GameDate:     g.schedule.GameDate,
		AwayTeam:     g.box.AwayTeam,
		HomeTeam:     g.box.HomeTeam,
		AwayScore:    away,
		HomeScore:    home,
		Status:       status,
	})
	if err != nil {
		report.Counts.Inc("failed")
		s.logger.WarnContext(ctx, "store tournament game failed", "game_pk", g.schedule.GamePk, "error", err)
		return
	}
	s.archive(ctx, g.box)
}

func (s *TournamentService) archive(ctx context.Context, box ExternalBoxScore) {
	if s.raw == nil || len(box.Raw) == 0 {
		return
	}
	sum := sha256.Sum256(box.Raw)
	payload := rawdata.Payload{
		Source:      boxScoreSource,
		EntityType:  "boxscore",
		EntityKey:   strconv.FormatInt(box.GamePk, 10),
		PayloadJSON: string(box.Raw),
		PayloadHash: hex.EncodeToString(sum[:]),
		FetchedAt:   s.now().UTC(),
	}
	if err := s.raw.UpsertMany(ctx, []rawdata.Payload{payload}); err != nil {
		s.logger.WarnContext(ctx, "archive box score failed", "game_pk", box.GamePk, "error", err)
	}
}

func (s *TournamentService) rosterEntries(ctx context.Context, tournamentID int64, roster map[rosterKey]string) []tournament.RosterEntry {
	out := make([]tournament.RosterEntry, 0, len(roster))
	for key, name := range roster {
		entry := tournament.RosterEntry{
			TournamentID:     tournamentID,
			ExternalPlayerID: key.playerID,
			Country:          key.country,
			PlayerName:       name,
		}
		if local, ok, err := s.players.GetByExternalID(ctx, key.playerID); err == nil && ok {
			id := local.ID
			entry.PlayerID = &id
		}
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b tournament.RosterEntry) int {
		return cmp.Or(strings.Compare(a.Country, b.Country), cmp.Compare(a.ExternalPlayerID, b.ExternalPlayerID))
	})
	return out
}
