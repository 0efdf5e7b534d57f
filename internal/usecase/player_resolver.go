package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/player"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

const maxLoggedCandidates = 5

// PlayerResolver binds stats-provider ids to local players. It never guesses:
// anything short of a single defensible candidate leaves the player unbound.
type PlayerResolver struct {
	players  player.Repository
	teams    team.Repository
	cardRepo card.Repository
	stats    StatsProvider
	logger   *logging.Logger
}

func NewPlayerResolver(players player.Repository, teams team.Repository, cardRepo card.Repository, stats StatsProvider, logger *logging.Logger) *PlayerResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerResolver{
		players:  players,
		teams:    teams,
		cardRepo: cardRepo,
		stats:    stats,
		logger:   logger,
	}
}

func (r *PlayerResolver) Capabilities() []Capability {
	return []Capability{CapabilityStatsProvider}
}

// Resolve binds external ids for players that have none. External ids are
// write-once, so Force does not revisit bound players.
func (r *PlayerResolver) Resolve(ctx context.Context, opts StepOptions) (StepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerResolver.Resolve")
	defer span.End()

	report := newReport("resolve-players", opts)
	if r.stats == nil {
		return report, fmt.Errorf("%w: %s", ErrCapabilityUnavailable, CapabilityStatsProvider)
	}

	items, err := r.players.List(ctx, player.Query{MissingExternalID: true, Limit: opts.Limit})
	if err != nil {
		return report, fmt.Errorf("list unresolved players: %w", err)
	}

	pacer := opts.pacer()
	for _, item := range items {
		if item.IsPlaceholder() {
			continue
		}
		if err := pacer.Wait(ctx); err != nil {
			return report, err
		}

		candidate, err := r.Match(ctx, item)
		switch {
		case errors.Is(err, ErrNotFound):
			report.Counts.Inc("not_found")
			r.logger.DebugContext(ctx, "no provider candidate", "player", item.FullName)
			continue
		case errors.Is(err, ErrAmbiguousResolution):
			report.Counts.Inc("ambiguous")
			continue
		case err != nil:
			report.Counts.Inc("failed")
			r.logger.WarnContext(ctx, "search provider for player failed", "player", item.FullName, "error", err)
			continue
		}

		if opts.DryRun {
			report.Counts.Inc("would_bind")
			r.logger.InfoContext(ctx, "would bind external id", "player", item.FullName, "external_id", candidate.ID)
			continue
		}

		err = r.bind(ctx, item, candidate)
		switch {
		case errors.Is(err, ErrIdentityConflict):
			report.Counts.Inc("conflict")
			r.logger.WarnContext(ctx, "external id assignment refused",
				"player_id", item.ID,
				"player", item.FullName,
				"external_id", candidate.ID,
				"error", err,
			)
		case err != nil:
			report.Counts.Inc("failed")
			r.logger.WarnContext(ctx, "bind external id failed", "player_id", item.ID, "error", err)
		default:
			report.Counts.Inc("resolved")
		}
	}

	r.logger.InfoContext(ctx, "resolve players finished", report.Counts.logArgs()...)
	return report, nil
}

// Match finds the single provider candidate for a local player. It returns
// ErrNotFound when there is no candidate and ErrAmbiguousResolution when
// several remain after disambiguation.
func (r *PlayerResolver) Match(ctx context.Context, item player.Player) (ExternalPerson, error) {
	candidates, err := r.stats.SearchPeople(ctx, item.FullName)
	if err != nil {
		return ExternalPerson{}, err
	}

	if len(candidates) == 0 {
		first, last := player.SplitName(item.FullName)
		if last != "" {
			byLast, err := r.stats.SearchPeople(ctx, last)
			if err != nil {
				return ExternalPerson{}, err
			}
			candidates = filterByFirstName(byLast, first)
		}
	}

	switch len(candidates) {
	case 0:
		return ExternalPerson{}, ErrNotFound
	case 1:
		return candidates[0], nil
	}

	active := make([]ExternalPerson, 0, len(candidates))
	for _, c := range candidates {
		if c.Active {
			active = append(active, c)
		}
	}
	if len(active) == 1 {
		return active[0], nil
	}

	if len(active) > 1 {
		if localTeam, ok := r.localTeam(ctx, item); ok {
			var onTeam []ExternalPerson
			for _, c := range active {
				if matchesTeam(c, localTeam) {
					onTeam = append(onTeam, c)
				}
			}
			if len(onTeam) == 1 {
				return onTeam[0], nil
			}
		}
	}

	pool := active
	if len(pool) == 0 {
		pool = candidates
	}
	r.logger.WarnContext(ctx, "ambiguous player resolution",
		"player", item.FullName,
		"candidates", len(pool),
		"sample", describeCandidates(pool),
	)
	return ExternalPerson{}, fmt.Errorf("%w: %d candidates for %q", ErrAmbiguousResolution, len(pool), item.FullName)
}

func (r *PlayerResolver) localTeam(ctx context.Context, item player.Player) (team.Team, bool) {
	if item.TeamID == nil || r.teams == nil {
		return team.Team{}, false
	}
	t, ok, err := r.teams.GetByID(ctx, *item.TeamID)
	if err != nil || !ok {
		return team.Team{}, false
	}
	return t, true
}

func (r *PlayerResolver) bind(ctx context.Context, item player.Player, candidate ExternalPerson) error {
	holder, exists, err := r.players.GetByExternalID(ctx, candidate.ID)
	if err != nil {
		return fmt.Errorf("check external id holder: %w", err)
	}
	if exists && holder.ID != item.ID {
		return fmt.Errorf("%w: external id %d held by player %d", ErrIdentityConflict, candidate.ID, holder.ID)
	}

	if err := r.players.AssignExternalID(ctx, item.ID, candidate.ID); err != nil {
		if errors.Is(err, player.ErrExternalIDTaken) || errors.Is(err, player.ErrExternalIDImmutable) {
			return fmt.Errorf("%w: %v", ErrIdentityConflict, err)
		}
		return fmt.Errorf("assign external id: %w", err)
	}

	r.propagateTeam(ctx, item, candidate)
	return nil
}

// propagateTeam sets the player's team from the candidate's current club when
// the player has none, and lets the player's team-less cards inherit it.
func (r *PlayerResolver) propagateTeam(ctx context.Context, item player.Player, candidate ExternalPerson) {
	if item.TeamID != nil || candidate.CurrentTeamID <= 0 || r.teams == nil {
		return
	}
	t, ok, err := r.teams.GetByExternalID(ctx, candidate.CurrentTeamID)
	if err != nil || !ok {
		return
	}
	if err := r.players.SetTeam(ctx, item.ID, t.ID); err != nil {
		r.logger.WarnContext(ctx, "set player team failed", "player_id", item.ID, "error", err)
		return
	}
	if r.cardRepo == nil {
		return
	}
	n, err := r.cardRepo.AssignTeamForPlayer(ctx, item.ID, t.ID)
	if err != nil {
		r.logger.WarnContext(ctx, "propagate team to cards failed", "player_id", item.ID, "error", err)
		return
	}
	if n > 0 {
		r.logger.DebugContext(ctx, "cards inherited player team", "player_id", item.ID, "team", t.Abbreviation, "cards", n)
	}
}

func filterByFirstName(candidates []ExternalPerson, first string) []ExternalPerson {
	first = strings.ToLower(strings.TrimSpace(first))
	if first == "" {
		return nil
	}
	out := make([]ExternalPerson, 0, len(candidates))
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.FirstName), first) {
			out = append(out, c)
		}
	}
	return out
}

func matchesTeam(c ExternalPerson, t team.Team) bool {
	if t.HasExternalID() && c.CurrentTeamID > 0 {
		return c.CurrentTeamID == *t.ExternalID
	}
	name := strings.TrimSpace(c.CurrentTeamName)
	return name != "" && (strings.EqualFold(name, t.FullName) || strings.EqualFold(name, t.TeamName))
}

func describeCandidates(candidates []ExternalPerson) []string {
	n := len(candidates)
	if n > maxLoggedCandidates {
		n = maxLoggedCandidates
	}
	out := make([]string, 0, n)
	for _, c := range candidates[:n] {
		label := fmt.Sprintf("%s (%d)", c.FullName, c.ID)
		if c.CurrentTeamName != "" {
			label += " " + c.CurrentTeamName
		}
		out = append(out, label)
	}
	return out
}
