package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/player"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/team"
	"github.com/riskibarqy/topps-now-tracker/internal/infrastructure/repository/memory"
	playermock "github.com/riskibarqy/topps-now-tracker/internal/mocks/domain/player"
)

func int64Ref(v int64) *int64 {
	return &v
}

func testTeams() *memory.TeamRepository {
	return memory.NewTeamRepository([]team.Team{
		{ID: 1, ExternalID: int64Ref(119), Abbreviation: "LAD", FullName: "Los Angeles Dodgers", TeamName: "Dodgers"},
		{ID: 2, ExternalID: int64Ref(120), Abbreviation: "WSH", FullName: "Washington Nationals", TeamName: "Nationals"},
	})
}

func twoActiveWillSmiths() *stubStats {
	return &stubStats{people: map[string][]ExternalPerson{
		"Will Smith": {
			{ID: 669257, FullName: "Will Smith", FirstName: "Will", Active: true, CurrentTeamID: 119, CurrentTeamName: "Los Angeles Dodgers"},
			{ID: 519293, FullName: "Will Smith", FirstName: "Will", Active: true, CurrentTeamID: 120, CurrentTeamName: "Washington Nationals"},
		},
	}}
}

func TestPlayerResolver_DisambiguatesByLocalTeam(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	players := memory.NewPlayerRepository([]player.Player{{ID: 10, FullName: "Will Smith", TeamID: int64Ref(1)}})
	resolver := NewPlayerResolver(players, testTeams(), nil, twoActiveWillSmiths(), testLogger())

	report, err := resolver.Resolve(ctx, StepOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if report.Counts.Get("resolved") != 1 {
		t.Fatalf("unexpected counts: %v", report.Counts.Map())
	}
	got, _, _ := players.GetByID(ctx, 10)
	if got.ExternalID == nil || *got.ExternalID != 669257 {
		t.Fatalf("expected the Dodgers candidate, got %v", got.ExternalID)
	}
}

func TestPlayerResolver_DefersWithoutLocalTeam(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	players := memory.NewPlayerRepository([]player.Player{{ID: 10, FullName: "Will Smith"}})
	resolver := NewPlayerResolver(players, testTeams(), nil, twoActiveWillSmiths(), testLogger())

	report, err := resolver.Resolve(ctx, StepOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if report.Counts.Get("ambiguous") != 1 {
		t.Fatalf("unexpected counts: %v", report.Counts.Map())
	}
	got, _, _ := players.GetByID(ctx, 10)
	if got.ExternalID != nil {
		t.Fatalf("ambiguous player must stay unbound, got %d", *got.ExternalID)
	}
}

func TestPlayerResolver_LastNameFallbackFiltersByFirstName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	stats := &stubStats{people: map[string][]ExternalPerson{
		"Acuña Jr.": {
			{ID: 660670, FullName: "Ronald Acuña Jr.", FirstName: "Ronald", Active: true},
			{ID: 1, FullName: "Luisangel Acuña Jr.", FirstName: "Luisangel", Active: true},
		},
	}}
	players := memory.NewPlayerRepository([]player.Player{{ID: 4, FullName: "Ron Acuña Jr."}})
	resolver := NewPlayerResolver(players, nil, nil, stats, testLogger())

	if _, err := resolver.Resolve(ctx, StepOptions{}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(stats.searches) != 2 || stats.searches[1] != "Acuña Jr." {
		t.Fatalf("expected a last-name search, got %v", stats.searches)
	}
	got, _, _ := players.GetByID(ctx, 4)
	if got.ExternalID == nil || *got.ExternalID != 660670 {
		t.Fatalf("expected Ronald, got %v", got.ExternalID)
	}
}

func TestPlayerResolver_SkipsTeamSetPlaceholder(t *testing.T) {
	t.Parallel()

	players := memory.NewPlayerRepository([]player.Player{{ID: 1, FullName: player.TeamSetName}})
	stats := &stubStats{}
	resolver := NewPlayerResolver(players, nil, nil, stats, testLogger())

	if _, err := resolver.Resolve(context.Background(), StepOptions{}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(stats.searches) != 0 {
		t.Fatalf("placeholder must not be searched, got %v", stats.searches)
	}
}

func TestPlayerResolver_PropagatesTeamToPlayerAndCards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	teams := testTeams()
	cards := memory.NewCardRepository(teams)
	players := memory.NewPlayerRepository([]player.Player{{ID: 5, FullName: "Shohei Ohtani"}})
	set, _ := cards.GetOrCreateSet(ctx, 2025)
	if _, _, err := cards.Upsert(ctx, card.Draft{SetID: set.ID, Identity: card.Sequential("1"), PlayerID: 5, Title: "Shohei Ohtani - 2025 MLB Topps NOW® - Card 1"}); err != nil {
		t.Fatalf("seed card: %v", err)
	}

	stats := &stubStats{people: map[string][]ExternalPerson{
		"Shohei Ohtani": {{ID: 660271, FullName: "Shohei Ohtani", Active: true, CurrentTeamID: 119}},
	}}
	resolver := NewPlayerResolver(players, teams, cards, stats, testLogger())
	if _, err := resolver.Resolve(ctx, StepOptions{}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	got, _, _ := players.GetByID(ctx, 5)
	if got.TeamID == nil || *got.TeamID != 1 {
		t.Fatalf("player should inherit the Dodgers, got %v", got.TeamID)
	}
	updated, _, _ := cards.GetByNumber(ctx, set.ID, "1")
	if updated.TeamID == nil || *updated.TeamID != 1 {
		t.Fatalf("card should inherit the player team, got %v", updated.TeamID)
	}
}

func TestPlayerResolver_RefusesExternalIDHeldByAnotherPlayer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := playermock.NewRepository(t)
	target := player.Player{ID: 2, FullName: "Will Smith"}
	holder := player.Player{ID: 9, FullName: "William Smith", ExternalID: int64Ref(669257)}

	repo.On("List", mock.Anything, player.Query{MissingExternalID: true}).Return([]player.Player{target}, nil).Once()
	repo.On("GetByExternalID", mock.Anything, int64(669257)).Return(holder, true, nil).Once()

	stats := &stubStats{people: map[string][]ExternalPerson{
		"Will Smith": {{ID: 669257, FullName: "Will Smith", Active: true}},
	}}
	resolver := NewPlayerResolver(repo, nil, nil, stats, testLogger())

	report, err := resolver.Resolve(ctx, StepOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if report.Counts.Get("conflict") != 1 {
		t.Fatalf("unexpected counts: %v", report.Counts.Map())
	}
	repo.AssertNotCalled(t, "AssignExternalID", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlayerResolver_MapsImmutableIDToConflict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := playermock.NewRepository(t)
	target := player.Player{ID: 2, FullName: "Will Smith"}

	repo.On("GetByExternalID", mock.Anything, int64(669257)).Return(player.Player{}, false, nil).Once()
	repo.On("AssignExternalID", mock.Anything, int64(2), int64(669257)).Return(player.ErrExternalIDImmutable).Once()

	resolver := NewPlayerResolver(repo, nil, nil, &stubStats{}, testLogger())
	err := resolver.bind(ctx, target, ExternalPerson{ID: 669257})
	if !errors.Is(err, ErrIdentityConflict) {
		t.Fatalf("expected ErrIdentityConflict, got %v", err)
	}
}
