package mlbstats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/playerstats"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/resilience"
	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg ClientConfig) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	cfg.HTTPClient = srv.Client()
	c := NewClient(cfg)
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func TestSearchPeopleMapsCandidates(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/people/search" || r.URL.Query().Get("names") != "Will Smith" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"people":[
			{"id":669257,"fullName":"Will Smith","firstName":"William","useName":"Will","lastName":"Smith","active":true,
			 "birthCountry":"USA","currentTeam":{"id":119,"name":"Los Angeles Dodgers"},"primaryPosition":{"abbreviation":"C"}},
			{"id":519293,"fullName":"Will Smith","firstName":"William","lastName":"Smith","active":false}
		]}`))
	}, ClientConfig{})

	people, err := c.SearchPeople(context.Background(), "Will Smith")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(people))
	}
	first := people[0]
	if first.ID != 669257 || !first.Active || first.CurrentTeamID != 119 || first.FirstName != "Will" || first.Position != "C" {
		t.Fatalf("unexpected mapping: %+v", first)
	}
	if people[1].Active || people[1].FirstName != "William" {
		t.Fatalf("unexpected second candidate: %+v", people[1])
	}
}

func TestGetPersonNotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, ClientConfig{})

	_, ok, err := c.GetPerson(context.Background(), 1)
	if err != nil || ok {
		t.Fatalf("expected missing person without error, got ok=%v err=%v", ok, err)
	}
}

func TestSeasonStatsPicksRequestedSeason(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("season") != "2025" || q.Get("stats") != "season" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"stats":[{"group":{"displayName":"hitting"},"splits":[
			{"season":"2024","stat":{"homeRuns":10}},
			{"season":"2025","stat":{"homeRuns":18,"avg":".281"}}
		]}]}`))
	}, ClientConfig{})

	bag, ok, err := c.SeasonStats(context.Background(), 608324, playerstats.KindHitting, 2025)
	if err != nil || !ok {
		t.Fatalf("expected stats, ok=%v err=%v", ok, err)
	}
	if bag["avg"] != ".281" {
		t.Fatalf("unexpected bag: %v", bag)
	}

	_, ok, err = c.SeasonStats(context.Background(), 608324, playerstats.KindPitching, 2025)
	if err != nil || ok {
		t.Fatalf("a missing group should be ok=false, got ok=%v err=%v", ok, err)
	}
}

func TestScheduleAndBoxScore(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/schedule":
			_, _ = w.Write([]byte(`{"dates":[{"date":"2023-03-21","games":[
				{"gamePk":719128,"gameDate":"2023-03-22T00:00:00Z","status":{"detailedState":"Final"},
				 "teams":{"away":{"team":{"id":940,"name":"Japan"},"score":3},"home":{"team":{"id":939,"name":"United States"},"score":2}}}
			]}]}`))
		case "/game/719128/boxscore":
			_, _ = w.Write([]byte(`{"teams":{
				"away":{"team":{"name":"Japan"},"teamStats":{"batting":{"runs":3}},"players":{"ID660271":{"person":{"id":660271,"fullName":"Shohei Ohtani"}}}},
				"home":{"team":{"name":"United States"},"teamStats":{"batting":{"runs":2}},"players":{"ID545361":{"person":{"fullName":"Mike Trout"}}}}
			}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, ClientConfig{})

	games, err := c.TournamentSchedule(context.Background(), 2023, 51, 160)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(games) != 1 || games[0].GamePk != 719128 || games[0].AwayTeam != "Japan" || *games[0].AwayScore != 3 {
		t.Fatalf("unexpected games: %+v", games)
	}
	if !games[0].GameDate.Equal(time.Date(2023, 3, 22, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected game date: %s", games[0].GameDate)
	}

	box, err := c.BoxScore(context.Background(), 719128)
	if err != nil {
		t.Fatalf("box score: %v", err)
	}
	if *box.AwayRuns != 3 || box.Home[0].ID != 545361 || box.Away[0].FullName != "Shohei Ohtani" {
		t.Fatalf("unexpected box score: %+v", box)
	}
	if len(box.Raw) == 0 {
		t.Fatalf("raw payload should be kept for archiving")
	}
}

func TestTeamsMapsVenue(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"teams":[{"id":117,"name":"Houston Astros","abbreviation":"HOU","teamName":"Astros","locationName":"Houston","venue":{"id":2392,"name":"Daikin Park"}}]}`))
	}, ClientConfig{})

	teams, err := c.Teams(context.Background(), 2025)
	if err != nil {
		t.Fatalf("teams: %v", err)
	}
	if len(teams) != 1 || teams[0].Abbreviation != "HOU" || teams[0].Venue != "Daikin Park" {
		t.Fatalf("unexpected teams: %+v", teams)
	}
}

func TestRetriesTransientFailuresAndMarksThem(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"teams":[]}`))
	}, ClientConfig{MaxRetries: 2})

	if _, err := c.Teams(context.Background(), 2025); err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}

	failing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, ClientConfig{})
	_, err := failing.Teams(context.Background(), 2025)
	if !crerr.Is(err, usecase.ErrTransientFetch) {
		t.Fatalf("expected transient mark to survive wrapping, got %v", err)
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, ClientConfig{MaxRetries: 3})

	_, err := c.Teams(context.Background(), 2025)
	if err == nil || crerr.Is(err, usecase.ErrTransientFetch) {
		t.Fatalf("expected a permanent error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestCacheServesRepeatLookups(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"people":[{"id":1,"fullName":"Aaron Judge","birthCountry":"USA"}]}`))
	}, ClientConfig{CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		p, ok, err := c.GetPerson(context.Background(), 1)
		if err != nil || !ok || p.BirthCountry != "USA" {
			t.Fatalf("lookup %d: ok=%v err=%v", i, ok, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
}

func TestOpenCircuitMakesProviderUnavailable(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, ClientConfig{CircuitBreaker: resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Hour,
		HalfOpenMaxReq:   1,
	}})

	if err := c.Available(); err != nil {
		t.Fatalf("fresh client should be available: %v", err)
	}
	_, _ = c.Teams(context.Background(), 2025)
	if err := c.Available(); err == nil {
		t.Fatalf("expected open circuit to report unavailable")
	}
	if _, err := c.Teams(context.Background(), 2025); !crerr.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
