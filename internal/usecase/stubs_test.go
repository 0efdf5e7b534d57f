package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/card"
	"github.com/riskibarqy/topps-now-tracker/internal/domain/playerstats"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

func testLogger() *logging.Logger {
	return logging.NewNop()
}

type stubRenderer struct {
	mu        sync.Mutex
	available error
	pages     map[string]string
	errs      map[string]error
	rendered  []string
}

func (s *stubRenderer) Available() error {
	return s.available
}

func (s *stubRenderer) Render(_ context.Context, url string, _ RenderOptions) (RenderedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rendered = append(s.rendered, url)
	if err, ok := s.errs[url]; ok {
		return RenderedPage{}, err
	}
	html, ok := s.pages[url]
	if !ok {
		return RenderedPage{}, fmt.Errorf("%w: no page for %s", ErrTransientFetch, url)
	}
	return RenderedPage{URL: url, HTML: html}, nil
}

// stubExtractor maps page HTML to canned results.
type stubExtractor struct {
	listings map[string][]card.RawExtract
	dates    map[string]time.Time
	images   map[string]string
}

func (s stubExtractor) ExtractListings(page RenderedPage) []card.RawExtract {
	return s.listings[page.HTML]
}

func (s stubExtractor) ExtractReleaseDate(page RenderedPage) (time.Time, bool) {
	d, ok := s.dates[page.HTML]
	return d, ok
}

func (s stubExtractor) ExtractImageURL(page RenderedPage) (string, bool) {
	src, ok := s.images[page.HTML]
	return src, ok
}

type stubValidator struct {
	mu      sync.Mutex
	valid   map[string]bool
	errs    map[string]error
	checked []string
}

func (s *stubValidator) Exists(_ context.Context, url string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checked = append(s.checked, url)
	if err, ok := s.errs[url]; ok {
		return false, 0, err
	}
	if s.valid[url] {
		return true, 200, nil
	}
	return false, 404, nil
}

type scheduleCall struct {
	date   time.Time
	teamID int64
}

type stubStats struct {
	mu        sync.Mutex
	people    map[string][]ExternalPerson
	persons   map[int64]ExternalPerson
	bags      map[string]ExternalStatBag
	schedules map[string][]ExternalGame
	tourney   map[int][]ExternalGame
	boxes     map[int64]ExternalBoxScore
	teams     []ExternalTeam
	err       error

	searches  []string
	schedCall []scheduleCall
}

func (s *stubStats) Available() error {
	return nil
}

func (s *stubStats) SearchPeople(_ context.Context, name string) ([]ExternalPerson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searches = append(s.searches, name)
	if s.err != nil {
		return nil, s.err
	}
	return s.people[name], nil
}

func (s *stubStats) GetPerson(_ context.Context, personID int64) (ExternalPerson, bool, error) {
	p, ok := s.persons[personID]
	return p, ok, s.err
}

func statKey(personID int64, kind playerstats.Kind, season int) string {
	return fmt.Sprintf("%d/%s/%d", personID, kind, season)
}

func (s *stubStats) SeasonStats(_ context.Context, personID int64, kind playerstats.Kind, season int) (ExternalStatBag, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	bag, ok := s.bags[statKey(personID, kind, season)]
	return bag, ok, nil
}

func scheduleKey(date time.Time, teamID int64) string {
	return fmt.Sprintf("%s/%d", date.Format("2006-01-02"), teamID)
}

func (s *stubStats) TeamSchedule(_ context.Context, date time.Time, teamID int64) ([]ExternalGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedCall = append(s.schedCall, scheduleCall{date: date, teamID: teamID})
	return s.schedules[scheduleKey(date, teamID)], s.err
}

func (s *stubStats) TournamentSchedule(_ context.Context, season, _, _ int) ([]ExternalGame, error) {
	return s.tourney[season], s.err
}

func (s *stubStats) BoxScore(_ context.Context, gamePk int64) (ExternalBoxScore, error) {
	box, ok := s.boxes[gamePk]
	if !ok {
		return ExternalBoxScore{}, fmt.Errorf("%w: box score %d", ErrTransientFetch, gamePk)
	}
	return box, nil
}

func (s *stubStats) Teams(_ context.Context, _ int) ([]ExternalTeam, error) {
	return s.teams, s.err
}
