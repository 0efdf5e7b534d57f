// Package mlbstats is a client for the public MLB Stats API.
package mlbstats

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/playerstats"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/cache"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/resilience"
	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

const (
	defaultBaseURL = "https://statsapi.mlb.com/api/v1"
	mlbSportID     = 1
	maxBodyBytes   = 8 << 20
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client implements usecase.StatsProvider. Identical concurrent requests
// share one round trip and successful lookups are cached for CacheTTL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.SingleFlight
	cache      *cache.Store
	backoff    func(attempt int) time.Duration
}

var _ usecase.StatsProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	var store *cache.Store
	if cfg.CacheTTL > 0 {
		store = cache.NewStore(cfg.CacheTTL)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger.Named("mlbstats"),
		breaker:    resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
		cache:      store,
		backoff:    func(attempt int) time.Duration { return time.Duration(attempt+1) * time.Second },
	}
}

// Available fails while the circuit breaker is open.
func (c *Client) Available() error {
	if c.breaker != nil && c.breaker.State() == resilience.CircuitStateOpen {
		return fmt.Errorf("stats provider circuit is open")
	}
	return nil
}

func (c *Client) SearchPeople(ctx context.Context, name string) ([]usecase.ExternalPerson, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var env peopleEnvelope
	query := url.Values{
		"names":    {name},
		"sportIds": {strconv.Itoa(mlbSportID)},
		"hydrate":  {"currentTeam"},
	}
	if _, err := c.getJSON(ctx, "/people/search", query, &env); err != nil {
		return nil, fmt.Errorf("search people name=%q: %w", name, err)
	}

	out := make([]usecase.ExternalPerson, 0, len(env.People))
	for _, p := range env.People {
		out = append(out, mapPerson(p))
	}
	return out, nil
}

func (c *Client) GetPerson(ctx context.Context, personID int64) (usecase.ExternalPerson, bool, error) {
	var env peopleEnvelope
	path := fmt.Sprintf("/people/%d", personID)
	if _, err := c.getJSON(ctx, path, url.Values{"hydrate": {"currentTeam"}}, &env); err != nil {
		if isNotFound(err) {
			return usecase.ExternalPerson{}, false, nil
		}
		return usecase.ExternalPerson{}, false, fmt.Errorf("get person id=%d: %w", personID, err)
	}
	if len(env.People) == 0 {
		return usecase.ExternalPerson{}, false, nil
	}
	return mapPerson(env.People[0]), true, nil
}

// SeasonStats returns the regular-season split of one stat group. A player
// without a split for that season yields ok=false.
func (c *Client) SeasonStats(ctx context.Context, personID int64, kind playerstats.Kind, season int) (usecase.ExternalStatBag, bool, error) {
	var env statsEnvelope
	path := fmt.Sprintf("/people/%d/stats", personID)
	query := url.Values{
		"stats":   {"season"},
		"group":   {string(kind)},
		"season":  {strconv.Itoa(season)},
		"sportId": {strconv.Itoa(mlbSportID)},
	}
	if _, err := c.getJSON(ctx, path, query, &env); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("season stats id=%d group=%s season=%d: %w", personID, kind, season, err)
	}

	want := strconv.Itoa(season)
	for _, group := range env.Stats {
		if !strings.EqualFold(group.Group.DisplayName, string(kind)) {
			continue
		}
		for _, split := range group.Splits {
			if split.Season == want && len(split.Stat) > 0 {
				return usecase.ExternalStatBag(split.Stat), true, nil
			}
		}
	}
	return nil, false, nil
}

func (c *Client) TeamSchedule(ctx context.Context, date time.Time, teamID int64) ([]usecase.ExternalGame, error) {
	query := url.Values{
		"sportId": {strconv.Itoa(mlbSportID)},
		"date":    {date.Format(time.DateOnly)},
		"teamId":  {strconv.FormatInt(teamID, 10)},
	}
	games, err := c.schedule(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("team schedule team_id=%d date=%s: %w", teamID, date.Format(time.DateOnly), err)
	}
	return games, nil
}

func (c *Client) TournamentSchedule(ctx context.Context, season, sportID, leagueID int) ([]usecase.ExternalGame, error) {
	query := url.Values{
		"sportId":  {strconv.Itoa(sportID)},
		"leagueId": {strconv.Itoa(leagueID)},
		"season":   {strconv.Itoa(season)},
	}
	games, err := c.schedule(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("tournament schedule season=%d: %w", season, err)
	}
	return games, nil
}

func (c *Client) schedule(ctx context.Context, query url.Values) ([]usecase.ExternalGame, error) {
	var env scheduleEnvelope
	if _, err := c.getJSON(ctx, "/schedule", query, &env); err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalGame, 0, 8)
	for _, day := range env.Dates {
		for _, g := range day.Games {
			if g.GamePk <= 0 {
				continue
			}
			out = append(out, usecase.ExternalGame{
				GamePk:     g.GamePk,
				GameDate:   parseGameDate(g.GameDate, day.Date),
				AwayTeam:   g.Teams.Away.Team.Name,
				HomeTeam:   g.Teams.Home.Team.Name,
				AwayTeamID: g.Teams.Away.Team.ID,
				HomeTeamID: g.Teams.Home.Team.ID,
				AwayScore:  g.Teams.Away.Score,
				HomeScore:  g.Teams.Home.Score,
				Status:     g.Status.DetailedState,
			})
		}
	}
	return out, nil
}

func (c *Client) BoxScore(ctx context.Context, gamePk int64) (usecase.ExternalBoxScore, error) {
	var env boxScoreEnvelope
	raw, err := c.getJSON(ctx, fmt.Sprintf("/game/%d/boxscore", gamePk), nil, &env)
	if err != nil {
		return usecase.ExternalBoxScore{}, fmt.Errorf("box score game_pk=%d: %w", gamePk, err)
	}

	return usecase.ExternalBoxScore{
		GamePk:   gamePk,
		AwayTeam: env.Teams.Away.Team.Name,
		HomeTeam: env.Teams.Home.Team.Name,
		AwayRuns: env.Teams.Away.TeamStats.Batting.Runs,
		HomeRuns: env.Teams.Home.TeamStats.Batting.Runs,
		Away:     rosterOf(env.Teams.Away),
		Home:     rosterOf(env.Teams.Home),
		Raw:      raw,
	}, nil
}

func (c *Client) Teams(ctx context.Context, season int) ([]usecase.ExternalTeam, error) {
	var env teamsEnvelope
	query := url.Values{
		"sportId": {strconv.Itoa(mlbSportID)},
		"season":  {strconv.Itoa(season)},
	}
	if _, err := c.getJSON(ctx, "/teams", query, &env); err != nil {
		return nil, fmt.Errorf("teams season=%d: %w", season, err)
	}

	out := make([]usecase.ExternalTeam, 0, len(env.Teams))
	for _, t := range env.Teams {
		out = append(out, usecase.ExternalTeam{
			ID:           t.ID,
			Abbreviation: t.Abbreviation,
			Name:         t.Name,
			TeamName:     t.TeamName,
			LocationName: t.LocationName,
			Venue:        t.Venue.Name,
		})
	}
	return out, nil
}

// getJSON fetches path, decodes it into target and returns the raw body.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) ([]byte, error) {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err := cache.Load(ctx, c.cache, fullURL, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, fullURL)
	})
	if err != nil {
		return nil, err
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}
	return raw, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "mlbstats circuit breaker rejected request", "state", c.breaker.State())
		return nil, fmt.Errorf("%w: stats provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	out, err, shared := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if reqErr != nil && isTransient(reqErr) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "mlbstats request shared", "url", fullURL)
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, err := c.do(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !isTransient(err) || attempt == c.maxRetries {
			break
		}

		timer := time.NewTimer(c.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "mlbstats request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, crerr.Mark(crerr.Wrap(err, "send request"), usecase.ErrTransientFetch)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxBodyBytes)); err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "read response body"), usecase.ErrTransientFetch)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return append([]byte(nil), buf.B...), nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, crerr.Mark(crerr.Newf("provider status=%d", resp.StatusCode), usecase.ErrNotFound)
	case isRetryableStatus(resp.StatusCode):
		return nil, crerr.Mark(
			crerr.Newf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(buf.B)),
			usecase.ErrTransientFetch,
		)
	default:
		return nil, crerr.Newf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(buf.B))
	}
}

func mapPerson(p person) usecase.ExternalPerson {
	first := p.FirstName
	if p.UseName != "" {
		first = p.UseName
	}
	return usecase.ExternalPerson{
		ID:              p.ID,
		FullName:        p.FullName,
		FirstName:       first,
		LastName:        p.LastName,
		Active:          p.Active,
		CurrentTeamID:   p.CurrentTeam.ID,
		CurrentTeamName: p.CurrentTeam.Name,
		BirthCountry:    p.BirthCountry,
		Position:        p.PrimaryPosition.Abbreviation,
	}
}

// rosterOf lists the players of one box score side ordered by id.
func rosterOf(side boxScoreSide) []usecase.ExternalRosterPlayer {
	out := make([]usecase.ExternalRosterPlayer, 0, len(side.Players))
	for key, p := range side.Players {
		id := p.Person.ID
		if id == 0 {
			id, _ = strconv.ParseInt(strings.TrimPrefix(key, "ID"), 10, 64)
		}
		if id <= 0 {
			continue
		}
		out = append(out, usecase.ExternalRosterPlayer{ID: id, FullName: p.Person.FullName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func parseGameDate(gameDate, day string) time.Time {
	if t, err := time.Parse(time.RFC3339, gameDate); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.DateOnly, day); err == nil {
		return t
	}
	return time.Time{}
}

func isTransient(err error) bool {
	return crerr.Is(err, usecase.ErrTransientFetch)
}

func isNotFound(err error) bool {
	return crerr.Is(err, usecase.ErrNotFound)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
