// Package apifootball fetches upcoming fixtures and pre-match odds from
// API-Football v3 (api-sports.io). Fixtures are requested per league for
// the next few days; odds are a separate request per fixture.
package apifootball

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MinorTermite/prizmbet-v2/internal/parser/adapters"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/apperrors"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/httpclient"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

const (
	adapterName    = "apifootball"
	defaultBaseURL = "https://v3.football.api-sports.io"

	// daysAhead bounds the fixtures window.
	daysAhead = 3
)

var leagues = []struct {
	id   int
	name string
}{
	{2, "Лига чемпионов УЕФА"},
	{3, "Лига Европы УЕФА"},
	{39, "Англия. Премьер-лига"},
	{140, "Испания. Ла Лига"},
	{135, "Италия. Серия А"},
	{78, "Германия. Бундеслига"},
	{61, "Франция. Лига 1"},
	{94, "Португалия. Примейра"},
	{203, "Турция. Суперлига"},
}

func init() {
	adapters.Register(adapterName, func(deps adapters.Deps) adapters.Adapter {
		cfg := deps.Config.Adapters.APIFootball
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		return &Adapter{
			baseURL: baseURL,
			apiKey:  cfg.APIKey,
			client:  deps.Client,
			now:     time.Now,
		}
	})
}

type Adapter struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
	now     func() time.Time
}

func (a *Adapter) Name() string { return adapterName }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) FetchAndParse(ctx context.Context) ([]models.Match, error) {
	if a.apiKey == "" {
		return nil, apperrors.ConfigMissing("API_FOOTBALL_KEY")
	}

	var all []models.Match
	var failed int
	for _, lg := range leagues {
		fixtures, err := a.fetchFixtures(ctx, lg.id)
		if err != nil {
			slog.Warn("API-Football fixtures fetch failed", "league", lg.name, "error", err)
			failed++
			continue
		}

		var added int
		for i := range fixtures {
			m := a.buildMatch(&fixtures[i], lg.name)
			if m == nil {
				continue
			}
			if err := a.attachOdds(ctx, m, fixtures[i].Fixture.ID); err != nil {
				slog.Debug("API-Football odds fetch failed",
					"fixture_id", fixtures[i].Fixture.ID, "error", err)
			}
			if m.HasPrice() {
				all = append(all, *m)
				added++
			}
		}
		slog.Debug("API-Football league parsed",
			"league", lg.name, "fixtures", len(fixtures), "with_odds", added)
	}
	if failed == len(leagues) {
		return nil, fmt.Errorf("all %d league requests failed", failed)
	}
	return all, nil
}

func (a *Adapter) headers() http.Header {
	return http.Header{
		"X-Apisports-Key": {a.apiKey},
		"X-Rapidapi-Host": {strings.TrimPrefix(a.baseURL, "https://")},
	}
}

// currentSeason returns the season year API-Football expects. European
// leagues run August to May, so before August the season started the
// previous year.
func currentSeason(now time.Time) int {
	if now.Month() >= time.August {
		return now.Year()
	}
	return now.Year() - 1
}

func (a *Adapter) fetchFixtures(ctx context.Context, leagueID int) ([]fixtureEntry, error) {
	now := a.now().UTC()
	opts := httpclient.Options{
		Header: a.headers(),
		Query: url.Values{
			"league": {strconv.Itoa(leagueID)},
			"season": {strconv.Itoa(currentSeason(now))},
			"from":   {now.Format("2006-01-02")},
			"to":     {now.AddDate(0, 0, daysAhead).Format("2006-01-02")},
			"status": {"NS"},
		},
	}
	body, err := a.client.GetJSON(ctx, a.baseURL+"/fixtures", opts)
	if err != nil {
		return nil, err
	}

	var resp fixturesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return resp.Response, nil
}

func (a *Adapter) buildMatch(entry *fixtureEntry, leagueName string) *models.Match {
	if entry.Fixture.ID == 0 {
		return nil
	}

	m := models.Match{
		ExternalID: fmt.Sprintf("apifootball_%d", entry.Fixture.ID),
		Sport:      models.SportFootball,
		League:     leagueName,
		HomeTeam:   entry.Teams.Home.Name,
		AwayTeam:   entry.Teams.Away.Name,
		MatchURL:   fmt.Sprintf("https://www.api-football.com/fixture/%d", entry.Fixture.ID),
		Source:     adapterName,
	}
	if t, err := time.Parse(time.RFC3339, entry.Fixture.Date); err == nil {
		utc := t.UTC()
		m.StartTime = &utc
	}
	return &m
}

func (a *Adapter) attachOdds(ctx context.Context, m *models.Match, fixtureID int64) error {
	opts := httpclient.Options{
		Header: a.headers(),
		Query:  url.Values{"fixture": {strconv.FormatInt(fixtureID, 10)}},
	}
	body, err := a.client.GetJSON(ctx, a.baseURL+"/odds", opts)
	if err != nil {
		return err
	}

	var resp oddsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode odds: %w", err)
	}
	if len(resp.Response) == 0 {
		return nil
	}

	applyOdds(m, &resp.Response[0])
	return nil
}

// applyOdds extracts 1X2 and totals markets from every listed bookmaker;
// later bookmakers overwrite earlier ones, so the last complete market wins.
func applyOdds(m *models.Match, entry *oddsEntry) {
	for _, bk := range entry.Bookmakers {
		for _, bet := range bk.Bets {
			switch bet.Name {
			case "Match Winner", "1X2":
				for _, v := range bet.Values {
					odd := parseOdd(v.Odd)
					switch v.Value {
					case "Home", "1":
						m.Odds.Home = odd
					case "Draw", "X":
						m.Odds.Draw = odd
					case "Away", "2":
						m.Odds.Away = odd
					}
				}
			case "Goals Over/Under", "Over/Under":
				for _, v := range bet.Values {
					odd := parseOdd(v.Odd)
					switch {
					case strings.HasPrefix(v.Value, "Over"):
						if line, ok := parseTotalLine(v.Value, "Over"); ok {
							m.Totals.Line = &line
						}
						m.Totals.Over = odd
					case strings.HasPrefix(v.Value, "Under"):
						m.Totals.Under = odd
					}
				}
			}
		}
	}
}

// parseOdd handles the API returning odds as decimal strings.
func parseOdd(raw string) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseTotalLine extracts the line from labels like "Over 2.5" or "Over2.5".
func parseTotalLine(label, prefix string) (float64, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(label, prefix))
	if rest == "" {
		return 0, false
	}
	line, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return 0, false
	}
	return line, true
}
