// Package pinnacle fetches the Pinnacle odds API through its ps3838 mirror
// (identical response format, no funded account required).
// Auth: HTTP Basic. Fixtures and odds are separate endpoints joined by
// event id; only the full-match period (number 0) is used.
package pinnacle

import (
	"context"
	"encoding/base64"
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
	adapterName    = "pinnacle"
	defaultBaseURL = "https://api.ps3838.com/v1"
)

// Pinnacle sport ids.
var sportIDs = []struct {
	id    int
	sport models.Sport
}{
	{29, models.SportFootball},
	{18, models.SportBasket},
	{19, models.SportHockey},
	{33, models.SportTennis},
}

func init() {
	adapters.Register(adapterName, func(deps adapters.Deps) adapters.Adapter {
		cfg := deps.Config.Adapters.Pinnacle
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		return &Adapter{
			baseURL:  strings.TrimSuffix(baseURL, "/"),
			login:    cfg.Login,
			password: cfg.Password,
			client:   deps.Client,
		}
	})
}

type Adapter struct {
	baseURL  string
	login    string
	password string
	client   *httpclient.Client
}

func (a *Adapter) Name() string { return adapterName }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) FetchAndParse(ctx context.Context) ([]models.Match, error) {
	if a.login == "" || a.password == "" {
		return nil, apperrors.ConfigMissing("PINNACLE_LOGIN/PINNACLE_PASSWORD")
	}

	var all []models.Match
	var failed int
	for _, s := range sportIDs {
		fixtures, err := a.fetchFixtures(ctx, s.id)
		if err != nil {
			slog.Warn("Pinnacle fixtures fetch failed", "sport", s.sport, "error", err)
			failed++
			continue
		}
		odds, err := a.fetchOdds(ctx, s.id)
		if err != nil {
			slog.Warn("Pinnacle odds fetch failed", "sport", s.sport, "error", err)
			failed++
			continue
		}

		merged := joinFixturesWithOdds(fixtures, odds, s.sport)
		slog.Debug("Pinnacle sport parsed", "sport", s.sport, "events", len(merged))
		all = append(all, merged...)
	}
	if failed == len(sportIDs) {
		return nil, fmt.Errorf("all %d sport requests failed", failed)
	}
	return all, nil
}

func (a *Adapter) authHeader() http.Header {
	raw := a.login + ":" + a.password
	return http.Header{
		"Authorization": {"Basic " + base64.StdEncoding.EncodeToString([]byte(raw))},
		"Accept":        {"application/json"},
	}
}

type fixtureInfo struct {
	league string
	home   string
	away   string
	starts string
}

func (a *Adapter) fetchFixtures(ctx context.Context, sportID int) (map[int64]fixtureInfo, error) {
	opts := httpclient.Options{
		Header: a.authHeader(),
		Query:  url.Values{"sportId": {strconv.Itoa(sportID)}, "isLive": {"0"}},
	}
	body, err := a.client.GetJSON(ctx, a.baseURL+"/fixtures", opts)
	if err != nil {
		return nil, err
	}

	var resp fixturesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	out := map[int64]fixtureInfo{}
	for _, lg := range resp.League {
		for _, ev := range lg.Events {
			if ev.ID == 0 {
				continue
			}
			out[ev.ID] = fixtureInfo{
				league: lg.Name,
				home:   ev.Home,
				away:   ev.Away,
				starts: ev.Starts,
			}
		}
	}
	return out, nil
}

func (a *Adapter) fetchOdds(ctx context.Context, sportID int) (map[int64]oddsEntry, error) {
	opts := httpclient.Options{
		Header: a.authHeader(),
		Query: url.Values{
			"sportId":    {strconv.Itoa(sportID)},
			"oddsFormat": {"Decimal"},
			"isLive":     {"0"},
		},
	}
	body, err := a.client.GetJSON(ctx, a.baseURL+"/odds", opts)
	if err != nil {
		return nil, err
	}

	var resp oddsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode odds: %w", err)
	}

	out := map[int64]oddsEntry{}
	for _, lg := range resp.Leagues {
		for _, matchup := range lg.Matchups {
			if matchup.ID == 0 {
				continue
			}
			var entry oddsEntry
			for _, period := range matchup.Periods {
				if period.Number != 0 {
					continue // full-match period only
				}
				if ml := period.Moneyline; ml != nil {
					entry.odds = models.Odds{Home: ml.Home, Draw: ml.Draw, Away: ml.Away}
				}
				if len(period.Totals) > 0 {
					t := period.Totals[0]
					entry.totals = models.Totals{Line: t.Points, Over: t.Over, Under: t.Under}
				}
				if len(period.Spreads) > 0 {
					s := period.Spreads[0]
					entry.handicap = models.Handicap{
						HomeLine:  s.Hdp,
						HomePrice: s.Home,
						AwayPrice: s.Away,
					}
					if s.Hdp != nil {
						neg := -*s.Hdp
						entry.handicap.AwayLine = &neg
					}
				}
			}
			out[matchup.ID] = entry
		}
	}
	return out, nil
}

type oddsEntry struct {
	odds     models.Odds
	totals   models.Totals
	handicap models.Handicap
}

func joinFixturesWithOdds(fixtures map[int64]fixtureInfo, odds map[int64]oddsEntry, sport models.Sport) []models.Match {
	var out []models.Match
	for id, fix := range fixtures {
		entry, ok := odds[id]
		if !ok {
			continue
		}

		var startTime *time.Time
		if fix.starts != "" {
			if t, err := time.Parse(time.RFC3339, fix.starts); err == nil {
				utc := t.UTC()
				startTime = &utc
			}
		}

		m := models.Match{
			ExternalID: fmt.Sprintf("pinnacle_%d", id),
			Sport:      sport,
			League:     fix.league,
			HomeTeam:   fix.home,
			AwayTeam:   fix.away,
			StartTime:  startTime,
			Odds:       entry.odds,
			Totals:     entry.totals,
			Handicap:   entry.handicap,
			Source:     adapterName,
		}
		m.ApplyNoDraw()
		if !m.HasPrice() {
			continue
		}
		out = append(out, m)
	}
	return out
}
