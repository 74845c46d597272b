// Package oddsapi fetches upcoming odds from the-odds-api.com (v4).
// Each sport key is one request; events carry bookmaker prices inline.
// The response headers include the remaining request quota, which is
// logged so a draining key is visible before it runs out.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/MinorTermite/prizmbet-v2/internal/parser/adapters"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/apperrors"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/httpclient"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

const (
	adapterName    = "oddsapi"
	defaultBaseURL = "https://api.the-odds-api.com/v4"
)

// sportCatalog maps provider sport keys to our sport and a display league.
// The provider groups events by competition key, so the league name is fixed
// per key rather than taken from the payload.
var sportCatalog = []struct {
	key    string
	sport  models.Sport
	league string
}{
	{"soccer_uefa_champions_league", models.SportFootball, "Liga Chempionov UEFA"},
	{"soccer_epl", models.SportFootball, "Angliya. Premier-liga"},
	{"soccer_spain_la_liga", models.SportFootball, "Ispaniya. La Liga"},
	{"soccer_germany_bundesliga", models.SportFootball, "Germaniya. Bundesliga"},
	{"soccer_italy_serie_a", models.SportFootball, "Italiya. Seriya A"},
	{"basketball_nba", models.SportBasket, "NBA"},
	{"icehockey_nhl", models.SportHockey, "NHL"},
}

func init() {
	adapters.Register(adapterName, func(deps adapters.Deps) adapters.Adapter {
		cfg := deps.Config.Adapters.OddsAPI
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		return &Adapter{
			baseURL: baseURL,
			apiKey:  cfg.APIKey,
			client:  deps.Client,
		}
	})
}

type Adapter struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
}

func (a *Adapter) Name() string { return adapterName }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) FetchAndParse(ctx context.Context) ([]models.Match, error) {
	if a.apiKey == "" {
		return nil, apperrors.ConfigMissing("ODDS_API_KEY")
	}

	var all []models.Match
	var failed int
	for _, entry := range sportCatalog {
		events, err := a.fetchSport(ctx, entry.key)
		if err != nil {
			slog.Warn("OddsAPI sport fetch failed", "sport_key", entry.key, "error", err)
			failed++
			continue
		}
		for i := range events {
			if m := parseEvent(&events[i], entry.sport, entry.league); m != nil {
				all = append(all, *m)
			}
		}
	}
	if failed == len(sportCatalog) {
		return nil, fmt.Errorf("all %d sport requests failed", failed)
	}
	return all, nil
}

func (a *Adapter) fetchSport(ctx context.Context, sportKey string) ([]apiEvent, error) {
	opts := httpclient.Options{
		Query: url.Values{
			"apiKey":     {a.apiKey},
			"regions":    {"eu,us"},
			"markets":    {"h2h,totals,spreads"},
			"oddsFormat": {"decimal"},
			"dateFormat": {"iso"},
		},
		ObserveHeaders: func(h http.Header) {
			if remaining := h.Get("x-requests-remaining"); remaining != "" {
				slog.Info("OddsAPI quota", "sport_key", sportKey, "remaining", remaining)
			}
		},
	}

	body, err := a.client.GetJSON(ctx, fmt.Sprintf("%s/sports/%s/odds", a.baseURL, sportKey), opts)
	if err != nil {
		return nil, err
	}

	var events []apiEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

// parseEvent flattens the first listed bookmaker into a Match. Events with
// no bookmakers (no market open yet) are skipped.
func parseEvent(ev *apiEvent, sport models.Sport, league string) *models.Match {
	if len(ev.Bookmakers) == 0 {
		return nil
	}

	m := models.Match{
		ExternalID: "odds_" + ev.ID,
		Sport:      sport,
		League:     league,
		HomeTeam:   ev.HomeTeam,
		AwayTeam:   ev.AwayTeam,
		Source:     adapterName,
	}
	if t, err := time.Parse(time.RFC3339, ev.CommenceTime); err == nil {
		utc := t.UTC()
		m.StartTime = &utc
	}

	for _, market := range ev.Bookmakers[0].Markets {
		switch market.Key {
		case "h2h":
			for _, o := range market.Outcomes {
				switch o.Name {
				case ev.HomeTeam:
					m.Odds.Home = o.Price
				case ev.AwayTeam:
					m.Odds.Away = o.Price
				case "Draw":
					m.Odds.Draw = o.Price
				}
			}
		case "totals":
			for _, o := range market.Outcomes {
				switch o.Name {
				case "Over":
					m.Totals.Over = o.Price
					m.Totals.Line = o.Point
				case "Under":
					m.Totals.Under = o.Price
				}
			}
		case "spreads":
			for _, o := range market.Outcomes {
				switch o.Name {
				case ev.HomeTeam:
					m.Handicap.HomeLine = o.Point
					m.Handicap.HomePrice = o.Price
				case ev.AwayTeam:
					m.Handicap.AwayLine = o.Point
					m.Handicap.AwayPrice = o.Price
				}
			}
		}
	}

	m.ApplyNoDraw()
	if !m.HasPrice() {
		return nil
	}
	return &m
}
