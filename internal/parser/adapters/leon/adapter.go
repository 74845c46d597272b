// Package leon fetches the leon.ru betline feed.
//
// Single request: GET /api-2/betline/events/all?ctag=ru-RU&flags=all
// Team names come from nameDefault (English) split on " - ".
package leon

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
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/httpclient"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

const (
	adapterName    = "leon"
	defaultBaseURL = "https://leon.ru"
)

// sportFamilies maps leon sport family to the internal sport key.
// Families outside the map (virtuals etc.) are skipped.
var sportFamilies = map[string]models.Sport{
	"Soccer":     models.SportFootball,
	"Basketball": models.SportBasket,
	"IceHockey":  models.SportHockey,
	"Tennis":     models.SportTennis,
	"Volleyball": models.SportVolleyball,
	"Baseball":   models.SportBaseball,
}

func init() {
	adapters.Register(adapterName, func(deps adapters.Deps) adapters.Adapter {
		baseURL := deps.Config.Adapters.Leon.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		return &Adapter{baseURL: strings.TrimSuffix(baseURL, "/"), client: deps.Client}
	})
}

type Adapter struct {
	baseURL string
	client  *httpclient.Client
}

func (a *Adapter) Name() string { return adapterName }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) FetchAndParse(ctx context.Context) ([]models.Match, error) {
	opts := httpclient.Options{
		Query: url.Values{"ctag": {"ru-RU"}, "flags": {"all"}},
		Header: http.Header{
			"Referer": {a.baseURL + "/"},
		},
	}
	body, err := a.client.GetJSON(ctx, a.baseURL+"/api-2/betline/events/all", opts)
	if err != nil {
		return nil, fmt.Errorf("leon: fetch events: %w", err)
	}

	var feed eventsResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("leon: decode events: %w", err)
	}
	slog.Debug("Leon events fetched", "total", len(feed.Events))

	matches := make([]models.Match, 0, len(feed.Events))
	for i := range feed.Events {
		if m := a.parseEvent(&feed.Events[i]); m != nil {
			matches = append(matches, *m)
		}
	}
	return matches, nil
}

func (a *Adapter) parseEvent(ev *event) *models.Match {
	sport, ok := sportFamilies[ev.League.Sport.Family]
	if !ok {
		return nil
	}

	parts := strings.SplitN(ev.NameDefault, " - ", 2)
	if len(parts) != 2 {
		return nil
	}
	home := strings.TrimSpace(parts[0])
	away := strings.TrimSpace(parts[1])
	if home == "" || away == "" {
		return nil
	}

	league := ev.League.NameDefault
	if region := ev.League.RegionDefault; region != "" && !strings.Contains(strings.ToLower(league), strings.ToLower(region)) {
		league = region + ". " + league
	}

	var startTime *time.Time
	if ev.Kickoff > 0 {
		t := time.Unix(0, ev.Kickoff*int64(time.Millisecond)).UTC()
		startTime = &t
	}

	m := models.Match{
		ExternalID: fmt.Sprintf("leon_%d", ev.ID),
		Sport:      sport,
		League:     league,
		HomeTeam:   home,
		AwayTeam:   away,
		StartTime:  startTime,
		IsLive:     ev.Betline == "inplay" || ev.MatchPhase == "IN_PLAY",
		MatchURL:   a.baseURL + ev.URL,
		Source:     adapterName,
	}

	for _, mk := range ev.Markets {
		a.parseMarket(&m, mk)
	}

	m.ApplyNoDraw()
	if !m.HasPrice() {
		return nil
	}
	return &m
}

func (a *Adapter) parseMarket(m *models.Match, mk market) {
	name := mk.Name
	runnerNames := map[string]bool{}
	for _, r := range mk.Runners {
		runnerNames[r.Name] = true
	}

	switch {
	case is1X2(name, runnerNames):
		for _, r := range mk.Runners {
			switch r.Name {
			case "1":
				m.Odds.Home = r.Price
			case "X", "x", "Х", "х": // Latin or Cyrillic X
				m.Odds.Draw = r.Price
			case "2":
				m.Odds.Away = r.Price
			}
		}

	case isTotal(name):
		for _, r := range mk.Runners {
			line, err := strconv.ParseFloat(r.Param, 64)
			if err != nil {
				continue
			}
			if isOverRunner(r.Name) {
				m.Totals.Line = &line
				m.Totals.Over = r.Price
			} else if isUnderRunner(r.Name) {
				m.Totals.Under = r.Price
			}
		}

	case isHandicap(name):
		for _, r := range mk.Runners {
			line, err := strconv.ParseFloat(r.Param, 64)
			if err != nil {
				continue
			}
			switch r.Name {
			case "1":
				m.Handicap.HomeLine = &line
				m.Handicap.HomePrice = r.Price
			case "2":
				m.Handicap.AwayLine = &line
				m.Handicap.AwayPrice = r.Price
			}
		}
	}
}

func is1X2(name string, runners map[string]bool) bool {
	upper := strings.ToUpper(name)
	if strings.Contains(upper, "1X2") || strings.Contains(upper, "1Х2") {
		return true
	}
	return runners["1"] && runners["2"] && len(runners) <= 3
}

func isTotal(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "отал") || strings.Contains(lower, "otal")
}

func isHandicap(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "фора") || strings.Contains(lower, "andicap") || strings.Contains(lower, "зиатск")
}

func isOverRunner(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "больш") || strings.Contains(lower, "ver") || name == "Б"
}

func isUnderRunner(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "меньш") || strings.Contains(lower, "nder") || name == "М"
}
