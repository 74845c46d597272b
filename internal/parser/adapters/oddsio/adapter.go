// Package oddsio fetches upcoming odds from odds-api.io (v3). Unlike
// the-odds-api.com the events list and the odds are separate endpoints,
// so odds are fetched per event: the list is filtered to top leagues,
// capped per sport, and the per-event requests run through a bounded
// worker fan-out.
package oddsio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MinorTermite/prizmbet-v2/internal/parser/adapters"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/apperrors"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/httpclient"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

const (
	adapterName    = "oddsio"
	defaultBaseURL = "https://api.odds-api.io/v3"

	// defaultBookmaker is available on the free plan.
	defaultBookmaker = "1xbet"

	// maxEventsPerSport bounds the number of per-event odds requests.
	maxEventsPerSport = 60

	// oddsWorkers caps concurrent per-event odds requests.
	oddsWorkers = 20
)

// topLeagueSlugs filters the events list down to competitions worth the
// per-event request budget.
var topLeagueSlugs = []string{
	"premier-league", "la-liga", "bundesliga", "serie-a", "ligue-1",
	"champions-league", "europa-league", "conference-league",
	"primera-division", "primeira-liga", "super-lig",
	"ekstraklasa", "russian-premier", "ukraine-premier",
	"nba", "nhl",
}

var sportSlugs = []struct {
	slug  string
	sport models.Sport
}{
	{"football", models.SportFootball},
	{"basketball", models.SportBasket},
	{"ice-hockey", models.SportHockey},
}

func init() {
	adapters.Register(adapterName, func(deps adapters.Deps) adapters.Adapter {
		cfg := deps.Config.Adapters.OddsIO
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		bookmaker := cfg.Bookmaker
		if bookmaker == "" {
			bookmaker = defaultBookmaker
		}
		return &Adapter{
			baseURL:   baseURL,
			apiKey:    cfg.APIKey,
			bookmaker: bookmaker,
			client:    deps.Client,
		}
	})
}

type Adapter struct {
	baseURL   string
	apiKey    string
	bookmaker string
	client    *httpclient.Client
}

func (a *Adapter) Name() string { return adapterName }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) FetchAndParse(ctx context.Context) ([]models.Match, error) {
	if a.apiKey == "" {
		return nil, apperrors.ConfigMissing("ODDS_API_IO_KEY")
	}

	var all []models.Match
	var failed int
	for _, s := range sportSlugs {
		events, err := a.fetchEvents(ctx, s.slug)
		if err != nil {
			slog.Warn("OddsIO events fetch failed", "sport", s.slug, "error", err)
			failed++
			continue
		}

		selected := selectTopEvents(events)
		slog.Debug("OddsIO events selected",
			"sport", s.slug, "total", len(events), "selected", len(selected))

		all = append(all, a.fetchOddsForEvents(ctx, selected, s.sport)...)
	}
	if failed == len(sportSlugs) {
		return nil, fmt.Errorf("all %d sport requests failed", failed)
	}
	return all, nil
}

func (a *Adapter) fetchEvents(ctx context.Context, sportSlug string) ([]ioEvent, error) {
	opts := httpclient.Options{
		Query: url.Values{
			"apiKey": {a.apiKey},
			"sport":  {sportSlug},
			"status": {"pending"},
		},
	}
	body, err := a.client.GetJSON(ctx, a.baseURL+"/events", opts)
	if err != nil {
		return nil, err
	}

	var events []ioEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

// selectTopEvents keeps top-league events only, earliest kickoffs first,
// capped at maxEventsPerSport.
func selectTopEvents(events []ioEvent) []ioEvent {
	var selected []ioEvent
	for _, ev := range events {
		for _, slug := range topLeagueSlugs {
			if strings.Contains(ev.League.Slug, slug) {
				selected = append(selected, ev)
				break
			}
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Date < selected[j].Date })
	if len(selected) > maxEventsPerSport {
		selected = selected[:maxEventsPerSport]
	}
	return selected
}

// fetchOddsForEvents fans out per-event odds requests with a bounded
// number of workers. Per-event failures are skipped, not fatal.
func (a *Adapter) fetchOddsForEvents(ctx context.Context, events []ioEvent, sport models.Sport) []models.Match {
	results := make([]*models.Match, len(events))

	var wg sync.WaitGroup
	sem := make(chan struct{}, oddsWorkers)
	for i := range events {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			odds, err := a.fetchEventOdds(ctx, events[i].ID)
			if err != nil {
				slog.Debug("OddsIO event odds failed", "event_id", events[i].ID, "error", err)
				return
			}
			results[i] = parseEvent(&events[i], odds, sport)
		}(i)
	}
	wg.Wait()

	var out []models.Match
	for _, m := range results {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

func (a *Adapter) fetchEventOdds(ctx context.Context, eventID int64) (*ioOddsResponse, error) {
	opts := httpclient.Options{
		Query: url.Values{
			"apiKey":     {a.apiKey},
			"eventId":    {strconv.FormatInt(eventID, 10)},
			"bookmakers": {a.bookmaker},
		},
	}
	body, err := a.client.GetJSON(ctx, a.baseURL+"/odds", opts)
	if err != nil {
		return nil, err
	}

	var resp ioOddsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode odds: %w", err)
	}
	return &resp, nil
}

// parseEvent merges an event with its odds response. Only the first
// bookmaker in the response is used.
func parseEvent(ev *ioEvent, resp *ioOddsResponse, sport models.Sport) *models.Match {
	m := models.Match{
		ExternalID: fmt.Sprintf("oddsio_%d", ev.ID),
		Sport:      sport,
		League:     ev.League.Name,
		HomeTeam:   ev.Home,
		AwayTeam:   ev.Away,
		IsLive:     ev.Status == "live",
		Source:     adapterName,
	}
	if m.League == "" {
		m.League = ev.League.Slug
	}
	if t, err := time.Parse(time.RFC3339, ev.Date); err == nil {
		utc := t.UTC()
		m.StartTime = &utc
	}

	for _, markets := range resp.Bookmakers {
		for _, market := range markets {
			if len(market.Odds) == 0 {
				continue
			}
			o := market.Odds[0]
			switch market.Name {
			case "ML":
				m.Odds = models.Odds{Home: o.Home, Draw: o.Draw, Away: o.Away}
			case "Total", "Over/Under", "O/U":
				// Some bookmaker feeds label the total prices home/away.
				m.Totals = models.Totals{Over: o.Over, Under: o.Under}
				if m.Totals.Over == 0 {
					m.Totals.Over = o.Home
				}
				if m.Totals.Under == 0 {
					m.Totals.Under = o.Away
				}
				if o.Total != nil {
					m.Totals.Line = o.Total
				} else {
					m.Totals.Line = o.Line
				}
			case "Spread":
				m.Handicap = models.Handicap{HomePrice: o.Home, AwayPrice: o.Away}
				if o.Hdp != nil {
					m.Handicap.HomeLine = o.Hdp
					neg := -*o.Hdp
					m.Handicap.AwayLine = &neg
				}
			}
		}
		break // first bookmaker only
	}

	m.ApplyNoDraw()
	if !m.HasPrice() {
		return nil
	}
	return &m
}
