// Package xbet fetches the 1xbet LineFeed.
//
// GET /LineFeed/Get1x2_VZip per sport; the body arrives gzip-compressed
// without a Content-Encoding header (the shared client sniffs and inflates).
// Selections use numeric codes: 1/2/3 = home/draw/away, 5/6 = total
// over/under, 7/8 = handicap home/away.
package xbet

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
	adapterName    = "xbet"
	defaultBaseURL = "https://1xbet.com"
	eventsPerSport = 100
)

var sportIDs = []struct {
	id    int
	sport models.Sport
}{
	{1, models.SportFootball},
	{2, models.SportHockey},
	{3, models.SportBasket},
	{5, models.SportTennis},
}

func init() {
	adapters.Register(adapterName, func(deps adapters.Deps) adapters.Adapter {
		baseURL := deps.Config.Adapters.XBet.BaseURL
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
	var all []models.Match
	var lastErr error

	for _, s := range sportIDs {
		matches, err := a.fetchSport(ctx, s.id, s.sport)
		if err != nil {
			// One sport failing is a partial result, not an adapter failure.
			slog.Warn("1xbet sport fetch failed", "sport", s.sport, "error", err)
			lastErr = err
			continue
		}
		all = append(all, matches...)
	}

	if len(all) == 0 && lastErr != nil {
		return nil, fmt.Errorf("xbet: all sports failed: %w", lastErr)
	}
	return all, nil
}

func (a *Adapter) fetchSport(ctx context.Context, sportID int, sport models.Sport) ([]models.Match, error) {
	opts := httpclient.Options{
		Query: url.Values{
			"sports":   {strconv.Itoa(sportID)},
			"count":    {strconv.Itoa(eventsPerSport)},
			"lng":      {"ru"},
			"mode":     {"4"},
			"partner":  {"51"},
			"getEmpty": {"false"},
		},
		Header: http.Header{"Referer": {a.baseURL + "/"}},
	}

	body, err := a.client.GetJSON(ctx, a.baseURL+"/LineFeed/Get1x2_VZip", opts)
	if err != nil {
		return nil, fmt.Errorf("fetch sport %d: %w", sportID, err)
	}

	var feed lineFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode sport %d: %w", sportID, err)
	}
	if !feed.Success {
		return nil, fmt.Errorf("sport %d: api returned Success=false", sportID)
	}

	matches := make([]models.Match, 0, len(feed.Value))
	for i := range feed.Value {
		if m := parseEvent(&feed.Value[i], sport); m != nil {
			matches = append(matches, *m)
		}
	}
	return matches, nil
}

func parseEvent(ev *lineEvent, sport models.Sport) *models.Match {
	eventID := ev.FI
	if eventID == 0 {
		eventID = ev.I
	}
	if eventID == 0 || ev.Home == "" || ev.Away == "" {
		return nil
	}

	var startTime *time.Time
	if ev.Start > 0 {
		t := time.Unix(ev.Start, 0).UTC()
		startTime = &t
	}

	m := models.Match{
		ExternalID: fmt.Sprintf("1xbet_%d", eventID),
		Sport:      sport,
		League:     ev.League,
		HomeTeam:   ev.Home,
		AwayTeam:   ev.Away,
		StartTime:  startTime,
		Source:     adapterName,
	}

	selections := ev.SE
	if len(selections) == 0 {
		selections = ev.E
	}
	for _, sel := range selections {
		applySelection(&m, sel)
	}

	m.ApplyNoDraw()
	if !m.HasPrice() {
		return nil
	}
	return &m
}

func applySelection(m *models.Match, sel selection) {
	switch sel.Type {
	case 1:
		m.Odds.Home = sel.Coef
	case 2:
		m.Odds.Draw = sel.Coef
	case 3:
		m.Odds.Away = sel.Coef
	case 5:
		if sel.Param != nil {
			line := *sel.Param
			m.Totals.Line = &line
			m.Totals.Over = sel.Coef
		}
	case 6:
		if sel.Param != nil {
			m.Totals.Under = sel.Coef
		}
	case 7:
		if sel.Param != nil {
			line := *sel.Param
			m.Handicap.HomeLine = &line
			m.Handicap.HomePrice = sel.Coef
		}
	case 8:
		if sel.Param != nil {
			line := *sel.Param
			m.Handicap.AwayLine = &line
			m.Handicap.AwayPrice = sel.Coef
		}
	}
}
