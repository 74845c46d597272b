// Package marathon scrapes the Marathonbet prematch coupon pages. The
// markup carries machine-readable attributes alongside the rendered
// text: every coupon row has a data-json blob with the event info and
// data-sel blobs with the prices, so parsing walks attributes rather
// than visible text.
package marathon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/MinorTermite/prizmbet-v2/internal/parser/adapters"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/httpclient"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

const (
	adapterName    = "marathon"
	defaultBaseURL = "https://www.marathonbet.ru"
)

// sportPaths are the prematch coupon pages to scrape.
var sportPaths = []struct {
	path  string
	sport models.Sport
}{
	{"/su/betting/Football", models.SportFootball},
	{"/su/betting/Ice+Hockey", models.SportHockey},
	{"/su/betting/Tennis", models.SportTennis},
}

func init() {
	adapters.Register(adapterName, func(deps adapters.Deps) adapters.Adapter {
		cfg := deps.Config.Adapters.Marathon
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		return &Adapter{
			baseURL: strings.TrimSuffix(baseURL, "/"),
			client:  deps.Client,
		}
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
	var failed int
	for _, sp := range sportPaths {
		body, err := a.client.Get(ctx, a.baseURL+sp.path, httpclient.Options{})
		if err != nil {
			slog.Warn("Marathon page fetch failed", "path", sp.path, "error", err)
			failed++
			continue
		}

		matches, err := parseCouponPage(body, sp.sport, a.baseURL)
		if err != nil {
			slog.Warn("Marathon page parse failed", "path", sp.path, "error", err)
			failed++
			continue
		}
		slog.Debug("Marathon page parsed", "path", sp.path, "events", len(matches))
		all = append(all, matches...)
	}
	if failed == len(sportPaths) {
		return nil, fmt.Errorf("all %d page requests failed", failed)
	}
	return all, nil
}

// eventJSON is the data-json attribute payload on a coupon row.
type eventJSON struct {
	TeamNames []string `json:"teamNames"`
	StartTime string   `json:"startTime"`
}

// selJSON is the data-sel attribute payload on a price cell. The epr
// field arrives as a string on some pages and a number on others.
type selJSON struct {
	Epr float64
}

func (s *selJSON) UnmarshalJSON(data []byte) error {
	var aux struct {
		Epr any `json:"epr"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch v := aux.Epr.(type) {
	case float64:
		s.Epr = v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.Epr = f
		}
	}
	return nil
}

// parseCouponPage extracts one Match per coupon row carrying an event id.
func parseCouponPage(body []byte, sport models.Sport, baseURL string) ([]models.Match, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var matches []models.Match
	doc.Find("[data-event-id]").Each(func(_ int, row *goquery.Selection) {
		m := parseCouponRow(row, sport, baseURL)
		if m != nil {
			matches = append(matches, *m)
		}
	})
	return matches, nil
}

func parseCouponRow(row *goquery.Selection, sport models.Sport, baseURL string) *models.Match {
	eventID, _ := row.Attr("data-event-id")
	if eventID == "" {
		return nil
	}

	rawJSON, ok := row.Attr("data-json")
	if !ok {
		return nil
	}
	var ej eventJSON
	if err := json.Unmarshal([]byte(html.UnescapeString(rawJSON)), &ej); err != nil || len(ej.TeamNames) < 2 {
		return nil
	}

	m := models.Match{
		ExternalID: "marathon_" + eventID,
		Sport:      sport,
		League:     strings.TrimSpace(row.Find(".category-label").First().Text()),
		HomeTeam:   strings.TrimSpace(ej.TeamNames[0]),
		AwayTeam:   strings.TrimSpace(ej.TeamNames[1]),
		Source:     adapterName,
	}
	if path, ok := row.Attr("data-event-path"); ok {
		m.MatchURL = baseURL + path
	}
	if t, err := time.Parse(time.RFC3339, ej.StartTime); err == nil {
		utc := t.UTC()
		m.StartTime = &utc
	} else if t, err := time.Parse("02.01.2006 15:04", ej.StartTime); err == nil {
		utc := t.UTC()
		m.StartTime = &utc
	}

	applyRowMarkets(row, &m)

	m.ApplyNoDraw()
	if !m.HasPrice() {
		return nil
	}
	return &m
}

// applyRowMarkets walks the price cells of a coupon row. The RESULT
// cells carry ordered mutable ids (S_0_1, S_0_2, S_0_3 for 1/X/2);
// totals are identified through the Over_/Under_ selection key suffix.
func applyRowMarkets(row *goquery.Selection, m *models.Match) {
	row.Find("[data-sel]").Each(func(_ int, cell *goquery.Selection) {
		rawSel, _ := cell.Attr("data-sel")
		var sel selJSON
		if err := json.Unmarshal([]byte(html.UnescapeString(rawSel)), &sel); err != nil || sel.Epr <= 0 {
			return
		}

		marketType := cell.AttrOr("data-market-type", "")
		switch marketType {
		case "RESULT":
			switch mutableSlot(cell.AttrOr("data-mutable-id", "")) {
			case "1":
				m.Odds.Home = sel.Epr
			case "2":
				m.Odds.Draw = sel.Epr
			case "3":
				m.Odds.Away = sel.Epr
			}
		case "TOTAL":
			side, line, ok := parseSelectionKey(cell.AttrOr("data-selection-key", ""))
			if !ok {
				return
			}
			m.Totals.Line = &line
			if side == "Over" {
				m.Totals.Over = sel.Epr
			} else {
				m.Totals.Under = sel.Epr
			}
		}
	})
}

// mutableSlot returns the trailing slot index of ids like "S_0_2".
func mutableSlot(mutableID string) string {
	idx := strings.LastIndex(mutableID, "_")
	if idx < 0 {
		return ""
	}
	return mutableID[idx+1:]
}

// parseSelectionKey extracts side and line from keys ending in
// ".Over_2.5" or ".Under_2.5".
func parseSelectionKey(key string) (side string, line float64, ok bool) {
	for _, s := range []string{"Over", "Under"} {
		marker := "." + s + "_"
		idx := strings.LastIndex(key, marker)
		if idx < 0 {
			continue
		}
		f, err := strconv.ParseFloat(key[idx+len(marker):], 64)
		if err != nil {
			return "", 0, false
		}
		return s, f, true
	}
	return "", 0, false
}
