// Package winline scrapes winline.ru, which renders its line entirely
// in JavaScript. A headless Chrome navigates the prematch page, scrolls
// to force lazy rows to load, then a JS snippet maps the rendered rows
// into a JSON array that Go decodes. Needs a local Chrome, so the
// adapter is off unless enabled in config.
package winline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/MinorTermite/prizmbet-v2/internal/parser/adapters"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

const (
	adapterName    = "winline"
	defaultBaseURL = "https://winline.ru"

	pageTimeout = 90 * time.Second
	scrollSteps = 5
)

var sportPaths = []struct {
	path  string
	sport models.Sport
}{
	{"/stavki/sport/futbol", models.SportFootball},
	{"/stavki/sport/hokkei", models.SportHockey},
	{"/stavki/sport/tennis", models.SportTennis},
}

// extractJS maps every rendered event row into a plain object. Prices
// come back as text and are parsed on the Go side.
const extractJS = `JSON.stringify(Array.from(document.querySelectorAll('[data-event-id]')).map(function(row) {
	var price = function(sel) {
		var el = row.querySelector(sel);
		return el ? el.textContent.trim() : '';
	};
	var team = function(sel) {
		var el = row.querySelector(sel);
		return el ? el.textContent.trim() : '';
	};
	return {
		id: row.getAttribute('data-event-id'),
		url: row.querySelector('a') ? row.querySelector('a').href : '',
		league: team('.league-name'),
		home: team('.team-name:first-of-type, [data-team="home"]'),
		away: team('.team-name:last-of-type, [data-team="away"]'),
		date: row.getAttribute('data-event-date') || '',
		live: row.classList.contains('live'),
		win1: price('[data-outcome="1"]'),
		winX: price('[data-outcome="X"]'),
		win2: price('[data-outcome="2"]')
	};
}))`

func init() {
	adapters.Register(adapterName, func(deps adapters.Deps) adapters.Adapter {
		cfg := deps.Config.Adapters.Winline
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		return &Adapter{
			baseURL: strings.TrimSuffix(baseURL, "/"),
			render:  renderPage,
		}
	})
}

type Adapter struct {
	baseURL string

	// render is replaced in tests to avoid needing a Chrome binary.
	render func(ctx context.Context, pageURL string) ([]byte, error)
}

func (a *Adapter) Name() string { return adapterName }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) FetchAndParse(ctx context.Context) ([]models.Match, error) {
	var all []models.Match
	var failed int
	for _, sp := range sportPaths {
		raw, err := a.render(ctx, a.baseURL+sp.path)
		if err != nil {
			slog.Warn("Winline page render failed", "path", sp.path, "error", err)
			failed++
			continue
		}

		matches, err := parseEvents(raw, sp.sport)
		if err != nil {
			slog.Warn("Winline page parse failed", "path", sp.path, "error", err)
			failed++
			continue
		}
		slog.Debug("Winline page parsed", "path", sp.path, "events", len(matches))
		all = append(all, matches...)
	}
	if failed == len(sportPaths) {
		return nil, fmt.Errorf("all %d page renders failed", failed)
	}
	return all, nil
}

// renderPage drives a headless Chrome through the page and returns the
// JSON produced by extractJS.
func renderPage(ctx context.Context, pageURL string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, pageTimeout)
	defer cancelTimeout()

	actions := []chromedp.Action{
		chromedp.Navigate(pageURL),
		chromedp.Sleep(3 * time.Second),
	}
	for i := 0; i < scrollSteps; i++ {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollBy(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(time.Second),
		)
	}

	var raw string
	actions = append(actions, chromedp.Evaluate(extractJS, &raw))

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}
	return []byte(raw), nil
}

// eventRow is the shape produced by extractJS.
type eventRow struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	League string `json:"league"`
	Home   string `json:"home"`
	Away   string `json:"away"`
	Date   string `json:"date"`
	Live   bool   `json:"live"`
	Win1   string `json:"win1"`
	WinX   string `json:"winX"`
	Win2   string `json:"win2"`
}

func parseEvents(raw []byte, sport models.Sport) ([]models.Match, error) {
	var rows []eventRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode extracted rows: %w", err)
	}

	var matches []models.Match
	for _, row := range rows {
		if row.ID == "" || row.Home == "" || row.Away == "" {
			continue
		}

		m := models.Match{
			ExternalID: "winline_" + row.ID,
			Sport:      sport,
			League:     row.League,
			HomeTeam:   row.Home,
			AwayTeam:   row.Away,
			IsLive:     row.Live,
			MatchURL:   row.URL,
			Odds: models.Odds{
				Home: parsePrice(row.Win1),
				Draw: parsePrice(row.WinX),
				Away: parsePrice(row.Win2),
			},
			Source: adapterName,
		}
		if t, err := time.Parse(time.RFC3339, row.Date); err == nil {
			utc := t.UTC()
			m.StartTime = &utc
		}

		m.ApplyNoDraw()
		if !m.HasPrice() {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// parsePrice handles prices rendered with a comma decimal separator.
func parsePrice(text string) float64 {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if text == "" || text == "-" {
		return 0
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return f
}
