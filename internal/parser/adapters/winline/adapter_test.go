package winline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

const sampleRows = `[
  {"id":"9001","url":"https://winline.ru/stavki/sport/futbol/9001",
   "league":"Россия. Премьер-лига","home":"Зенит","away":"Спартак",
   "date":"2026-09-03T16:30:00Z","live":false,
   "win1":"1,85","winX":"3,60","win2":"4,20"},
  {"id":"9002","league":"X","home":"A","away":"B",
   "date":"2026-09-03T16:30:00Z","live":false,
   "win1":"","winX":"","win2":""},
  {"id":"","home":"","away":""}
]`

func TestParseEvents(t *testing.T) {
	matches, err := parseEvents([]byte(sampleRows), models.SportFootball)
	if err != nil {
		t.Fatalf("parseEvents: %v", err)
	}
	// Row 9002 has no prices, the last row no identity.
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	if m.ExternalID != "winline_9001" {
		t.Errorf("ExternalID = %q", m.ExternalID)
	}
	if m.HomeTeam != "Зенит" || m.AwayTeam != "Спартак" {
		t.Errorf("teams = %q / %q", m.HomeTeam, m.AwayTeam)
	}
	// Comma decimal separators must parse.
	if m.Odds.Home != 1.85 || m.Odds.Draw != 3.60 || m.Odds.Away != 4.20 {
		t.Errorf("unexpected odds: %+v", m.Odds)
	}
	if m.StartTime == nil || !m.StartTime.Equal(time.Date(2026, 9, 3, 16, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected start time: %v", m.StartTime)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"1,85", 1.85},
		{"2.10", 2.10},
		{" 3,5 ", 3.5},
		{"-", 0},
		{"", 0},
		{"n/a", 0},
	}
	for _, tt := range tests {
		if got := parsePrice(tt.text); got != tt.want {
			t.Errorf("parsePrice(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestFetchAndParseWithFakeRenderer(t *testing.T) {
	var rendered []string
	adapter := &Adapter{
		baseURL: "https://winline.ru",
		render: func(_ context.Context, pageURL string) ([]byte, error) {
			rendered = append(rendered, pageURL)
			return []byte(sampleRows), nil
		},
	}

	matches, err := adapter.FetchAndParse(context.Background())
	if err != nil {
		t.Fatalf("FetchAndParse: %v", err)
	}
	if len(rendered) != len(sportPaths) {
		t.Fatalf("expected %d page renders, got %d", len(sportPaths), len(rendered))
	}
	if len(matches) != len(sportPaths) {
		t.Fatalf("expected %d matches, got %d", len(sportPaths), len(matches))
	}
}

func TestFetchAndParseAllRendersFail(t *testing.T) {
	adapter := &Adapter{
		baseURL: "https://winline.ru",
		render: func(context.Context, string) ([]byte, error) {
			return nil, errors.New("no chrome")
		},
	}
	if _, err := adapter.FetchAndParse(context.Background()); err == nil {
		t.Fatal("expected error when every render fails")
	}
}

func TestFetchAndParsePartialRenderFailure(t *testing.T) {
	var calls int
	adapter := &Adapter{
		baseURL: "https://winline.ru",
		render: func(_ context.Context, pageURL string) ([]byte, error) {
			calls++
			if calls == 1 {
				return nil, fmt.Errorf("render %s: timeout", pageURL)
			}
			return []byte(sampleRows), nil
		},
	}

	matches, err := adapter.FetchAndParse(context.Background())
	if err != nil {
		t.Fatalf("FetchAndParse: %v", err)
	}
	if len(matches) != len(sportPaths)-1 {
		t.Fatalf("expected %d matches, got %d", len(sportPaths)-1, len(matches))
	}
}
