package pinnacle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/apperrors"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/httpclient"
)

const sampleFixtures = `{"league":[{"name":"England - Premier League","events":[
  {"id":100,"home":"Arsenal","away":"Chelsea","starts":"2026-09-01T19:00:00Z"},
  {"id":101,"home":"Leeds","away":"Everton","starts":"2026-09-01T21:00:00Z"}
]}]}`

const sampleOdds = `{"leagues":[{"events":[
  {"id":100,"periods":[
    {"number":0,
     "moneyline":{"home":2.05,"draw":3.3,"away":3.6},
     "totals":[{"points":2.5,"over":1.92,"under":1.94}],
     "spreads":[{"hdp":-0.5,"home":1.88,"away":1.98}]},
    {"number":1,"moneyline":{"home":9.9,"draw":9.9,"away":9.9}}
  ]}
]}]}`

func newTestAdapter(t *testing.T, handler http.Handler) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Adapter{
		baseURL:  srv.URL,
		login:    "user",
		password: "pass",
		client:   httpclient.New(nil, nil, "", 5*time.Second),
	}
}

func TestFetchAndParse(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "pass" {
			t.Errorf("missing basic auth on %s", r.URL.Path)
		}
		switch r.URL.Path {
		case "/fixtures":
			w.Write([]byte(sampleFixtures))
		case "/odds":
			w.Write([]byte(sampleOdds))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	matches, err := adapter.FetchAndParse(context.Background())
	if err != nil {
		t.Fatalf("FetchAndParse: %v", err)
	}
	// Fixture 101 has no odds and is dropped; one joined match per sport.
	if len(matches) != len(sportIDs) {
		t.Fatalf("expected %d matches, got %d", len(sportIDs), len(matches))
	}

	m := matches[0]
	if m.ExternalID != "pinnacle_100" {
		t.Errorf("ExternalID = %q", m.ExternalID)
	}
	if m.League != "England - Premier League" {
		t.Errorf("League = %q", m.League)
	}
	// Full-match period only: the number 1 period must not leak in.
	if m.Odds.Home != 2.05 || m.Odds.Draw != 3.3 || m.Odds.Away != 3.6 {
		t.Errorf("unexpected odds: %+v", m.Odds)
	}
	if m.Handicap.AwayLine == nil || *m.Handicap.AwayLine != 0.5 {
		t.Errorf("away handicap line not mirrored: %+v", m.Handicap)
	}
	if m.StartTime == nil || !m.StartTime.Equal(time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start time: %v", m.StartTime)
	}
}

func TestFetchAndParseMissingCredentials(t *testing.T) {
	adapter := &Adapter{client: httpclient.New(nil, nil, "", time.Second)}
	_, err := adapter.FetchAndParse(context.Background())
	if !errors.Is(err, apperrors.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestFetchAndParseAllSportsFail(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	if _, err := adapter.FetchAndParse(context.Background()); err == nil {
		t.Fatal("expected an error when every sport request fails")
	}
}

func TestFetchAndParsePartialSportFailure(t *testing.T) {
	var served bool
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sportId") != "29" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		served = true
		switch r.URL.Path {
		case "/fixtures":
			w.Write([]byte(sampleFixtures))
		case "/odds":
			w.Write([]byte(sampleOdds))
		}
	}))

	matches, err := adapter.FetchAndParse(context.Background())
	if err != nil {
		t.Fatalf("FetchAndParse: %v", err)
	}
	if !served {
		t.Fatal("football sport never served")
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match from the surviving sport, got %d", len(matches))
	}
}
