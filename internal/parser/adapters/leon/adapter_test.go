package leon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/httpclient"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

const sampleFeed = `{"events":[
  {"id":1001,"nameDefault":"Bayern Munich - Borussia Dortmund",
   "url":"/bets/soccer/1001","kickoff":1788375600000,"betline":"prematch",
   "league":{"nameDefault":"Bundesliga","regionDefault":"Germany","sport":{"family":"Soccer"}},
   "markets":[
     {"name":"Победитель (1X2)","runners":[
       {"name":"1","price":1.95},{"name":"X","price":3.75},{"name":"2","price":3.90}]},
     {"name":"Тотал","runners":[
       {"name":"Больше","price":1.85,"param":"2.5"},
       {"name":"Меньше","price":1.95,"param":"2.5"}]},
     {"name":"Фора","runners":[
       {"name":"1","price":1.90,"param":"-1"},
       {"name":"2","price":1.90,"param":"1"}]}
   ]},
  {"id":1002,"nameDefault":"Medvedev - Sinner",
   "url":"/bets/tennis/1002","kickoff":1788375600000,"betline":"inplay",
   "league":{"nameDefault":"US Open","regionDefault":"","sport":{"family":"Tennis"}},
   "markets":[
     {"name":"Победитель","runners":[
       {"name":"1","price":2.40},{"name":"2","price":1.55}]}
   ]},
  {"id":1003,"nameDefault":"Broken Name Without Separator",
   "league":{"sport":{"family":"Soccer"}},"markets":[]},
  {"id":1004,"nameDefault":"A - B",
   "league":{"sport":{"family":"CyberSport"}},"markets":[]}
]}`

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api-2/betline/events/all" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("ctag") != "ru-RU" {
			t.Errorf("missing ctag: %s", r.URL.RawQuery)
		}
		w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(srv.Close)
	return &Adapter{baseURL: srv.URL, client: httpclient.New(nil, nil, "", 5*time.Second)}
}

func TestFetchAndParse(t *testing.T) {
	matches, err := newTestAdapter(t).FetchAndParse(context.Background())
	if err != nil {
		t.Fatalf("FetchAndParse: %v", err)
	}
	// 1003 has no parsable name, 1004 an unmapped sport family.
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	football := matches[0]
	if football.ExternalID != "leon_1001" {
		t.Errorf("ExternalID = %q", football.ExternalID)
	}
	if football.HomeTeam != "Bayern Munich" || football.AwayTeam != "Borussia Dortmund" {
		t.Errorf("teams = %q / %q", football.HomeTeam, football.AwayTeam)
	}
	if football.League != "Germany. Bundesliga" {
		t.Errorf("League = %q", football.League)
	}
	if football.Odds.Home != 1.95 || football.Odds.Draw != 3.75 || football.Odds.Away != 3.90 {
		t.Errorf("unexpected odds: %+v", football.Odds)
	}
	if football.Totals.Line == nil || *football.Totals.Line != 2.5 || football.Totals.Over != 1.85 {
		t.Errorf("unexpected totals: %+v", football.Totals)
	}
	if football.Handicap.HomeLine == nil || *football.Handicap.HomeLine != -1 {
		t.Errorf("unexpected handicap: %+v", football.Handicap)
	}
	if football.StartTime == nil || !football.StartTime.Equal(time.UnixMilli(1788375600000).UTC()) {
		t.Errorf("unexpected start time: %v", football.StartTime)
	}

	tennis := matches[1]
	if tennis.Sport != models.SportTennis {
		t.Fatalf("Sport = %q", tennis.Sport)
	}
	if !tennis.IsLive {
		t.Error("inplay betline not marked live")
	}
	if tennis.Odds.Draw != 0 {
		t.Errorf("tennis match kept draw price %v", tennis.Odds.Draw)
	}
	if tennis.Odds.Home != 2.40 || tennis.Odds.Away != 1.55 {
		t.Errorf("unexpected odds: %+v", tennis.Odds)
	}
}

func TestIs1X2(t *testing.T) {
	tests := []struct {
		name    string
		runners []string
		want    bool
	}{
		{"Победитель (1X2)", nil, true},
		{"Исход матча 1Х2", nil, true},
		{"Победитель", []string{"1", "X", "2"}, true},
		{"Победитель", []string{"1", "2"}, true},
		{"Тотал", []string{"Больше", "Меньше"}, false},
		{"Двойной шанс", []string{"1X", "12", "X2"}, false},
	}
	for _, tt := range tests {
		runners := map[string]bool{}
		for _, r := range tt.runners {
			runners[r] = true
		}
		if got := is1X2(tt.name, runners); got != tt.want {
			t.Errorf("is1X2(%q, %v) = %v, want %v", tt.name, tt.runners, got, tt.want)
		}
	}
}

func TestRunnerClassifiers(t *testing.T) {
	if !isOverRunner("Больше") || !isOverRunner("Over") || !isOverRunner("Б") {
		t.Error("over runner names not recognized")
	}
	if !isUnderRunner("Меньше") || !isUnderRunner("Under") || !isUnderRunner("М") {
		t.Error("under runner names not recognized")
	}
	if isOverRunner("Меньше") || isUnderRunner("Больше") {
		t.Error("over/under confused")
	}
}
