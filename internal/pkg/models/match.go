package models

import "time"

// Sport is the internal sport key shared by all adapters.
type Sport string

const (
	SportFootball   Sport = "football"
	SportHockey     Sport = "hockey"
	SportBasket     Sport = "basket"
	SportTennis     Sport = "tennis"
	SportVolleyball Sport = "volleyball"
	SportBaseball   Sport = "baseball"
	SportMMA        Sport = "mma"
	SportEsports    Sport = "esports"
)

// noDrawSports have no draw outcome: the draw price is forced to the
// "unavailable" sentinel so a stray provider quote never leaks through.
var noDrawSports = map[Sport]bool{
	SportTennis: true,
	SportBasket: true,
}

// Odds is the 1X2 moneyline price set. 0 is the sentinel for "no data",
// never a real quote.
type Odds struct {
	Home float64 `json:"moneyline_home"`
	Draw float64 `json:"moneyline_draw"`
	Away float64 `json:"moneyline_away"`
}

// Totals is the over/under market. Line is nil when the provider gave no line.
type Totals struct {
	Line  *float64 `json:"line"`
	Over  float64  `json:"over"`
	Under float64  `json:"under"`
}

// Handicap is the spread market.
type Handicap struct {
	HomeLine  *float64 `json:"home_line"`
	HomePrice float64  `json:"home_price"`
	AwayLine  *float64 `json:"away_line"`
	AwayPrice float64  `json:"away_price"`
}

// Match is the canonical record every adapter maps provider events into.
// HomeTeam/AwayTeam keep the raw provider names; normalized forms are
// derived only for comparison and never stored here.
type Match struct {
	ExternalID string     `json:"external_id"` // "<source>_<providerID>", stable across polls
	Sport      Sport      `json:"sport"`
	League     string     `json:"league"`
	HomeTeam   string     `json:"home_team"`
	AwayTeam   string     `json:"away_team"`
	StartTime  *time.Time `json:"start_time"` // UTC; nil when unparsable
	IsLive     bool       `json:"is_live"`
	MatchURL   string     `json:"match_url,omitempty"`
	Odds       Odds       `json:"odds"`
	Totals     Totals     `json:"totals"`
	Handicap   Handicap   `json:"handicap"`
	Source     string     `json:"source"`
}

// Snapshot is one immutable publication of the aggregated match list.
type Snapshot struct {
	LastUpdate string  `json:"last_update"`
	Source     string  `json:"source"`
	Total      int     `json:"total"`
	Matches    []Match `json:"matches"`
}

// HasPrice reports whether the match carries at least one actionable
// moneyline price. Records failing this are dropped before publication.
func (m *Match) HasPrice() bool {
	return m.Odds.Home > 0 || m.Odds.Away > 0
}

// ApplyNoDraw zeroes the draw price for sports without a draw outcome.
func (m *Match) ApplyNoDraw() {
	if noDrawSports[m.Sport] {
		m.Odds.Draw = 0
	}
}

// HasDraw reports whether the sport has a draw outcome at all.
func HasDraw(s Sport) bool {
	return !noDrawSports[s]
}
