package apifootball

type fixturesResponse struct {
	Response []fixtureEntry `json:"response"`
}

type fixtureEntry struct {
	Fixture fixture `json:"fixture"`
	Teams   teams   `json:"teams"`
}

type fixture struct {
	ID   int64  `json:"id"`
	Date string `json:"date"`
}

type teams struct {
	Home team `json:"home"`
	Away team `json:"away"`
}

type team struct {
	Name string `json:"name"`
}

type oddsResponse struct {
	Response []oddsEntry `json:"response"`
}

type oddsEntry struct {
	Bookmakers []oddsBookmaker `json:"bookmakers"`
}

type oddsBookmaker struct {
	Bets []bet `json:"bets"`
}

type bet struct {
	Name   string     `json:"name"`
	Values []betValue `json:"values"`
}

// betValue carries the odd as a decimal string, which is how the API
// serializes prices.
type betValue struct {
	Value string `json:"value"`
	Odd   string `json:"odd"`
}
