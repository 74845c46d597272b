package pinnacle

type fixturesResponse struct {
	League []fixtureLeague `json:"league"`
}

type fixtureLeague struct {
	Name   string         `json:"name"`
	Events []fixtureEvent `json:"events"`
}

type fixtureEvent struct {
	ID     int64  `json:"id"`
	Home   string `json:"home"`
	Away   string `json:"away"`
	Starts string `json:"starts"`
}

type oddsResponse struct {
	Leagues []oddsLeague `json:"leagues"`
}

type oddsLeague struct {
	Matchups []oddsMatchup `json:"events"`
}

type oddsMatchup struct {
	ID      int64        `json:"id"`
	Periods []oddsPeriod `json:"periods"`
}

type oddsPeriod struct {
	Number    int          `json:"number"`
	Moneyline *moneyline   `json:"moneyline"`
	Totals    []totalLine  `json:"totals"`
	Spreads   []spreadLine `json:"spreads"`
}

type moneyline struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

type totalLine struct {
	Points *float64 `json:"points"`
	Over   float64  `json:"over"`
	Under  float64  `json:"under"`
}

type spreadLine struct {
	Hdp  *float64 `json:"hdp"`
	Home float64  `json:"home"`
	Away float64  `json:"away"`
}
