package oddsio

type ioEvent struct {
	ID     int64    `json:"id"`
	Home   string   `json:"home"`
	Away   string   `json:"away"`
	Date   string   `json:"date"`
	Status string   `json:"status"`
	League ioLeague `json:"league"`
}

type ioLeague struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ioOddsResponse struct {
	Bookmakers map[string][]ioMarket `json:"bookmakers"`
}

type ioMarket struct {
	Name string   `json:"name"`
	Odds []ioOdds `json:"odds"`
}

// ioOdds is a union of the per-market price shapes: ML uses home/draw/away,
// totals use total/over/under, spreads use hdp/home/away.
type ioOdds struct {
	Home  float64  `json:"home"`
	Draw  float64  `json:"draw"`
	Away  float64  `json:"away"`
	Over  float64  `json:"over"`
	Under float64  `json:"under"`
	Total *float64 `json:"total"`
	Line  *float64 `json:"line"`
	Hdp   *float64 `json:"hdp"`
}
