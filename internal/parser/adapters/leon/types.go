package leon

// Wire types for the betline events feed. Only the fields we map are
// declared; everything else the API sends is dropped at this boundary.

type eventsResponse struct {
	Events []event `json:"events"`
}

type event struct {
	ID          int64    `json:"id"`
	NameDefault string   `json:"nameDefault"`
	URL         string   `json:"url"`
	Kickoff     int64    `json:"kickoff"` // unix millis
	Betline     string   `json:"betline"`
	MatchPhase  string   `json:"matchPhase"`
	League      league   `json:"league"`
	Markets     []market `json:"markets"`
}

type league struct {
	NameDefault   string `json:"nameDefault"`
	RegionDefault string `json:"regionDefault"`
	Sport         sport  `json:"sport"`
}

type sport struct {
	Family string `json:"family"`
}

type market struct {
	Name    string   `json:"name"`
	Runners []runner `json:"runners"`
}

type runner struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Param string  `json:"param"`
}
