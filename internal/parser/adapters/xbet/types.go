package xbet

// LineFeed wire types. Field names follow the provider's single-letter
// JSON keys: O1/O2 teams, L league, S start time, C coefficient, P param.

type lineFeed struct {
	Success bool        `json:"Success"`
	Value   []lineEvent `json:"Value"`
}

type lineEvent struct {
	FI     int64       `json:"FI"`
	I      int64       `json:"I"`
	League string      `json:"L"`
	Home   string      `json:"O1"`
	Away   string      `json:"O2"`
	Start  int64       `json:"S"` // unix seconds
	SE     []selection `json:"SE"`
	E      []selection `json:"E"`
}

type selection struct {
	Type  int      `json:"S"`
	Coef  float64  `json:"C"`
	Param *float64 `json:"P"`
}
