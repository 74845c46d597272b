package models

import "testing"

func TestHasPrice(t *testing.T) {
	tests := []struct {
		name     string
		odds     Odds
		expected bool
	}{
		{"both sides priced", Odds{Home: 1.8, Draw: 3.4, Away: 4.2}, true},
		{"home only", Odds{Home: 1.5}, true},
		{"away only", Odds{Away: 2.1}, true},
		{"draw only is not actionable", Odds{Draw: 3.2}, false},
		{"all sentinel", Odds{}, false},
	}

	for _, tt := range tests {
		m := Match{Odds: tt.odds}
		if got := m.HasPrice(); got != tt.expected {
			t.Errorf("%s: HasPrice() = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestApplyNoDraw(t *testing.T) {
	tests := []struct {
		sport    Sport
		wantDraw float64
	}{
		{SportTennis, 0},
		{SportBasket, 0},
		{SportFootball, 3.1},
		{SportHockey, 3.1},
	}

	for _, tt := range tests {
		m := Match{Sport: tt.sport, Odds: Odds{Home: 1.9, Draw: 3.1, Away: 3.8}}
		m.ApplyNoDraw()
		if m.Odds.Draw != tt.wantDraw {
			t.Errorf("ApplyNoDraw(%s): draw = %v, want %v", tt.sport, m.Odds.Draw, tt.wantDraw)
		}
	}
}
