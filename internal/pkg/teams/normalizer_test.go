package teams

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Bayern Munich", "bayern"},
		{"FC Bayern Munich", "bayern"},
		{"bayern", "bayern"},
		{"Бавария", "bayern"},
		{"Manchester United", "manchesterunited"},
		{"Man Utd", "manchesterunited"},
		{"Liverpool FC", "liverpool"},
		{"Real Madrid", "realmadrid"},
		{"Реал Мадрид", "realmadrid"},
		{"PSG", "psg"},
		{"Paris Saint-Germain", "psg"},
		{"FK Krasnodar", "krasnodar"},
		{"Arsenal U21", "arsenal"},
		{"  Spartak   Moscow ", "spartakmoscow"},
		{"Unknown Team Somewhere", "unknownsomewhere"},
		{"", ""},
		{"FC", "fc"}, // all-stopword name keeps its tokens
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Bayern Munich", "Манчестер Юнайтед", "Liverpool FC",
		"Tottenham Hotspur", "random name 123", "AC Milan", "",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestSamePair(t *testing.T) {
	tests := []struct {
		name                       string
		homeA, awayA, homeB, awayB string
		expected                   bool
	}{
		{"exact", "Arsenal", "Chelsea", "Arsenal", "Chelsea", true},
		{"swapped order", "Arsenal", "Chelsea", "Chelsea", "Arsenal", true},
		{"alias variants", "Бавария", "Дортмунд", "Bayern Munich", "Borussia Dortmund", true},
		{"sponsor suffix containment", "Liverpool Reds", "Everton Blues", "Liverpool", "Everton Blues", true},
		{"different events", "Arsenal", "Chelsea", "Arsenal", "Liverpool", false},
		{"short keys skip containment", "Ajax", "PSV", "Aja", "PSV", false},
		{"empty side never matches", "", "Chelsea", "Arsenal", "Chelsea", false},
	}

	for _, tt := range tests {
		got := SamePair(tt.homeA, tt.awayA, tt.homeB, tt.awayB)
		if got != tt.expected {
			t.Errorf("%s: SamePair = %v, want %v", tt.name, got, tt.expected)
		}
	}
}
