package aggregator

import (
	"testing"
	"time"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

func ts(day, hour int) *time.Time {
	t := time.Date(2026, 9, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func football(id, home, away string, odds models.Odds) models.Match {
	return models.Match{
		ExternalID: id,
		Sport:      models.SportFootball,
		HomeTeam:   home,
		AwayTeam:   away,
		Odds:       odds,
	}
}

func TestMergeFillsGapsOnly(t *testing.T) {
	primary := football("pinnacle_1", "Arsenal", "Chelsea", models.Odds{Home: 1.8, Draw: 0, Away: 4.0})
	secondary := football("leon_9", "Arsenal FC", "Chelsea FC", models.Odds{Home: 1.75, Draw: 3.2, Away: 4.1})

	merged := Merge(map[string][]models.Match{
		"pinnacle": {primary},
		"leon":     {secondary},
	}, []string{"pinnacle", "leon"})

	if len(merged) != 1 {
		t.Fatalf("expected 1 merged match, got %d", len(merged))
	}
	m := merged[0]
	if m.Odds.Home != 1.8 {
		t.Errorf("primary value overwritten: home = %v", m.Odds.Home)
	}
	if m.Odds.Draw != 3.2 {
		t.Errorf("gap not filled: draw = %v", m.Odds.Draw)
	}
	if m.ExternalID != "pinnacle_1" {
		t.Errorf("merged identity = %q, want the primary record's", m.ExternalID)
	}
}

func TestMergeTotalsKeepPrimaryPrices(t *testing.T) {
	// The primary carries total prices but no line; the secondary's line
	// fills in without its prices displacing the primary's.
	primary := football("pinnacle_1", "Arsenal", "Chelsea", models.Odds{Home: 1.8, Away: 4.0})
	primary.Totals = models.Totals{Over: 1.92, Under: 1.94}

	line := 2.5
	secondary := football("leon_9", "Arsenal FC", "Chelsea FC", models.Odds{Home: 1.75, Away: 4.1})
	secondary.Totals = models.Totals{Line: &line, Over: 1.85, Under: 2.01}

	merged := Merge(map[string][]models.Match{
		"pinnacle": {primary},
		"leon":     {secondary},
	}, []string{"pinnacle", "leon"})

	if len(merged) != 1 {
		t.Fatalf("expected 1 merged match, got %d", len(merged))
	}
	got := merged[0].Totals
	if got.Line == nil || *got.Line != 2.5 {
		t.Errorf("line gap not filled: %+v", got)
	}
	if got.Over != 1.92 || got.Under != 1.94 {
		t.Errorf("primary total prices overwritten: %+v", got)
	}
}

func TestMergeDedupSymmetry(t *testing.T) {
	a := football("p_1", "Bayern", "Dortmund", models.Odds{Home: 1.9, Away: 3.8})
	b := football("p_2", "Real Madrid", "Barcelona", models.Odds{Home: 2.4, Away: 2.9})
	// Same events from another source, reversed order and decorated names.
	b2 := football("s_1", "FC Barcelona", "Real Madrid CF", models.Odds{Home: 2.95, Away: 2.35})
	a2 := football("s_2", "Bayern Munchen", "Borussia Dortmund", models.Odds{Home: 1.85, Away: 3.9})

	withSecondary := Merge(map[string][]models.Match{
		"primary":   {a, b},
		"secondary": {b2, a2},
	}, []string{"primary"})
	alone := Merge(map[string][]models.Match{
		"primary": {a, b},
	}, []string{"primary"})

	if len(withSecondary) != len(alone) {
		t.Fatalf("dedup not symmetric: %d vs %d events", len(withSecondary), len(alone))
	}
}

func TestMergeAppendsUnmatched(t *testing.T) {
	merged := Merge(map[string][]models.Match{
		"primary":   {football("p_1", "Arsenal", "Chelsea", models.Odds{Home: 1.8, Away: 4.0})},
		"secondary": {football("s_1", "Liverpool", "Everton", models.Odds{Home: 1.5, Away: 6.0})},
	}, []string{"primary", "secondary"})

	if len(merged) != 2 {
		t.Fatalf("expected 2 events, got %d", len(merged))
	}
}

func TestMergeDifferentSportsNeverMatch(t *testing.T) {
	fb := football("p_1", "Spartak", "Zenit", models.Odds{Home: 2.0, Away: 3.0})
	hk := fb
	hk.ExternalID = "s_1"
	hk.Sport = models.SportHockey

	merged := Merge(map[string][]models.Match{
		"primary":   {fb},
		"secondary": {hk},
	}, []string{"primary"})
	if len(merged) != 2 {
		t.Fatalf("cross-sport merge: expected 2 events, got %d", len(merged))
	}
}

func TestMergeDropsUnpricedAndDuplicateIDs(t *testing.T) {
	priced := football("p_1", "A", "B", models.Odds{Home: 1.7, Away: 2.1})
	duplicate := priced
	unpriced := football("p_2", "C", "D", models.Odds{})

	merged := Merge(map[string][]models.Match{
		"primary": {priced, duplicate, unpriced},
	}, []string{"primary"})
	if len(merged) != 1 {
		t.Fatalf("expected 1 event, got %d", len(merged))
	}
}

func TestMergeNoDrawSports(t *testing.T) {
	tennis := models.Match{
		ExternalID: "p_1",
		Sport:      models.SportTennis,
		HomeTeam:   "Medvedev",
		AwayTeam:   "Sinner",
		Odds:       models.Odds{Home: 2.3, Away: 1.6},
	}
	secondary := tennis
	secondary.ExternalID = "s_1"
	secondary.Odds.Draw = 15.0 // bogus draw price from a sloppy source

	merged := Merge(map[string][]models.Match{
		"primary":   {tennis},
		"secondary": {secondary},
	}, []string{"primary"})
	if len(merged) != 1 {
		t.Fatalf("expected 1 event, got %d", len(merged))
	}
	if merged[0].Odds.Draw != 0 {
		t.Errorf("tennis draw price survived merge: %v", merged[0].Odds.Draw)
	}
}

func TestMergeSortByStartTimeNilLast(t *testing.T) {
	early := football("p_1", "A", "B", models.Odds{Home: 1.5, Away: 2.5})
	early.StartTime = ts(2, 12)
	late := football("p_2", "C", "D", models.Odds{Home: 1.5, Away: 2.5})
	late.StartTime = ts(3, 18)
	unknown := football("p_3", "E", "F", models.Odds{Home: 1.5, Away: 2.5})

	merged := Merge(map[string][]models.Match{
		"primary": {unknown, late, early},
	}, []string{"primary"})
	if len(merged) != 3 {
		t.Fatalf("expected 3 events, got %d", len(merged))
	}
	if merged[0].ExternalID != "p_1" || merged[1].ExternalID != "p_2" || merged[2].ExternalID != "p_3" {
		t.Errorf("unexpected order: %s, %s, %s",
			merged[0].ExternalID, merged[1].ExternalID, merged[2].ExternalID)
	}
}

func TestMergePriorityOrderIsDeterministic(t *testing.T) {
	// Two sources both priced, neither in the priority list: alphabetical
	// order applies, so "alpha" forms the base.
	fromAlpha := football("alpha_1", "Arsenal", "Chelsea", models.Odds{Home: 1.9, Away: 3.9})
	fromBeta := football("beta_1", "Arsenal", "Chelsea", models.Odds{Home: 1.8, Away: 4.0})

	for i := 0; i < 10; i++ {
		merged := Merge(map[string][]models.Match{
			"beta":  {fromBeta},
			"alpha": {fromAlpha},
		}, nil)
		if len(merged) != 1 {
			t.Fatalf("expected 1 event, got %d", len(merged))
		}
		if merged[0].ExternalID != "alpha_1" {
			t.Fatalf("base record came from %q, want alpha", merged[0].ExternalID)
		}
	}
}
