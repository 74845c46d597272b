package aggregator

import (
	"sort"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/teams"
)

// Merge combines per-source results into one match list. Sources are
// processed in priority order: the first source's records form the base,
// every later record either fills gaps in an equivalent base record or is
// appended as a new event. A base record's non-zero values are never
// overwritten, so the higher-priority source always wins a conflict.
func Merge(bySource map[string][]models.Match, priority []string) []models.Match {
	var merged []models.Match
	for _, source := range sourceOrder(bySource, priority) {
		for _, m := range bySource[source] {
			if i := findEquivalent(merged, &m); i >= 0 {
				fillGaps(&merged[i], &m)
			} else {
				merged = append(merged, m)
			}
		}
	}
	return finalize(merged)
}

// sourceOrder returns the sources present in bySource, priority-listed
// ones first, the rest alphabetically after them. A deterministic order
// keeps the merge result independent of adapter completion timing.
func sourceOrder(bySource map[string][]models.Match, priority []string) []string {
	seen := map[string]bool{}
	var order []string
	for _, source := range priority {
		if _, ok := bySource[source]; ok && !seen[source] {
			seen[source] = true
			order = append(order, source)
		}
	}

	var rest []string
	for source := range bySource {
		if !seen[source] {
			rest = append(rest, source)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// findEquivalent locates a record describing the same real-world event:
// same sport and the same team pair under normalization, in either order.
func findEquivalent(merged []models.Match, m *models.Match) int {
	for i := range merged {
		if merged[i].Sport != m.Sport {
			continue
		}
		if teams.SamePair(merged[i].HomeTeam, merged[i].AwayTeam, m.HomeTeam, m.AwayTeam) {
			return i
		}
	}
	return -1
}

// fillGaps copies src values into dst fields that hold the no-data
// placeholder. Existing dst values are kept untouched.
func fillGaps(dst, src *models.Match) {
	if dst.Odds.Home == 0 {
		dst.Odds.Home = src.Odds.Home
	}
	if dst.Odds.Draw == 0 {
		dst.Odds.Draw = src.Odds.Draw
	}
	if dst.Odds.Away == 0 {
		dst.Odds.Away = src.Odds.Away
	}

	if dst.Totals.Line == nil {
		dst.Totals.Line = src.Totals.Line
	}
	if dst.Totals.Over == 0 {
		dst.Totals.Over = src.Totals.Over
	}
	if dst.Totals.Under == 0 {
		dst.Totals.Under = src.Totals.Under
	}

	if dst.Handicap.HomeLine == nil && dst.Handicap.AwayLine == nil &&
		(src.Handicap.HomeLine != nil || src.Handicap.AwayLine != nil) {
		dst.Handicap = src.Handicap
	}

	if dst.StartTime == nil {
		dst.StartTime = src.StartTime
	}
	if dst.League == "" {
		dst.League = src.League
	}
	if dst.MatchURL == "" {
		dst.MatchURL = src.MatchURL
	}
}

// finalize applies the output invariants: unique external ids, the no-draw
// rule, at least one priced moneyline side, and the display sort.
func finalize(merged []models.Match) []models.Match {
	seen := map[string]bool{}
	out := merged[:0]
	for i := range merged {
		m := merged[i]
		if m.ExternalID != "" {
			if seen[m.ExternalID] {
				continue
			}
			seen[m.ExternalID] = true
		}
		m.ApplyNoDraw()
		if !m.HasPrice() {
			continue
		}
		out = append(out, m)
	}

	// Earliest kickoff first; unknown times sort last.
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].StartTime, out[j].StartTime
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.Before(*tj)
		}
	})
	return out
}
