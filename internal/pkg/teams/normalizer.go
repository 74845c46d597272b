// Package teams canonicalizes team name variants for cross-bookmaker matching.
//
// Normalize produces a comparison key only; display names always keep the
// raw provider spelling.
package teams

import (
	"strings"
	"unicode"
)

// aliases maps lowercased provider spellings (including Russian-language
// variants) to one canonical English name. Extend as new variants show up
// in adapter logs.
var aliases = map[string]string{
	// English Premier League
	"manchester united":  "manchester united",
	"man united":         "manchester united",
	"man utd":            "manchester united",
	"манчестер юнайтед":  "manchester united",
	"манчестер юн":       "manchester united",
	"ман юнайтед":        "manchester united",
	"arsenal":            "arsenal",
	"арсенал":            "arsenal",
	"арсенал лондон":     "arsenal",
	"liverpool":          "liverpool",
	"liverpool fc":       "liverpool",
	"ливерпуль":          "liverpool",
	"chelsea":            "chelsea",
	"челси":              "chelsea",
	"manchester city":    "manchester city",
	"man city":           "manchester city",
	"манчестер сити":     "manchester city",
	"ман сити":           "manchester city",
	"tottenham hotspur":  "tottenham",
	"tottenham":          "tottenham",
	"тоттенхэм":          "tottenham",
	"тоттенхем":          "tottenham",

	// La Liga
	"real madrid":     "real madrid",
	"реал мадрид":     "real madrid",
	"fc barcelona":    "barcelona",
	"barcelona":       "barcelona",
	"барселона":       "barcelona",
	"барса":           "barcelona",
	"atletico madrid": "atletico madrid",
	"атлетико мадрид": "atletico madrid",
	"атлетико":        "atletico madrid",

	// Serie A
	"juventus":       "juventus",
	"ювентус":        "juventus",
	"inter milan":    "inter",
	"internazionale": "inter",
	"интер":          "inter",
	"интер милан":    "inter",
	"ac milan":       "milan",
	"milan":          "milan",
	"милан":          "milan",
	"ssc napoli":     "napoli",
	"napoli":         "napoli",
	"наполи":         "napoli",

	// Bundesliga
	"bayern munich":     "bayern",
	"bayern":            "bayern",
	"fc bayern münchen": "bayern",
	"fc bayern munich":  "bayern",
	"бавария":           "bayern",
	"бавария мюнхен":    "bayern",
	"borussia dortmund": "borussia dortmund",
	"bvb":               "borussia dortmund",
	"дортмунд":          "borussia dortmund",
	"боруссия дортмунд": "borussia dortmund",

	// Ligue 1
	"paris saint-germain": "psg",
	"paris saint germain": "psg",
	"psg":                 "psg",
	"пари сен-жермен":     "psg",
	"псж":                 "psg",

	// Russian Premier League
	"зенит":                 "zenit",
	"zenit":                 "zenit",
	"зенит санкт-петербург": "zenit",
	"спартак москва":        "spartak moscow",
	"спартак":               "spartak moscow",
	"spartak moscow":        "spartak moscow",
	"цска москва":           "cska moscow",
	"цска":                  "cska moscow",
	"cska moscow":           "cska moscow",
	"локомотив москва":      "lokomotiv moscow",
	"локомотив":             "lokomotiv moscow",
	"lokomotiv moscow":      "lokomotiv moscow",
	"динамо москва":         "dynamo moscow",
	"dynamo moscow":         "dynamo moscow",
	"краснодар":             "krasnodar",
	"fk krasnodar":          "krasnodar",
	"krasnodar":             "krasnodar",
}

// stopwords are club-type abbreviations and reserve/age-group markers that
// differ between bookmakers for the same club.
var stopwords = map[string]bool{
	"fc": true, "fk": true, "cf": true, "sc": true, "bk": true,
	"bc": true, "hc": true, "afc": true, "club": true, "team": true,
	"u19": true, "u20": true, "u21": true, "u23": true,
	"ii": true, "b": true, "reserve": true, "reserves": true, "youth": true,
}

// Normalize returns a canonical comparison key for a team name.
// Deterministic and total: unknown names pass through stripped but unmapped.
// Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")

	if canonical, ok := aliases[s]; ok {
		s = canonical
	}

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			kept = append(kept, f)
		}
	}
	// A name made entirely of stopwords keeps its original tokens rather
	// than collapsing to an empty key.
	if len(kept) == 0 {
		kept = strings.Fields(s)
	}

	var b strings.Builder
	for _, f := range kept {
		for _, r := range f {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// SamePair reports whether the two team pairs refer to the same event.
// Home/away order is not reliable across providers, so both orderings are
// checked; a substring-containment fallback guards against sponsor suffixes
// when both keys are long enough for it to be meaningful.
func SamePair(homeA, awayA, homeB, awayB string) bool {
	ha, aa := Normalize(homeA), Normalize(awayA)
	hb, ab := Normalize(homeB), Normalize(awayB)
	if ha == "" || aa == "" || hb == "" || ab == "" {
		return false
	}
	if (ha == hb && aa == ab) || (ha == ab && aa == hb) {
		return true
	}
	if len(ha) >= 4 && len(aa) >= 4 && len(hb) >= 4 && len(ab) >= 4 {
		if contains(ha, hb) && contains(aa, ab) {
			return true
		}
		if contains(ha, ab) && contains(aa, hb) {
			return true
		}
	}
	return false
}

func contains(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
