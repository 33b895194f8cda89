package identity

import "strings"

// knownAbbreviations covers clubs whose common short form does not follow
// from their name.
var knownAbbreviations = map[string]string{
	"FC Bayern München":     "FCB",
	"Borussia Dortmund":     "BVB",
	"Borussia M'gladbach":   "BMG",
	"Bayer 04 Leverkusen":   "B04",
	"Eintracht Frankfurt":   "SGE",
	"1. FC Köln":            "KOE",
	"1. FSV Mainz 05":       "M05",
	"TSG 1899 Hoffenheim":   "TSG",
	"VfL Wolfsburg":         "WOB",
	"SV Werder Bremen":      "SVW",
	"1. FC Union Berlin":    "FCU",
	"FC St. Pauli":          "STP",
	"Hamburger SV":          "HSV",
	"1. FC Heidenheim 1846": "HDH",
}

// Abbreviation maps a team name to a short display form: the static table
// first, otherwise the first letters of the first three words, uppercased.
// Display concern only; identity keys always use the full name.
func Abbreviation(team string) string {
	team = strings.TrimSpace(team)
	if team == "" {
		return ""
	}
	if abbr, ok := knownAbbreviations[team]; ok {
		return abbr
	}

	var letters []rune
	for _, word := range strings.Fields(team) {
		letters = append(letters, []rune(word)[0])
		if len(letters) == 3 {
			break
		}
	}
	return strings.ToUpper(string(letters))
}
