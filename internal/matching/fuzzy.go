package matching

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var saltSuffix = regexp.MustCompile(`\s+(mesylate|hydrochloride|sulfate|sodium|calcium|anhydrous|monohydrate|trihydrate)$`)

// FuzzyMatchDrug reports whether a corpus row refers to the searched drug.
// Ids match exactly; names match case-insensitively, modulo a salt or hydrate
// suffix, or as a substring when the search term has at least five characters.
func FuzzyMatchDrug(searchTerm, rowName, searchID, rowID string) bool {
	if searchTerm == "" || rowName == "" {
		return false
	}

	term := strings.ToLower(searchTerm)
	row := strings.ToLower(rowName)

	if searchID != "" && rowID == searchID {
		return true
	}
	if term == row {
		return true
	}
	if saltSuffix.ReplaceAllString(term, "") == saltSuffix.ReplaceAllString(row, "") {
		return true
	}
	return utf8.RuneCountInString(term) >= 5 && strings.Contains(row, term)
}
